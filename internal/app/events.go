package app

import (
	"time"

	"github.com/huddlemap/huddle/internal/domain"
)

// Outbound event names. The set is closed: the hub emits nothing else.
const (
	EventError            = "error"
	EventUserJoined       = "user-joined"
	EventPreviousMessages = "previous-messages"
	EventLocationUpdate   = "location-update"
	EventNewMessage       = "new-message"
	EventNewPrivate       = "new-private-message"
	EventUserTyping       = "user-typing"
	EventUserLeft         = "user-left"
)

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type UserJoinedEvent struct {
	Type  string          `json:"type"`
	User  domain.Member   `json:"user"`
	Users []domain.Member `json:"users"`
}

type PreviousMessagesEvent struct {
	Type     string                    `json:"type"`
	Messages []domain.BroadcastMessage `json:"messages"`
}

type LocationUpdateEvent struct {
	Type      string          `json:"type"`
	UserID    string          `json:"userId"`
	Location  domain.Location `json:"location"`
	Timestamp time.Time       `json:"timestamp"`
}

type NewMessageEvent struct {
	Type string `json:"type"`
	domain.BroadcastMessage
}

type NewPrivateMessageEvent struct {
	Type string `json:"type"`
	domain.PrivateMessage
}

type UserTypingEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

type UserLeftEvent struct {
	Type     string          `json:"type"`
	UserID   string          `json:"userId"`
	UserName string          `json:"userName"`
	Users    []domain.Member `json:"users"`
}
