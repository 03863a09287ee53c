package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindGroup   = "group"
	KindPrivate = "private"
)

// BroadcastMessage is retained in the room's bounded history.
// Immutable once created.
type BroadcastMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserColor string    `json:"userColor"`
	Text      string    `json:"message"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// PrivateMessage is relayed to exactly the sender and the recipient,
// never stored.
type PrivateMessage struct {
	ID        string    `json:"id"`
	FromID    string    `json:"fromUserId"`
	FromName  string    `json:"fromUserName"`
	FromColor string    `json:"fromUserColor"`
	ToID      string    `json:"toUserId"`
	ToName    string    `json:"toUserName"`
	Text      string    `json:"message"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBroadcastMessage(from *Member, text string) BroadcastMessage {
	return BroadcastMessage{
		ID:        uuid.NewString(),
		UserID:    from.ID,
		UserName:  from.Name,
		UserColor: from.Color,
		Text:      text,
		Kind:      KindGroup,
		Timestamp: time.Now(),
	}
}

func NewPrivateMessage(fromID, fromName, fromColor, toID, toName, text string) PrivateMessage {
	return PrivateMessage{
		ID:        uuid.NewString(),
		FromID:    fromID,
		FromName:  fromName,
		FromColor: fromColor,
		ToID:      toID,
		ToName:    toName,
		Text:      text,
		Kind:      KindPrivate,
		Timestamp: time.Now(),
	}
}
