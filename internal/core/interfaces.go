package core

import (
	"time"

	"github.com/huddlemap/huddle/internal/domain"
)

// SessionID identifies one live connection.
type SessionID string

// Emitter abstracts the transport collaborator: per-connection delivery,
// room-scoped multicast groups, and group membership.
// Owned by the adapter; the core never closes connections through it.
type Emitter interface {
	Subscribe(code domain.RoomCode, sid SessionID)
	Unsubscribe(code domain.RoomCode, sid SessionID)
	EmitTo(sid SessionID, v any)
	EmitRoom(code domain.RoomCode, v any)
	EmitRoomExcept(code domain.RoomCode, except SessionID, v any)
}

// RoomService is the core-facing API of a room.
// It owns the membership list and message history but never touches
// transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	MembersSnapshot() []domain.Member

	AddMember(m *domain.Member)
	RemoveMember(sid SessionID) (domain.Member, bool)
	UpdateLocation(sid SessionID, loc domain.Location, at time.Time) bool

	AppendMessage(msg domain.BroadcastMessage)
	History() []domain.BroadcastMessage
}
