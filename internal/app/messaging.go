package app

import (
	"github.com/rs/zerolog/log"

	"github.com/huddlemap/huddle/internal/core"
	"github.com/huddlemap/huddle/internal/domain"
)

// SendBroadcast appends a group message to the room history (trimmed to the
// newest historyLimit entries) and fans it out to every member, sender
// included. Silent no-op without a session or a live room: delivery is
// best-effort and stale senders resync on rejoin.
func (h *Hub) SendBroadcast(sid core.SessionID, text string) {
	sess, ok := h.Registry.Lookup(sid)
	if !ok {
		return
	}
	room, ok := h.Rooms.Get(sess.RoomCode)
	if !ok {
		return
	}

	msg := domain.NewBroadcastMessage(&domain.Member{
		ID:    string(sid),
		Name:  sess.Name,
		Color: sess.Color,
	}, text)
	room.AppendMessage(msg)

	h.Emitter.EmitRoom(sess.RoomCode, NewMessageEvent{
		Type:             EventNewMessage,
		BroadcastMessage: msg,
	})
	log.Debug().Str("module", "app.hub").Str("sid", string(sid)).Str("room", string(sess.RoomCode)).Msg("broadcast message")
}

// SendPrivate relays a 1:1 message to the recipient and an identical copy
// back to the sender. No history, no room-membership check between the two
// sessions (cross-room private messages are allowed).
func (h *Hub) SendPrivate(from core.SessionID, to core.SessionID, text string) {
	fromSess, ok := h.Registry.Lookup(from)
	if !ok {
		return
	}
	toSess, ok := h.Registry.Lookup(to)
	if !ok {
		return
	}

	msg := domain.NewPrivateMessage(
		string(from), fromSess.Name, fromSess.Color,
		string(to), toSess.Name, text,
	)
	ev := NewPrivateMessageEvent{Type: EventNewPrivate, PrivateMessage: msg}
	h.Emitter.EmitTo(to, ev)
	h.Emitter.EmitTo(from, ev)
	log.Debug().Str("module", "app.hub").Str("from", string(from)).Str("to", string(to)).Msg("private message")
}

// SetTyping broadcasts an ephemeral typing notification to the rest of the
// room, excluding the sender. Nothing is stored.
func (h *Hub) SetTyping(sid core.SessionID, isTyping bool) {
	sess, ok := h.Registry.Lookup(sid)
	if !ok {
		return
	}
	h.Emitter.EmitRoomExcept(sess.RoomCode, sid, UserTypingEvent{
		Type:     EventUserTyping,
		UserID:   string(sid),
		UserName: sess.Name,
		IsTyping: isTyping,
	})
}
