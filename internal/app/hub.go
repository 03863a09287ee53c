package app

import (
	"github.com/rs/zerolog/log"

	"github.com/huddlemap/huddle/internal/core"
	"github.com/huddlemap/huddle/internal/domain"
)

// Hub coordinates presence, messaging and location fanout over the shared
// room store and session registry. Every inbound event resolves the calling
// connection to a session first, then mutates the room and emits through
// the transport collaborator.
type Hub struct {
	Registry *Registry
	Rooms    *RoomManager
	Emitter  core.Emitter
}

func NewHub(registry *Registry, rooms *RoomManager, emitter core.Emitter) *Hub {
	return &Hub{Registry: registry, Rooms: rooms, Emitter: emitter}
}

// Join adds the connection to a live room. All-or-nothing: an unknown code
// leaves no session, membership or group subscription behind.
//
// The joiner gets the room history privately; the whole room (joiner
// included) gets the membership broadcast.
func (h *Hub) Join(sid core.SessionID, rawCode, name, color string) error {
	code := domain.NormalizeCode(rawCode)
	room, ok := h.Rooms.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	member, err := domain.NewMember(string(sid), name, color)
	if err != nil {
		return err
	}

	room.AddMember(member)
	h.Registry.Bind(&Session{SID: sid, Name: name, Color: color, RoomCode: code})
	h.Emitter.Subscribe(code, sid)

	h.Emitter.EmitRoom(code, UserJoinedEvent{
		Type:  EventUserJoined,
		User:  *member,
		Users: room.MembersSnapshot(),
	})
	h.Emitter.EmitTo(sid, PreviousMessagesEvent{
		Type:     EventPreviousMessages,
		Messages: room.History(),
	})

	log.Info().Str("module", "app.hub").Str("sid", string(sid)).Str("room", string(code)).Str("name", name).Msg("joined room")
	return nil
}

// Leave tears the session down, triggered by disconnect. No-op without a
// session. Schedules the deferred eviction check when the room empties.
func (h *Hub) Leave(sid core.SessionID) {
	sess, ok := h.Registry.Lookup(sid)
	if !ok {
		return
	}
	h.Registry.Unbind(sid)
	h.Emitter.Unsubscribe(sess.RoomCode, sid)

	room, ok := h.Rooms.Get(sess.RoomCode)
	if !ok {
		return
	}
	if _, ok := room.RemoveMember(sid); !ok {
		return
	}

	h.Emitter.EmitRoom(sess.RoomCode, UserLeftEvent{
		Type:     EventUserLeft,
		UserID:   string(sid),
		UserName: sess.Name,
		Users:    room.MembersSnapshot(),
	})
	log.Info().Str("module", "app.hub").Str("sid", string(sid)).Str("room", string(sess.RoomCode)).Msg("left room")

	if room.MemberCount() == 0 {
		h.Rooms.ScheduleEvictionIfEmpty(sess.RoomCode)
	}
}
