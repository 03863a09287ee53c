package app

import (
	"time"

	"github.com/huddlemap/huddle/internal/core"
	"github.com/huddlemap/huddle/internal/domain"
)

// UpdateLocation overwrites the member's position in place and fans the
// update out to the whole room, originator included. Coordinates are
// relayed as-is; range validation is left to clients.
func (h *Hub) UpdateLocation(sid core.SessionID, latitude, longitude float64) {
	sess, ok := h.Registry.Lookup(sid)
	if !ok {
		return
	}
	room, ok := h.Rooms.Get(sess.RoomCode)
	if !ok {
		return
	}

	loc := domain.Location{Latitude: latitude, Longitude: longitude}
	now := time.Now()
	room.UpdateLocation(sid, loc, now)

	h.Emitter.EmitRoom(sess.RoomCode, LocationUpdateEvent{
		Type:      EventLocationUpdate,
		UserID:    string(sid),
		Location:  loc,
		Timestamp: now,
	})
}
