package signal

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/huddlemap/huddle/internal/core"
	"github.com/huddlemap/huddle/internal/domain"
)

// WSEmitter implements core.Emitter over live websocket connections:
// per-connection delivery plus room-scoped multicast groups.
type WSEmitter struct {
	mu     sync.RWMutex
	conns  map[core.SessionID]*WsConn
	groups map[domain.RoomCode]map[core.SessionID]struct{}
}

func NewWSEmitter() *WSEmitter {
	return &WSEmitter{
		conns:  make(map[core.SessionID]*WsConn),
		groups: make(map[domain.RoomCode]map[core.SessionID]struct{}),
	}
}

func (e *WSEmitter) add(sid core.SessionID, c *WsConn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conns[sid] = c
}

// remove drops the connection and any group membership it still holds.
func (e *WSEmitter) remove(sid core.SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.conns, sid)
	for code, members := range e.groups {
		delete(members, sid)
		if len(members) == 0 {
			delete(e.groups, code)
		}
	}
}

func (e *WSEmitter) Subscribe(code domain.RoomCode, sid core.SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	members, ok := e.groups[code]
	if !ok {
		members = make(map[core.SessionID]struct{})
		e.groups[code] = members
	}
	members[sid] = struct{}{}
}

func (e *WSEmitter) Unsubscribe(code domain.RoomCode, sid core.SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if members, ok := e.groups[code]; ok {
		delete(members, sid)
		if len(members) == 0 {
			delete(e.groups, code)
		}
	}
}

func (e *WSEmitter) EmitTo(sid core.SessionID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("emit marshal")
		return
	}
	e.mu.RLock()
	c, ok := e.conns[sid]
	e.mu.RUnlock()
	if !ok {
		return
	}
	e.send(sid, c, b)
}

func (e *WSEmitter) EmitRoom(code domain.RoomCode, v any) {
	e.emitGroup(code, "", v)
}

func (e *WSEmitter) EmitRoomExcept(code domain.RoomCode, except core.SessionID, v any) {
	e.emitGroup(code, except, v)
}

func (e *WSEmitter) emitGroup(code domain.RoomCode, except core.SessionID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("emit marshal")
		return
	}

	e.mu.RLock()
	targets := make(map[core.SessionID]*WsConn, len(e.groups[code]))
	for sid := range e.groups[code] {
		if sid == except {
			continue
		}
		if c, ok := e.conns[sid]; ok {
			targets[sid] = c
		}
	}
	e.mu.RUnlock()

	for sid, c := range targets {
		e.send(sid, c, b)
	}
}

// send drops the frame on backpressure rather than blocking fanout.
func (e *WSEmitter) send(sid core.SessionID, c *WsConn, b []byte) {
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("frame dropped")
	}
}
