package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/huddlemap/huddle/internal/core"
	"github.com/huddlemap/huddle/internal/domain"
)

// Session is the live binding of a connection to its user identity and
// current room. One session per live connection.
type Session struct {
	SID      core.SessionID
	Name     string
	Color    string
	RoomCode domain.RoomCode
}

// Registry is the process-wide session store.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*Session)}
}

func (r *Registry) Bind(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SID] = s
	log.Info().Str("module", "app.registry").Str("sid", string(s.SID)).Str("room", string(s.RoomCode)).Msg("bound session")
}

func (r *Registry) Lookup(sid core.SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sid]
	return s, ok
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
