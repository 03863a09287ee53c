package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/huddlemap/huddle/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// Members keep join order; history keeps insertion order and is trimmed
// FIFO once it exceeds historyLimit.
type roomImpl struct {
	room         *domain.Room
	historyLimit int

	mu      sync.RWMutex
	members []*domain.Member
	history []domain.BroadcastMessage
}

func NewRoomService(room *domain.Room, historyLimit int) RoomService {
	return &roomImpl{room: room, historyLimit: historyLimit}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) MembersSnapshot() []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.members, func(m *domain.Member, _ int) domain.Member {
		return *m
	})
}

func (r *roomImpl) AddMember(m *domain.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append(r.members, m)
	log.Info().Str("module", "core.room").Str("room", string(r.room.Code)).Str("sid", m.ID).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed, ok := lo.Find(r.members, func(m *domain.Member) bool {
		return m.ID == string(sid)
	})
	if !ok {
		return domain.Member{}, false
	}
	r.members = lo.Reject(r.members, func(m *domain.Member, _ int) bool {
		return m.ID == string(sid)
	})
	log.Info().Str("module", "core.room").Str("room", string(r.room.Code)).Str("sid", string(sid)).Msg("member removed")
	return *removed, true
}

func (r *roomImpl) UpdateLocation(sid SessionID, loc domain.Location, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := lo.Find(r.members, func(m *domain.Member) bool {
		return m.ID == string(sid)
	})
	if !ok {
		return false
	}
	m.Location = &loc
	m.LastUpdate = at
	return true
}

func (r *roomImpl) AppendMessage(msg domain.BroadcastMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, msg)
	if len(r.history) > r.historyLimit {
		r.history = r.history[len(r.history)-r.historyLimit:]
	}
}

func (r *roomImpl) History() []domain.BroadcastMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.BroadcastMessage, len(r.history))
	copy(out, r.history)
	return out
}
