package app

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huddlemap/huddle/internal/core"
	"github.com/huddlemap/huddle/internal/domain"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RoomManager owns the process-wide room store: creation with fresh codes,
// existence/occupancy reads, and deferred deletion of emptied rooms.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]core.RoomService

	historyLimit int
	grace        time.Duration
}

func NewRoomManager(historyLimit int, grace time.Duration) *RoomManager {
	return &RoomManager{
		rooms:        make(map[domain.RoomCode]core.RoomService),
		historyLimit: historyLimit,
		grace:        grace,
	}
}

// CreateRoom inserts an empty room under a fresh 6-char code and returns it.
// Regenerates on the (unlikely) collision with a live code.
func (m *RoomManager) CreateRoom() core.RoomService {
	m.mu.Lock()
	defer m.mu.Unlock()
	var code domain.RoomCode
	for {
		code = generateCode()
		if _, exists := m.rooms[code]; !exists {
			break
		}
	}
	room := core.NewRoomService(domain.NewRoom(code), m.historyLimit)
	m.rooms[code] = room
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Msg("room created")
	return room
}

func (m *RoomManager) Get(code domain.RoomCode) (core.RoomService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[code]
	return room, ok
}

// Info answers the existence/occupancy query without mutating state.
func (m *RoomManager) Info(code domain.RoomCode) (exists bool, memberCount int) {
	room, ok := m.Get(code)
	if !ok {
		return false, 0
	}
	return true, room.MemberCount()
}

// ScheduleEvictionIfEmpty starts a one-shot deferred check for an emptied
// room. The check re-reads occupancy at fire time, so a rejoin during the
// grace window keeps the room alive and duplicate schedules are harmless.
func (m *RoomManager) ScheduleEvictionIfEmpty(code domain.RoomCode) {
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Dur("grace", m.grace).Msg("eviction scheduled")
	time.AfterFunc(m.grace, func() {
		m.evictIfEmpty(code)
	})
}

func (m *RoomManager) evictIfEmpty(code domain.RoomCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[code]
	if !ok || room.MemberCount() > 0 {
		return
	}
	delete(m.rooms, code)
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Msg("empty room evicted")
}

func generateCode() domain.RoomCode {
	b := make([]byte, domain.RoomCodeLen)
	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = codeCharset[int(b[i])%len(codeCharset)]
	}
	return domain.RoomCode(b)
}
