// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"time"
)

const RoomCodeLen = 6

var ErrRoomNotFound = errors.New("room not found")

type RoomCode string

type Room struct {
	Code      RoomCode  `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewRoom(code RoomCode) *Room {
	return &Room{Code: code, CreatedAt: time.Now()}
}

// NormalizeCode folds a client-supplied code to the canonical stored form.
// Codes are unique case-insensitively while the room is live.
func NormalizeCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}
