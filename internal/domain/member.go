package domain

import (
	"errors"
	"time"
)

const MaxNameLen = 36

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Member is a room participant bound to one connection.
// Location stays nil until the first position update arrives.
type Member struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	Location   *Location `json:"location"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// NewMember is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewMember(id, name, color string) (*Member, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &Member{ID: id, Name: name, Color: color, LastUpdate: time.Now()}, nil
}
