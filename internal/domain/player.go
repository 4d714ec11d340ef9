// Package domain contains entity types without logic, just meta-data.
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxPlayerNameLen = 36

var (
	ErrPlayerNameEmpty   = errors.New("player name empty")
	ErrPlayerNameTooLong = errors.New("player name too long")
)

type PlayerID string

type Player struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

// NewPlayer is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewPlayer(name string) (Player, error) {
	if len(name) == 0 {
		return Player{}, ErrPlayerNameEmpty
	}
	if len(name) > MaxPlayerNameLen {
		return Player{}, ErrPlayerNameTooLong
	}
	return Player{ID: PlayerID(uuid.NewString()), Name: name}, nil
}
