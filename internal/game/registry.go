package game

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/wordpot/internal/domain"
)

// Registry owns the live rooms. Creation, join, leave and listing are safe
// under concurrent sessions; a room vanishes the moment its last member
// leaves.
type Registry struct {
	mu        sync.RWMutex
	rooms     map[domain.RoomID]*Room
	pool      *TilePool
	validator *Validator
}

func NewRegistry(pool *TilePool, v *Validator) *Registry {
	return &Registry{
		rooms:     make(map[domain.RoomID]*Room),
		pool:      pool,
		validator: v,
	}
}

// CreateRoom always succeeds and admits the creator as its first member.
func (reg *Registry) CreateRoom(name string, maxPlayers int, creator domain.Player) *Room {
	room := NewRoom(name, maxPlayers, creator, reg.pool, reg.validator)
	reg.mu.Lock()
	reg.rooms[room.ID()] = room
	reg.mu.Unlock()
	log.Info().Str("module", "game.registry").Str("room", string(room.ID())).Str("name", name).Msg("room registered")
	return room
}

// JoinRoom reports false when the room is missing, full or already active.
func (reg *Registry) JoinRoom(roomID domain.RoomID, p domain.Player) bool {
	room, ok := reg.Room(roomID)
	if !ok {
		return false
	}
	return room.AddPlayer(p) == nil
}

// LeaveRoom removes the player and destroys the room when it empties.
// Leaving a room one is not in is a no-op.
func (reg *Registry) LeaveRoom(roomID domain.RoomID, playerID domain.PlayerID) LeaveResult {
	room, ok := reg.Room(roomID)
	if !ok {
		return LeaveResult{}
	}
	res := room.RemovePlayer(playerID)
	if res.Empty {
		reg.mu.Lock()
		if r, ok := reg.rooms[roomID]; ok && r.PlayerCount() == 0 {
			delete(reg.rooms, roomID)
		}
		reg.mu.Unlock()
		log.Info().Str("module", "game.registry").Str("room", string(roomID)).Msg("room destroyed")
	}
	return res
}

func (reg *Registry) Room(roomID domain.RoomID) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[roomID]
	return room, ok
}

// ListJoinable returns lobby summaries for rooms that are forming and not
// full, in the wire shape "id - name (count/max)".
func (reg *Registry) ListJoinable() []string {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if !r.CanJoin() {
			continue
		}
		info := r.Info()
		out = append(out, fmt.Sprintf("%s - %s (%d/%d)", info.ID, info.Name, info.Players, info.MaxPlayers))
	}
	return out
}

// JoinableRooms returns the same set as structured summaries for the HTTP
// lobby endpoint.
func (reg *Registry) JoinableRooms() []domain.RoomInfo {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	out := make([]domain.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		if r.CanJoin() {
			out = append(out, r.Info())
		}
	}
	return out
}
