package domain

type RoomID string

// RoomInfo is the lobby-facing summary of a room.
type RoomInfo struct {
	ID         RoomID `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
}
