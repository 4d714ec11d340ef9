package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Bind decodes a message's data map into a typed payload struct and
// validates it. The round trip through JSON keeps the payload structs as
// the single place where wire key names are spelled.
func (m *Message) Bind(dst any) error {
	raw, err := json.Marshal(m.Data)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

type ConnectPayload struct {
	PlayerName string `json:"playerName" validate:"required,max=36"`
}

type CreateRoomPayload struct {
	RoomName   string `json:"roomName" validate:"required,max=64"`
	MaxPlayers int    `json:"maxPlayers" validate:"required,min=2,max=4"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

type MovePayload struct {
	Word       string   `json:"word" validate:"required"`
	Row        int      `json:"row" validate:"min=0,max=14"`
	Col        int      `json:"col" validate:"min=0,max=14"`
	Horizontal bool     `json:"horizontal"`
	TileIDs    []string `json:"tileIds" validate:"required"`
}

type ExchangePayload struct {
	Tiles []string `json:"tiles" validate:"required,min=1"`
}

type ChatPayload struct {
	Content string `json:"content" validate:"required,max=512"`
}
