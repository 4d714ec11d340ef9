// Package protocol defines the wire envelope, the closed set of message
// kinds, and the newline-delimited JSON codec shared by the TCP and
// websocket transports.
package protocol

import (
	"time"

	"github.com/dkeye/wordpot/internal/domain"
)

// Kind is the closed enum of envelope types.
type Kind string

const (
	KindConnect       Kind = "CONNECT"
	KindCreateRoom    Kind = "CREATE_ROOM"
	KindJoinRoom      Kind = "JOIN_ROOM"
	KindLeaveRoom     Kind = "LEAVE_ROOM"
	KindPlayerJoined  Kind = "PLAYER_JOINED"
	KindPlayerLeft    Kind = "PLAYER_LEFT"
	KindPlayerReady   Kind = "PLAYER_READY"
	KindAllReady      Kind = "ALL_PLAYERS_READY"
	KindGameStart     Kind = "GAME_START"
	KindGameState     Kind = "GAME_STATE"
	KindPlayerMove    Kind = "PLAYER_MOVE"
	KindTilesExchange Kind = "TILES_EXCHANGE"
	KindChatMessage   Kind = "CHAT_MESSAGE"
	KindRoomList      Kind = "ROOM_LIST"
	KindGameOver      Kind = "GAME_OVER"
	KindError         Kind = "ERROR"
	KindDisconnect    Kind = "DISCONNECT"
)

var knownKinds = map[Kind]struct{}{
	KindConnect: {}, KindCreateRoom: {}, KindJoinRoom: {}, KindLeaveRoom: {},
	KindPlayerJoined: {}, KindPlayerLeft: {}, KindPlayerReady: {}, KindAllReady: {},
	KindGameStart: {}, KindGameState: {}, KindPlayerMove: {}, KindTilesExchange: {},
	KindChatMessage: {}, KindRoomList: {}, KindGameOver: {}, KindError: {},
	KindDisconnect: {},
}

func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// Message is one discrete protocol event. Immutable by convention after
// construction; it never outlives the connection that carried it.
type Message struct {
	Type      Kind           `json:"type"`
	Data      map[string]any `json:"data"`
	Sender    string         `json:"sender,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// New builds an envelope of the given kind, stamped now.
func New(kind Kind) *Message {
	return &Message{
		Type:      kind,
		Data:      make(map[string]any),
		Timestamp: time.Now().UnixMilli(),
	}
}

// Set adds one payload key, chainable.
func (m *Message) Set(key string, value any) *Message {
	m.Data[key] = value
	return m
}

// WithSender stamps the originating player id.
func (m *Message) WithSender(id domain.PlayerID) *Message {
	m.Sender = string(id)
	return m
}

// TileInfo is the wire shape of a rack tile.
type TileInfo struct {
	ID     string `json:"id"`
	Letter string `json:"letter"`
	Points int    `json:"points"`
	Blank  bool   `json:"blank,omitempty"`
}

func TilesInfo(tiles []domain.Tile) []TileInfo {
	out := make([]TileInfo, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, TileInfo{
			ID:     string(t.ID),
			Letter: string(t.Letter),
			Points: t.Points,
			Blank:  t.Blank,
		})
	}
	return out
}

// Reply and broadcast constructors, one per wire shape.

func NewConnectReply(playerID domain.PlayerID) *Message {
	return New(KindConnect).Set("playerId", string(playerID)).Set("status", "connected")
}

func NewRoomCreated(roomID domain.RoomID, roomName string) *Message {
	return New(KindCreateRoom).Set("roomId", string(roomID)).Set("roomName", roomName)
}

func NewRoomJoined(roomID domain.RoomID, roomName string, players []domain.PlayerID) *Message {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, string(p))
	}
	return New(KindJoinRoom).Set("roomId", string(roomID)).Set("roomName", roomName).Set("players", ids)
}

func NewPlayerJoined(playerID domain.PlayerID, playerName string) *Message {
	return New(KindPlayerJoined).Set("playerId", string(playerID)).Set("playerName", playerName)
}

func NewPlayerLeft(playerID domain.PlayerID) *Message {
	return New(KindPlayerLeft).Set("playerId", string(playerID))
}

func NewPlayerReady(playerID domain.PlayerID) *Message {
	return New(KindPlayerReady).Set("playerId", string(playerID))
}

func NewAllPlayersReady() *Message {
	return New(KindAllReady)
}

func NewGameStart(currentPlayer domain.PlayerID) *Message {
	return New(KindGameStart).Set("currentPlayer", string(currentPlayer))
}

func NewGameState(currentPlayer domain.PlayerID) *Message {
	return New(KindGameState).Set("currentPlayer", string(currentPlayer))
}

// NewRackState is the private per-player view of a dealt or refilled rack.
func NewRackState(currentPlayer domain.PlayerID, rack []domain.Tile) *Message {
	return NewGameState(currentPlayer).Set("tiles", TilesInfo(rack))
}

func NewMoveResult(playerID domain.PlayerID, word string, score, row, col int, horizontal bool) *Message {
	return New(KindPlayerMove).
		Set("playerId", string(playerID)).
		Set("word", word).
		Set("score", score).
		Set("row", row).
		Set("col", col).
		Set("horizontal", horizontal)
}

func NewRoomList(rooms []string) *Message {
	return New(KindRoomList).Set("rooms", rooms)
}

func NewGameOver(winnerID domain.PlayerID, finalScores map[domain.PlayerID]int) *Message {
	scores := make(map[string]int, len(finalScores))
	for id, s := range finalScores {
		scores[string(id)] = s
	}
	return New(KindGameOver).Set("winnerId", string(winnerID)).Set("finalScores", scores)
}

func NewChat(content string) *Message {
	return New(KindChatMessage).Set("content", content)
}

func NewError(description string) *Message {
	return New(KindError).Set("error", description)
}
