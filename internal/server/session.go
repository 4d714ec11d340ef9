package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/wordpot/internal/domain"
	"github.com/dkeye/wordpot/internal/game"
	"github.com/dkeye/wordpot/internal/protocol"
)

// Session is one connected client: a reader goroutine decoding and
// dispatching requests inline, and a writer goroutine draining a bounded
// outgoing queue. Session state (identity, current room) is touched only
// from the reader side.
type Session struct {
	srv  *Server
	conn MessageConn

	out  chan *protocol.Message
	done chan struct{}
	stop sync.Once

	playerID   domain.PlayerID
	playerName string
	connected  bool
	roomID     domain.RoomID
}

func newSession(s *Server, conn MessageConn) *Session {
	return &Session{
		srv:  s,
		conn: conn,
		out:  make(chan *protocol.Message, s.queueCap),
		done: make(chan struct{}),
	}
}

func (sess *Session) run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sess.writeLoop()
	}()

	sess.readLoop()
	sess.shutdown()
	<-writerDone

	// A dropped connection is an implicit leave; remaining members get
	// the same PLAYER_LEFT as for an explicit one.
	sess.leaveRoom()
	if sess.connected {
		sess.srv.unregister(sess.playerID)
		log.Info().Str("module", "server.session").Str("player", string(sess.playerID)).Msg("session closed")
	}
}

// shutdown unblocks both loops and any producer parked on the queue. Room
// cleanup happens afterwards, outside the queue's critical paths.
func (sess *Session) shutdown() {
	sess.stop.Do(func() {
		close(sess.done)
		_ = sess.conn.Close()
	})
}

func (sess *Session) readLoop() {
	for {
		m, err := sess.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, protocol.ErrMalformed) {
				sess.sendError(err.Error())
				continue
			}
			return
		}
		sess.dispatch(m)
		if m.Type == protocol.KindDisconnect {
			return
		}
	}
}

func (sess *Session) writeLoop() {
	for {
		select {
		case <-sess.done:
			return
		case m := <-sess.out:
			if err := sess.conn.WriteMessage(m); err != nil {
				log.Debug().Str("module", "server.session").Err(err).Msg("write failed")
				sess.shutdown()
				return
			}
		}
	}
}

// send enqueues one outgoing message, blocking when the queue is full and
// giving up only when the session dies.
func (sess *Session) send(m *protocol.Message) {
	select {
	case sess.out <- m:
	case <-sess.done:
	}
}

func (sess *Session) sendError(description string) {
	sess.send(protocol.NewError(description))
}

func (sess *Session) dispatch(m *protocol.Message) {
	if m.Type == protocol.KindConnect {
		sess.handleConnect(m)
		return
	}
	if m.Type == protocol.KindDisconnect {
		return
	}
	if !sess.connected {
		sess.sendError("connect first")
		return
	}
	switch m.Type {
	case protocol.KindCreateRoom:
		sess.handleCreateRoom(m)
	case protocol.KindJoinRoom:
		sess.handleJoinRoom(m)
	case protocol.KindLeaveRoom:
		sess.leaveRoom()
	case protocol.KindPlayerReady:
		sess.handlePlayerReady()
	case protocol.KindGameStart:
		sess.handleGameStart()
	case protocol.KindPlayerMove:
		sess.handlePlayerMove(m)
	case protocol.KindTilesExchange:
		sess.handleTilesExchange(m)
	case protocol.KindChatMessage:
		sess.handleChat(m)
	default:
		sess.sendError(fmt.Sprintf("unsupported message type %q", m.Type))
	}
}

func (sess *Session) handleConnect(m *protocol.Message) {
	if sess.connected {
		sess.sendError("already connected")
		return
	}
	var p protocol.ConnectPayload
	if err := m.Bind(&p); err != nil {
		sess.sendError(err.Error())
		return
	}
	player, err := domain.NewPlayer(p.PlayerName)
	if err != nil {
		sess.sendError(err.Error())
		return
	}
	sess.playerID = player.ID
	sess.playerName = player.Name
	sess.connected = true
	sess.srv.register(sess)

	sess.send(protocol.NewConnectReply(player.ID))
	sess.send(protocol.NewRoomList(sess.srv.registry.ListJoinable()))
	log.Info().Str("module", "server.session").Str("player", string(player.ID)).Str("name", player.Name).Msg("player connected")
}

func (sess *Session) player() domain.Player {
	return domain.Player{ID: sess.playerID, Name: sess.playerName}
}

func (sess *Session) handleCreateRoom(m *protocol.Message) {
	var p protocol.CreateRoomPayload
	if err := m.Bind(&p); err != nil {
		sess.sendError(err.Error())
		return
	}
	if sess.roomID != "" {
		sess.sendError("leave your current room first")
		return
	}

	room := sess.srv.registry.CreateRoom(p.RoomName, p.MaxPlayers, sess.player())
	sess.roomID = room.ID()
	sess.send(protocol.NewRoomCreated(room.ID(), room.Name()))
	sess.send(protocol.NewRoomList(sess.srv.registry.ListJoinable()))
	sess.srv.broadcastRoomList(sess.playerID)
}

func (sess *Session) handleJoinRoom(m *protocol.Message) {
	var p protocol.JoinRoomPayload
	if err := m.Bind(&p); err != nil {
		sess.sendError(err.Error())
		return
	}
	if sess.roomID != "" {
		sess.sendError("leave your current room first")
		return
	}

	roomID := domain.RoomID(p.RoomID)
	// Gates exist only for real rooms; do not mint one for a made-up id.
	if _, ok := sess.srv.registry.Room(roomID); !ok {
		sess.sendError("unable to join room")
		return
	}
	gate := sess.srv.roomGate(roomID)
	gate.Lock()
	defer gate.Unlock()

	if !sess.srv.registry.JoinRoom(roomID, sess.player()) {
		if _, ok := sess.srv.registry.Room(roomID); !ok {
			// The room emptied out between the check and the join.
			sess.srv.dropGate(roomID)
		}
		sess.sendError("unable to join room")
		return
	}
	room, _ := sess.srv.registry.Room(roomID)
	sess.roomID = roomID
	sess.send(protocol.NewRoomJoined(room.ID(), room.Name(), room.Players()))
	sess.srv.broadcastToRoom(room, protocol.NewPlayerJoined(sess.playerID, sess.playerName).WithSender(sess.playerID), sess.playerID)
}

// leaveRoom handles both the explicit LEAVE_ROOM and the implicit leave on
// disconnect. Idempotent.
func (sess *Session) leaveRoom() {
	if sess.roomID == "" {
		return
	}
	roomID := sess.roomID
	sess.roomID = ""

	gate := sess.srv.roomGate(roomID)
	gate.Lock()
	defer gate.Unlock()

	res := sess.srv.registry.LeaveRoom(roomID, sess.playerID)
	if !res.WasMember {
		return
	}
	if res.Empty {
		sess.srv.dropGate(roomID)
		sess.srv.broadcastRoomList(sess.playerID)
		return
	}
	room, ok := sess.srv.registry.Room(roomID)
	if !ok {
		return
	}
	sess.srv.broadcastToRoom(room, protocol.NewPlayerLeft(sess.playerID).WithSender(sess.playerID), sess.playerID)
	if res.Over != nil {
		sess.srv.broadcastToRoom(room, protocol.NewGameOver(res.Over.WinnerID, res.Over.FinalScores), sess.playerID)
	}
}

func (sess *Session) room() (*game.Room, bool) {
	if sess.roomID == "" {
		sess.sendError("you are not in a room")
		return nil, false
	}
	room, ok := sess.srv.registry.Room(sess.roomID)
	if !ok {
		sess.sendError("room no longer exists")
		sess.roomID = ""
		return nil, false
	}
	return room, true
}

func (sess *Session) handlePlayerReady() {
	room, ok := sess.room()
	if !ok {
		return
	}
	gate := sess.srv.roomGate(room.ID())
	gate.Lock()
	defer gate.Unlock()

	all, err := room.SetReady(sess.playerID)
	if err != nil {
		sess.sendError(err.Error())
		return
	}
	sess.srv.broadcastToRoom(room, protocol.NewPlayerReady(sess.playerID).WithSender(sess.playerID), "")
	if all {
		if creator, ok := sess.srv.session(room.CreatorID()); ok {
			creator.send(protocol.NewAllPlayersReady())
		}
	}
}

func (sess *Session) handleGameStart() {
	room, ok := sess.room()
	if !ok {
		return
	}
	gate := sess.srv.roomGate(room.ID())
	gate.Lock()
	defer gate.Unlock()

	start, err := room.Start(sess.playerID)
	if err != nil {
		sess.sendError(err.Error())
		return
	}
	sess.srv.broadcastToRoom(room, protocol.NewGameStart(start.First), "")
	for pid, rack := range start.Racks {
		if member, ok := sess.srv.session(pid); ok {
			member.send(protocol.NewRackState(start.First, rack))
		}
	}
	// The room left the lobby; push the shrunk list.
	sess.srv.broadcastRoomList("")
}

func (sess *Session) handlePlayerMove(m *protocol.Message) {
	var p protocol.MovePayload
	if err := m.Bind(&p); err != nil {
		sess.sendError(err.Error())
		return
	}
	room, ok := sess.room()
	if !ok {
		return
	}
	gate := sess.srv.roomGate(room.ID())
	gate.Lock()
	defer gate.Unlock()

	move := game.Move{
		Word:       p.Word,
		Row:        p.Row,
		Col:        p.Col,
		Horizontal: p.Horizontal,
		TileIDs:    toTileIDs(p.TileIDs),
	}
	out, err := room.PlayMove(sess.playerID, move)
	if err != nil {
		sess.sendError(moveErrText(err))
		return
	}
	if !out.Result.Valid {
		sess.sendError(out.Result.Message)
		return
	}

	word := strings.ToUpper(strings.TrimSpace(p.Word))
	sess.srv.broadcastToRoom(room,
		protocol.NewMoveResult(sess.playerID, word, out.Result.Score, p.Row, p.Col, p.Horizontal).WithSender(sess.playerID), "")
	sess.send(protocol.NewRackState(out.Next, out.Rack))
	if out.Over != nil {
		sess.srv.broadcastToRoom(room, protocol.NewGameOver(out.Over.WinnerID, out.Over.FinalScores), "")
		return
	}
	sess.srv.broadcastToRoom(room, protocol.NewGameState(out.Next), "")
}

func (sess *Session) handleTilesExchange(m *protocol.Message) {
	var p protocol.ExchangePayload
	if err := m.Bind(&p); err != nil {
		sess.sendError(err.Error())
		return
	}
	room, ok := sess.room()
	if !ok {
		return
	}
	gate := sess.srv.roomGate(room.ID())
	gate.Lock()
	defer gate.Unlock()

	out, err := room.ExchangeTiles(sess.playerID, toTileIDs(p.Tiles))
	if err != nil {
		sess.sendError(moveErrText(err))
		return
	}
	sess.send(protocol.NewRackState(out.Next, out.Rack))
	sess.srv.broadcastToRoom(room, protocol.NewGameState(out.Next), "")
}

func (sess *Session) handleChat(m *protocol.Message) {
	var p protocol.ChatPayload
	if err := m.Bind(&p); err != nil {
		sess.sendError(err.Error())
		return
	}
	room, ok := sess.room()
	if !ok {
		return
	}
	chat := protocol.NewChat(fmt.Sprintf("%s: %s", sess.playerName, p.Content)).WithSender(sess.playerID)
	sess.srv.broadcastToRoom(room, chat, "")
}

func moveErrText(err error) string {
	if errors.Is(err, game.ErrNotYourTurn) {
		return "not your turn"
	}
	return err.Error()
}

func toTileIDs(ids []string) []domain.TileID {
	out := make([]domain.TileID, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.TileID(id))
	}
	return out
}
