package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/wordpot/internal/game"
	"github.com/dkeye/wordpot/internal/protocol"
)

type readItem struct {
	m   *protocol.Message
	err error
}

// pipeConn is an in-memory MessageConn driven by the test.
type pipeConn struct {
	in     chan readItem
	out    chan *protocol.Message
	closed chan struct{}
	once   sync.Once
}

func newPipeConn() *pipeConn {
	return &pipeConn{
		in:     make(chan readItem, 16),
		out:    make(chan *protocol.Message, 64),
		closed: make(chan struct{}),
	}
}

func (p *pipeConn) ReadMessage() (*protocol.Message, error) {
	select {
	case item, ok := <-p.in:
		if !ok {
			return nil, io.EOF
		}
		return item.m, item.err
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *pipeConn) WriteMessage(m *protocol.Message) error {
	// Round-trip through JSON so Data carries the same decoded types a real
	// client would see over the wire.
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var wire protocol.Message
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	select {
	case p.out <- &wire:
		return nil
	case <-p.closed:
		return errors.New("connection closed")
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

type client struct {
	conn *pipeConn
	done chan struct{}
}

func newClient(t *testing.T, srv *Server) *client {
	t.Helper()
	c := &client{conn: newPipeConn(), done: make(chan struct{})}
	go func() {
		defer close(c.done)
		srv.HandleConn(c.conn)
	}()
	t.Cleanup(func() {
		c.conn.Close()
		select {
		case <-c.done:
		case <-time.After(2 * time.Second):
			t.Error("session did not shut down")
		}
	})
	return c
}

func (c *client) send(kind protocol.Kind, data map[string]any) {
	m := protocol.New(kind)
	for k, v := range data {
		m.Set(k, v)
	}
	c.conn.in <- readItem{m: m}
}

func (c *client) recv(t *testing.T) *protocol.Message {
	t.Helper()
	select {
	case m := <-c.conn.out:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func (c *client) expect(t *testing.T, kind protocol.Kind) *protocol.Message {
	t.Helper()
	m := c.recv(t)
	if m.Type != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, m.Type, m.Data)
	}
	return m
}

func newTestServer() *Server {
	reg := game.NewRegistry(game.NewTilePool(21), game.NewValidator(game.NewWordList("CAT")))
	return New(reg, 16)
}

func connect(t *testing.T, c *client, name string) string {
	t.Helper()
	c.send(protocol.KindConnect, map[string]any{"playerName": name})
	reply := c.expect(t, protocol.KindConnect)
	id, _ := reply.Data["playerId"].(string)
	if id == "" {
		t.Fatalf("connect reply without playerId: %v", reply.Data)
	}
	c.expect(t, protocol.KindRoomList)
	return id
}

func TestSessionRequiresConnectFirst(t *testing.T) {
	srv := newTestServer()
	c := newClient(t, srv)

	c.send(protocol.KindCreateRoom, map[string]any{"roomName": "table", "maxPlayers": 2})
	m := c.expect(t, protocol.KindError)
	if m.Data["error"] != "connect first" {
		t.Fatalf("unexpected error %v", m.Data)
	}
}

func TestSessionRejectsBadConnectPayload(t *testing.T) {
	srv := newTestServer()
	c := newClient(t, srv)

	c.send(protocol.KindConnect, nil)
	c.expect(t, protocol.KindError)

	// The session survives the rejection.
	connect(t, c, "alice")
}

func TestSessionSurvivesMalformedMessage(t *testing.T) {
	srv := newTestServer()
	c := newClient(t, srv)

	c.conn.in <- readItem{err: fmt.Errorf("%w: broken frame", protocol.ErrMalformed)}
	c.expect(t, protocol.KindError)

	connect(t, c, "alice")
}

func TestLobbyAndGameFlow(t *testing.T) {
	srv := newTestServer()
	a := newClient(t, srv)
	b := newClient(t, srv)

	aliceID := connect(t, a, "alice")

	a.send(protocol.KindCreateRoom, map[string]any{"roomName": "table", "maxPlayers": 2})
	created := a.expect(t, protocol.KindCreateRoom)
	roomID, _ := created.Data["roomId"].(string)
	if roomID == "" {
		t.Fatalf("create reply without roomId: %v", created.Data)
	}
	a.expect(t, protocol.KindRoomList)

	bobID := connect(t, b, "bob")

	b.send(protocol.KindJoinRoom, map[string]any{"roomId": roomID})
	joined := b.expect(t, protocol.KindJoinRoom)
	if players, ok := joined.Data["players"].([]any); !ok || len(players) != 2 {
		t.Fatalf("join reply should list both members: %v", joined.Data)
	}
	if m := a.expect(t, protocol.KindPlayerJoined); m.Data["playerId"] != bobID {
		t.Fatalf("unexpected joiner %v", m.Data)
	}

	// Only the creator may start.
	b.send(protocol.KindGameStart, nil)
	b.expect(t, protocol.KindError)

	a.send(protocol.KindPlayerReady, nil)
	a.expect(t, protocol.KindPlayerReady)
	b.expect(t, protocol.KindPlayerReady)

	b.send(protocol.KindPlayerReady, nil)
	a.expect(t, protocol.KindPlayerReady)
	b.expect(t, protocol.KindPlayerReady)
	a.expect(t, protocol.KindAllReady)

	a.send(protocol.KindGameStart, nil)
	start := a.expect(t, protocol.KindGameStart)
	current, _ := start.Data["currentPlayer"].(string)
	if current != aliceID && current != bobID {
		t.Fatalf("opener %q is not a member", current)
	}
	if m := b.expect(t, protocol.KindGameStart); m.Data["currentPlayer"] != current {
		t.Fatalf("members disagree on the opener: %v", m.Data)
	}
	for _, c := range []*client{a, b} {
		state := c.expect(t, protocol.KindGameState)
		tiles, ok := state.Data["tiles"].([]any)
		if !ok || len(tiles) != game.RackSize {
			t.Fatalf("expected a private rack of %d tiles, got %v", game.RackSize, state.Data)
		}
		c.expect(t, protocol.KindRoomList)
	}

	// Moving out of turn is refused without touching the game.
	waiting := a
	if current == aliceID {
		waiting = b
	}
	waiting.send(protocol.KindPlayerMove, map[string]any{
		"word": "CAT", "row": 7, "col": 6, "horizontal": true,
		"tileIds": []string{"t1", "t2", "t3"},
	})
	if m := waiting.expect(t, protocol.KindError); m.Data["error"] != "not your turn" {
		t.Fatalf("unexpected error %v", m.Data)
	}

	b.send(protocol.KindChatMessage, map[string]any{"content": "hi"})
	for _, c := range []*client{a, b} {
		if m := c.expect(t, protocol.KindChatMessage); m.Data["content"] != "bob: hi" {
			t.Fatalf("unexpected chat %v", m.Data)
		}
	}

	// Leaving a two-player game ends it in favor of the remaining player.
	a.send(protocol.KindLeaveRoom, nil)
	if m := b.expect(t, protocol.KindPlayerLeft); m.Data["playerId"] != aliceID {
		t.Fatalf("unexpected leaver %v", m.Data)
	}
	if m := b.expect(t, protocol.KindGameOver); m.Data["winnerId"] != bobID {
		t.Fatalf("unexpected winner %v", m.Data)
	}
}

func TestJoinFullRoomRefused(t *testing.T) {
	srv := newTestServer()
	a := newClient(t, srv)
	b := newClient(t, srv)
	c := newClient(t, srv)

	connect(t, a, "alice")
	a.send(protocol.KindCreateRoom, map[string]any{"roomName": "small", "maxPlayers": 2})
	roomID, _ := a.expect(t, protocol.KindCreateRoom).Data["roomId"].(string)
	a.expect(t, protocol.KindRoomList)

	connect(t, b, "bob")
	b.send(protocol.KindJoinRoom, map[string]any{"roomId": roomID})
	b.expect(t, protocol.KindJoinRoom)
	a.expect(t, protocol.KindPlayerJoined)

	connect(t, c, "carol")
	c.send(protocol.KindJoinRoom, map[string]any{"roomId": roomID})
	if m := c.expect(t, protocol.KindError); m.Data["error"] != "unable to join room" {
		t.Fatalf("unexpected error %v", m.Data)
	}
}

func TestJoinMissingRoomMintsNoGate(t *testing.T) {
	srv := newTestServer()
	c := newClient(t, srv)
	connect(t, c, "alice")

	c.send(protocol.KindJoinRoom, map[string]any{"roomId": "no-such-room"})
	if m := c.expect(t, protocol.KindError); m.Data["error"] != "unable to join room" {
		t.Fatalf("unexpected error %v", m.Data)
	}

	srv.mu.RLock()
	gates := len(srv.gates)
	srv.mu.RUnlock()
	if gates != 0 {
		t.Fatalf("made-up room ids must not accumulate gates, got %d", gates)
	}
}

func TestDisconnectLeavesRoom(t *testing.T) {
	srv := newTestServer()
	a := newClient(t, srv)
	b := newClient(t, srv)

	connect(t, a, "alice")
	a.send(protocol.KindCreateRoom, map[string]any{"roomName": "table", "maxPlayers": 2})
	roomID, _ := a.expect(t, protocol.KindCreateRoom).Data["roomId"].(string)
	a.expect(t, protocol.KindRoomList)

	bobID := connect(t, b, "bob")
	b.send(protocol.KindJoinRoom, map[string]any{"roomId": roomID})
	b.expect(t, protocol.KindJoinRoom)
	a.expect(t, protocol.KindPlayerJoined)

	b.send(protocol.KindDisconnect, nil)
	select {
	case <-b.done:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect did not end the session")
	}
	if m := a.expect(t, protocol.KindPlayerLeft); m.Data["playerId"] != bobID {
		t.Fatalf("unexpected leaver %v", m.Data)
	}
}
