package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkeye/wordpot/internal/config"
	"github.com/dkeye/wordpot/internal/game"
	"github.com/dkeye/wordpot/internal/protocol"
	"github.com/dkeye/wordpot/internal/server"
)

func newGameServer() (*server.Server, *game.Registry) {
	reg := game.NewRegistry(game.NewTilePool(31), game.NewValidator(game.NewWordList("CAT")))
	return server.New(reg, 16), reg
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebsocketEndpointRoundTrip(t *testing.T) {
	srv, reg := newGameServer()
	cfg := &config.Config{Mode: "release", ReadLimit: 32768}
	ts := httptest.NewServer(SetupRouter(cfg, srv, reg))
	defer ts.Close()

	conn := dialWS(t, ts)

	out := protocol.New(protocol.KindConnect).Set("playerName", "alice")
	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	reply, err := protocol.Unmarshal(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Type != protocol.KindConnect {
		t.Fatalf("expected CONNECT reply, got %s", reply.Type)
	}
	if id, _ := reply.Data["playerId"].(string); id == "" {
		t.Fatalf("connect reply without playerId: %v", reply.Data)
	}

	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	list, err := protocol.Unmarshal(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Type != protocol.KindRoomList {
		t.Fatalf("expected ROOM_LIST, got %s", list.Type)
	}
}

func TestWebsocketKeepaliveDropsSilentClients(t *testing.T) {
	srv, _ := newGameServer()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go srv.HandleConn(newWSConn(ws, 20*time.Millisecond, 100*time.Millisecond))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	conn := dialWS(t, ts)

	// Swallow pings instead of answering, like a client whose network died.
	pinged := make(chan struct{}, 1)
	conn.SetPingHandler(func(string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return nil
	})

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the server to drop a client that never pongs")
	}
	select {
	case <-pinged:
	default:
		t.Fatal("server never pinged the client")
	}
}
