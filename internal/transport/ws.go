// Package transport exposes the websocket and HTTP lobby surface on top of
// the same session layer the TCP listener uses.
package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkeye/wordpot/internal/protocol"
)

const (
	writeWait = 5 * time.Second
	// pongWait bounds how long a silent client is kept; pingPeriod must be
	// shorter so at least one ping fits in every pong window.
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts a websocket to the session layer's MessageConn: one
// envelope per text message, framing handled by the websocket protocol
// itself. A ping ticker keeps the read deadline honest so dead clients
// are torn down instead of lingering until the next write.
type wsConn struct {
	c    *websocket.Conn
	done chan struct{}
	once sync.Once
}

func newWSConn(c *websocket.Conn, pingEvery, pongWithin time.Duration) *wsConn {
	w := &wsConn{c: c, done: make(chan struct{})}
	_ = c.SetReadDeadline(time.Now().Add(pongWithin))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWithin))
	})
	go w.keepalive(pingEvery)
	return w
}

func (w *wsConn) keepalive(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-t.C:
			// WriteControl is safe alongside the session's writer.
			if err := w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (w *wsConn) ReadMessage() (*protocol.Message, error) {
	for {
		mt, data, err := w.c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt != websocket.TextMessage {
			continue
		}
		return protocol.Unmarshal(data)
	}
}

func (w *wsConn) WriteMessage(m *protocol.Message) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := w.c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.c.WriteMessage(websocket.TextMessage, raw)
}

func (w *wsConn) Close() error {
	w.once.Do(func() { close(w.done) })
	return w.c.Close()
}
