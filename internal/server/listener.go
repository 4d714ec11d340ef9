package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/wordpot/internal/protocol"
)

// tcpConn frames a raw TCP stream with the newline-delimited JSON codec.
type tcpConn struct {
	c   net.Conn
	dec *protocol.Decoder
	enc *protocol.Encoder
}

func newTCPConn(c net.Conn, maxMessageSize int) *tcpConn {
	return &tcpConn{
		c:   c,
		dec: protocol.NewDecoder(c, maxMessageSize),
		enc: protocol.NewEncoder(c),
	}
}

func (t *tcpConn) ReadMessage() (*protocol.Message, error) { return t.dec.Next() }

func (t *tcpConn) WriteMessage(m *protocol.Message) error { return t.enc.Encode(m) }

func (t *tcpConn) Close() error { return t.c.Close() }

// Listener accepts TCP connections and runs one session per connection.
type Listener struct {
	srv            *Server
	addr           string
	maxMessageSize int
}

func NewListener(srv *Server, addr string, maxMessageSize int) *Listener {
	return &Listener{srv: srv, addr: addr, maxMessageSize: maxMessageSize}
}

// Run blocks until ctx is canceled or the listener fails.
func (l *Listener) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", l.addr, err)
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	log.Info().Str("module", "server.listener").Str("addr", l.addr).Msg("tcp listener started")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Error().Str("module", "server.listener").Err(err).Msg("accept failed")
			continue
		}
		log.Debug().Str("module", "server.listener").Str("remote", conn.RemoteAddr().String()).Msg("connection accepted")
		go l.srv.HandleConn(newTCPConn(conn, l.maxMessageSize))
	}
}
