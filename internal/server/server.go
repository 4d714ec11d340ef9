// Package server runs the per-connection sessions and fans room events out
// to their members.
package server

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/wordpot/internal/domain"
	"github.com/dkeye/wordpot/internal/game"
	"github.com/dkeye/wordpot/internal/protocol"
)

const defaultQueueSize = 100

// MessageConn is one framed, ordered message stream. The TCP codec and the
// websocket adapter both satisfy it.
type MessageConn interface {
	ReadMessage() (*protocol.Message, error)
	WriteMessage(*protocol.Message) error
	Close() error
}

// Server tracks connected sessions and owns the per-room ordering gates.
type Server struct {
	mu       sync.RWMutex
	sessions map[domain.PlayerID]*Session
	gates    map[domain.RoomID]*sync.Mutex
	registry *game.Registry
	queueCap int
}

func New(reg *game.Registry, queueCap int) *Server {
	if queueCap <= 0 {
		queueCap = defaultQueueSize
	}
	return &Server{
		sessions: make(map[domain.PlayerID]*Session),
		gates:    make(map[domain.RoomID]*sync.Mutex),
		registry: reg,
		queueCap: queueCap,
	}
}

// HandleConn runs a session to completion. Call it once per accepted
// connection, on its own goroutine.
func (s *Server) HandleConn(conn MessageConn) {
	newSession(s, conn).run()
}

func (s *Server) register(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.playerID] = sess
	s.mu.Unlock()
}

func (s *Server) unregister(id domain.PlayerID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) session(id domain.PlayerID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// roomGate returns the ordering lock of a room. Handlers hold it across a
// room mutation and the broadcasts it triggers, so every member observes
// broadcasts in the order the mutations were applied.
func (s *Server) roomGate(id domain.RoomID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[id]
	if !ok {
		g = &sync.Mutex{}
		s.gates[id] = g
	}
	return g
}

func (s *Server) dropGate(id domain.RoomID) {
	s.mu.Lock()
	delete(s.gates, id)
	s.mu.Unlock()
}

// broadcastToRoom enqueues a message for every member of the room except
// exclude. Enqueueing blocks on a full queue (backpressure, not loss).
func (s *Server) broadcastToRoom(room *game.Room, m *protocol.Message, exclude domain.PlayerID) {
	for _, pid := range room.Players() {
		if pid == exclude {
			continue
		}
		if sess, ok := s.session(pid); ok {
			sess.send(m)
		}
	}
}

// broadcastRoomList pushes the current lobby to every connected session
// except exclude.
func (s *Server) broadcastRoomList(exclude domain.PlayerID) {
	m := protocol.NewRoomList(s.registry.ListJoinable())
	s.mu.RLock()
	targets := make([]*Session, 0, len(s.sessions))
	for pid, sess := range s.sessions {
		if pid != exclude {
			targets = append(targets, sess)
		}
	}
	s.mu.RUnlock()
	for _, sess := range targets {
		sess.send(m)
	}
	log.Debug().Str("module", "server").Int("sessions", len(targets)).Msg("room list pushed")
}
