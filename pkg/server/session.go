package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum inbound message size.
	maxMessageSize = 8 << 10
	// Outbound queue depth per session.
	sendQueueSize = 64
)

// eventSink is the delivery half of a connection. Rooms hold sinks rather
// than sessions so tests can substitute a recorder.
type eventSink interface {
	sendEvent(ev Event)
}

// session wraps one websocket connection: a buffered outbound queue with a
// write pump, a read pump feeding the server dispatcher, and the
// per-connection bag of opaque data.
type session struct {
	id   string
	srv  *Server
	conn *websocket.Conn
	log  slog.Logger

	out  chan []byte
	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	userID   string
	playerID string
	roomCode string
	name     string
}

func newSession(srv *Server, conn *websocket.Conn) *session {
	return &session{
		id:   uuid.NewString(),
		srv:  srv,
		conn: conn,
		log:  srv.log,
		out:  make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

// sendEvent queues an event for delivery. Sends are best-effort: a slow or
// dead client drops frames and reconciles on the next state_update or by
// rejoining.
func (s *session) sendEvent(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Errorf("session %s: marshal %s: %v", s.id, ev.Type, err)
		return
	}
	select {
	case <-s.done:
	case s.out <- payload:
	default:
		s.log.Warnf("session %s: send queue full, dropping %s", s.id, ev.Type)
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// readPump reads envelopes off the socket and hands them to the server
// dispatcher. It owns the connection's read side and exits on any error,
// triggering disconnect handling.
func (s *session) readPump() {
	defer func() {
		s.srv.handleDisconnect(s)
		s.close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debugf("session %s: read error: %v", s.id, err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "malformed event"}})
			continue
		}
		s.srv.dispatch(s, env)
	}
}

// writePump drains the outbound queue and keeps the connection alive with
// pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case payload := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// Bag accessors. The bag holds the connection's opaque data: user_id,
// player_id, room_code, name.

func (s *session) setIdentity(playerID, roomCode, name string) {
	s.mu.Lock()
	s.playerID = playerID
	s.roomCode = roomCode
	s.name = name
	s.mu.Unlock()
}

func (s *session) clearIdentity() {
	s.mu.Lock()
	s.playerID = ""
	s.roomCode = ""
	s.name = ""
	s.mu.Unlock()
}

func (s *session) identity() (playerID, roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID, s.roomCode
}

func (s *session) setUserID(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}

func (s *session) getUserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}
