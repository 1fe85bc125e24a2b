package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// defaultTurnTimeout bounds how long a player may sit on their turn before
// the server acts for them.
const defaultTurnTimeout = 60 * time.Second

// codeAttempts bounds collision retries when minting a room code.
const codeAttempts = 16

// Config carries the server's dependencies. Zero values get working
// defaults: disabled logging, a 60s turn timeout, a discarding reporter and
// no metrics.
type Config struct {
	Log     slog.Logger
	RoomLog slog.Logger
	GameLog slog.Logger

	// TurnTimeout is how long a turn may idle before the server draws on
	// the player's behalf. <= 0 selects the default; timers are never
	// disabled in live rooms.
	TurnTimeout time.Duration

	// Seed, when non-zero, makes every game deterministic. For tests.
	Seed int64

	Reporter OutcomeReporter
	Metrics  *Metrics
}

// Server is the room registry and websocket entry point.
type Server struct {
	cfg      Config
	log      slog.Logger
	roomLog  slog.Logger
	gameLog  slog.Logger
	reporter OutcomeReporter
	metrics  *Metrics

	upgrader websocket.Upgrader

	roomsMu sync.RWMutex
	rooms   map[string]*Room
}

// NewServer builds a server from cfg, applying defaults.
func NewServer(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	if cfg.RoomLog == nil {
		cfg.RoomLog = cfg.Log
	}
	if cfg.GameLog == nil {
		cfg.GameLog = slog.Disabled
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NoopReporter{}
	}
	return &Server{
		cfg:      cfg,
		log:      cfg.Log,
		roomLog:  cfg.RoomLog,
		gameLog:  cfg.GameLog,
		reporter: cfg.Reporter,
		metrics:  cfg.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Game auth lives in update_auth, not the handshake.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rooms: make(map[string]*Room),
	}
}

// HandleWS upgrades the request and runs the session until the connection
// drops. It is the gin handler for the websocket endpoint.
func (srv *Server) HandleWS(c *gin.Context) {
	conn, err := srv.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		srv.log.Errorf("websocket upgrade: %v", err)
		return
	}

	s := newSession(srv, conn)
	srv.metrics.sessionOpened()
	defer srv.metrics.sessionClosed()

	srv.log.Debugf("session %s connected from %s", s.id, c.ClientIP())
	go s.writePump()
	s.readPump()
}

// createRoom mints a unique code and registers a fresh room.
func (srv *Server) createRoom() (*Room, error) {
	srv.roomsMu.Lock()
	defer srv.roomsMu.Unlock()

	for i := 0; i < codeAttempts; i++ {
		code, err := newRoomCode()
		if err != nil {
			return nil, err
		}
		if _, taken := srv.rooms[code]; taken {
			continue
		}
		r := newRoom(srv, code)
		srv.rooms[code] = r
		srv.metrics.roomOpened()
		return r, nil
	}
	return nil, errors.New("room code space exhausted")
}

// getRoom looks a room up by code.
func (srv *Server) getRoom(code string) *Room {
	srv.roomsMu.RLock()
	defer srv.roomsMu.RUnlock()
	return srv.rooms[code]
}

// removeRoom evicts a room from the registry. Rooms call this on their own
// termination; the registry lock is independent of room mutexes.
func (srv *Server) removeRoom(code string) {
	srv.roomsMu.Lock()
	if _, ok := srv.rooms[code]; ok {
		delete(srv.rooms, code)
		srv.metrics.roomClosed()
	}
	srv.roomsMu.Unlock()
}

// RoomCount reports the number of live rooms.
func (srv *Server) RoomCount() int {
	srv.roomsMu.RLock()
	defer srv.roomsMu.RUnlock()
	return len(srv.rooms)
}

// handleDisconnect routes a dropped connection to its room, if any. The
// seat survives for rejoin; the room decides whether it can keep existing.
func (srv *Server) handleDisconnect(s *session) {
	playerID, roomCode := s.identity()
	if roomCode == "" {
		return
	}
	if r := srv.getRoom(roomCode); r != nil {
		r.disconnect(playerID)
	}
	s.clearIdentity()
}
