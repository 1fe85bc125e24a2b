package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/vvidal/powuno/pkg/statemachine"
	"github.com/vvidal/powuno/pkg/uno"
)

// Reasons surfaced for lobby rejections.
const (
	reasonRoomFull       = "Room full"
	reasonGameInProgress = "Game in progress"
	reasonNameInUse      = "Name in use"
	reasonRoomNotFound   = "Room not found"
	reasonNotHost        = "Only the host can start the game"
	reasonTooFewPlayers  = "Need at least 2 players to start"
)

// seat is one membership slot in a room. Seats survive disconnects so a
// player can rejoin by name; the sink is rebound on reconnect.
type seat struct {
	playerID  string
	name      string
	userID    string
	sink      eventSink
	connected bool
	joinedAt  time.Time
}

// Room is the coordinator for one game room. It owns its engine exclusively:
// every operation runs to completion under the room mutex before the next
// begins, which is the serialization the engine relies on. Transport sends
// are buffered and non-blocking, so holding the mutex across emission is
// safe.
type Room struct {
	mu      sync.Mutex
	log     slog.Logger
	gameLog slog.Logger
	srv     *Server

	code   string
	hostID string
	seats  []*seat
	game   *uno.Game

	sm *statemachine.Machine[Room]

	turnTimeout time.Duration
	seed        int64
	turnTimer   *time.Timer
	timerGen    int

	createdAt time.Time
}

// Room lifecycle states.

func roomStateWaiting(r *Room) statemachine.StateFn[Room] {
	return roomStateWaiting
}

func roomStateInProgress(r *Room) statemachine.StateFn[Room] {
	if r.game == nil {
		return roomStateWaiting
	}
	return roomStateInProgress
}

func newRoom(srv *Server, code string) *Room {
	r := &Room{
		log:         srv.roomLog,
		gameLog:     srv.gameLog,
		srv:         srv,
		code:        code,
		turnTimeout: srv.cfg.TurnTimeout,
		seed:        srv.cfg.Seed,
		createdAt:   time.Now(),
	}
	r.sm = statemachine.New(r, roomStateWaiting)
	return r
}

func (r *Room) status() string {
	if r.sm.Is(roomStateInProgress) {
		return "in-progress"
	}
	return "waiting"
}

// addHost seats the creating player and acks with the room code.
func (r *Room) addHost(snk eventSink, userID, name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := &seat{
		playerID:  uuid.NewString(),
		name:      name,
		userID:    userID,
		sink:      snk,
		connected: true,
		joinedAt:  time.Now(),
	}
	r.seats = append(r.seats, st)
	r.hostID = st.playerID

	snk.sendEvent(Event{Type: EventRoomCreated, Data: RoomCreatedPayload{
		RoomCode: r.code,
		PlayerID: st.playerID,
	}})
	snk.sendEvent(Event{Type: EventPlayerIdentified, Data: PlayerIdentifiedPayload{PlayerID: st.playerID}})
	r.broadcastLobby()

	r.log.Infof("room %s created by %s", r.code, name)
	return st.playerID
}

// join admits a new player or rebinds a disconnected seat with a
// case-insensitive name match. The ack carries the specific rejection
// reason on failure.
func (r *Room) join(snk eventSink, userID, name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Rejoin path first: a disconnected seat with this name gets its
	// connection back, hand and power state included.
	for _, st := range r.seats {
		if !st.connected && strings.EqualFold(st.name, name) {
			st.sink = snk
			st.connected = true
			if userID != "" {
				st.userID = userID
			}
			snk.sendEvent(Event{Type: EventJoinResult, Data: JoinResultPayload{
				Success:  true,
				RoomCode: r.code,
				PlayerID: st.playerID,
			}})
			snk.sendEvent(Event{Type: EventPlayerIdentified, Data: PlayerIdentifiedPayload{PlayerID: st.playerID}})
			if r.game != nil {
				snk.sendEvent(Event{Type: EventGameStarted, Data: GameStartedPayload{
					PublicState: r.game.PublicState(r.code, r.hostID),
					Hand:        r.game.Hand(st.playerID),
				}})
				snk.sendEvent(Event{Type: EventPowerStateUpdate, Data: r.game.PowerState(st.playerID)})
			} else {
				r.broadcastLobby()
			}
			r.log.Infof("room %s: %s rejoined", r.code, st.name)
			return st.playerID, true
		}
	}

	reject := func(reason string) (string, bool) {
		snk.sendEvent(Event{Type: EventJoinResult, Data: JoinResultPayload{Success: false, Reason: reason}})
		return "", false
	}

	if r.sm.Is(roomStateInProgress) {
		return reject(reasonGameInProgress)
	}
	if len(r.seats) >= uno.MaxPlayers {
		return reject(reasonRoomFull)
	}
	for _, st := range r.seats {
		if strings.EqualFold(st.name, name) {
			return reject(reasonNameInUse)
		}
	}

	st := &seat{
		playerID:  uuid.NewString(),
		name:      name,
		userID:    userID,
		sink:      snk,
		connected: true,
		joinedAt:  time.Now(),
	}
	r.seats = append(r.seats, st)

	snk.sendEvent(Event{Type: EventJoinResult, Data: JoinResultPayload{
		Success:  true,
		RoomCode: r.code,
		PlayerID: st.playerID,
	}})
	snk.sendEvent(Event{Type: EventPlayerIdentified, Data: PlayerIdentifiedPayload{PlayerID: st.playerID}})
	r.broadcastLobby()

	r.log.Infof("room %s: %s joined (%d seats)", r.code, name, len(r.seats))
	return st.playerID, true
}

// startGame gates on host and player count, builds the engine, and delivers
// each player their private opening state.
func (r *Room) startGame(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.seatByID(playerID)
	if st == nil {
		return
	}
	if playerID != r.hostID {
		r.sendError(st, reasonNotHost)
		return
	}
	if r.sm.Is(roomStateInProgress) {
		r.sendError(st, reasonGameInProgress)
		return
	}
	if len(r.seats) < uno.MinPlayers {
		r.sendError(st, reasonTooFewPlayers)
		return
	}

	players := make([]*uno.Player, len(r.seats))
	for i, s := range r.seats {
		players[i] = uno.NewPlayer(s.playerID, s.name)
	}
	game, err := uno.NewGame(uno.GameConfig{
		Players: players,
		Log:     r.gameLog,
		Seed:    r.seed,
	})
	if err != nil {
		r.sendError(st, err.Error())
		return
	}
	if err := game.Start(); err != nil {
		r.sendError(st, err.Error())
		return
	}
	r.game = game
	r.sm.Dispatch(roomStateInProgress)

	state := game.PublicState(r.code, r.hostID)
	for _, s := range r.seats {
		if s.sink == nil {
			continue
		}
		s.sink.sendEvent(Event{Type: EventGameStarted, Data: GameStartedPayload{
			PublicState: state,
			Hand:        game.Hand(s.playerID),
		}})
		s.sink.sendEvent(Event{Type: EventPowerStateUpdate, Data: game.PowerState(s.playerID)})
	}
	// Opening hands were delivered with game_started; the deal's dirty
	// marks are already satisfied.
	game.DrainHandSyncs()

	r.scheduleTurnTimer()
	r.srv.metrics.gameStarted()
	r.log.Infof("room %s: game started with %d players", r.code, len(r.seats))
}

// Inbound game actions. Each validates through the engine and either
// answers the origin with an error or runs the post-mutation pipeline.

func (r *Room) playCard(playerID string, req PlayCardRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, prev := r.beginAction(playerID)
	if st == nil {
		return
	}
	if _, err := r.game.PlayCard(playerID, req.CardID, req.ChosenColor); err != nil {
		r.sendError(st, err.Error())
		return
	}
	r.afterMutation(playerID, prev)
}

func (r *Room) drawCard(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, prev := r.beginAction(playerID)
	if st == nil {
		return
	}
	if _, err := r.game.Draw(playerID); err != nil {
		r.sendError(st, err.Error())
		return
	}
	r.afterMutation(playerID, prev)
}

func (r *Room) drawPowerCard(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, prev := r.beginAction(playerID)
	if st == nil {
		return
	}
	if _, err := r.game.DrawPowerCard(playerID); err != nil {
		r.sendError(st, err.Error())
		return
	}
	r.afterMutation(playerID, prev)
}

func (r *Room) playPowerCard(playerID string, req PlayPowerCardRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, prev := r.beginAction(playerID)
	if st == nil {
		return
	}
	play := uno.PowerPlay{
		CardID:         req.CardID,
		TargetPlayerID: req.TargetPlayerID,
		Color:          req.Color,
	}
	if _, err := r.game.PlayPowerCard(playerID, play); err != nil {
		r.sendError(st, err.Error())
		return
	}
	r.afterMutation(playerID, prev)
}

// beginAction resolves the acting seat and captures pre-mutation hand
// counts for rush detection. Callers hold the room mutex.
func (r *Room) beginAction(playerID string) (*seat, map[string]int) {
	st := r.seatByID(playerID)
	if st == nil {
		return nil, nil
	}
	if r.game == nil {
		r.sendError(st, uno.ErrGameNotStarted.Error())
		return nil, nil
	}
	return st, r.game.HandCounts()
}

// afterMutation is the fixed post-mutation pipeline: hand syncs, actor
// power state, rush alerts, public state, then either game end or a fresh
// turn timer. Callers hold the room mutex.
func (r *Room) afterMutation(actorID string, prev map[string]int) {
	for _, id := range r.game.DrainHandSyncs() {
		if s := r.seatByID(id); s != nil && s.sink != nil {
			s.sink.sendEvent(Event{Type: EventHandUpdate, Data: HandUpdatePayload{Cards: r.game.Hand(id)}})
		}
	}

	if s := r.seatByID(actorID); s != nil && s.sink != nil {
		s.sink.sendEvent(Event{Type: EventPowerStateUpdate, Data: r.game.PowerState(actorID)})
	}

	counts := r.game.HandCounts()
	for _, id := range r.game.PlayerIDs() {
		if counts[id] == 1 && prev[id] != 1 {
			r.broadcast(Event{Type: EventRushAlert, Data: RushAlertPayload{
				PlayerID:   id,
				PlayerName: r.game.PlayerName(id),
			}})
		}
	}

	r.broadcast(Event{Type: EventStateUpdate, Data: r.game.PublicState(r.code, r.hostID)})

	if winner := r.game.Winner(); winner != "" {
		r.finishGame(winner)
		return
	}
	r.scheduleTurnTimer()
}

// finishGame broadcasts the result, reports outcomes, and returns the room
// to the lobby. Callers hold the room mutex.
func (r *Room) finishGame(winnerID string) {
	scores := r.game.Scores()
	r.broadcast(Event{Type: EventGameEnded, Data: GameEndedPayload{
		WinnerID: winnerID,
		Scores:   scores,
	}})

	outcomes := make([]Outcome, 0, len(r.seats))
	for _, st := range r.seats {
		if st.userID == "" {
			continue
		}
		outcomes = append(outcomes, Outcome{
			UserID: st.userID,
			DidWin: st.playerID == winnerID,
		})
	}
	if len(outcomes) > 0 {
		reporter := r.srv.reporter
		code := r.code
		rlog := r.log
		// Reporting is I/O against the external stats collaborator; it
		// must never block or fail game cleanup.
		go func() {
			if err := reporter.ReportOutcomes(context.Background(), code, outcomes); err != nil {
				rlog.Errorf("room %s: outcome report failed: %v", code, err)
			}
		}()
	}

	r.game = nil
	r.sm.Dispatch(roomStateWaiting)
	r.cancelTurnTimer()
	r.srv.metrics.gameCompleted()
	r.broadcastLobby()
	r.log.Infof("room %s: game ended, winner %s", r.code, winnerID)
}

// leave removes the player's seat entirely.
func (r *Room) leave(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, st := range r.seats {
		if st.playerID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	leaving := r.seats[idx]
	r.seats = append(r.seats[:idx], r.seats[idx+1:]...)
	r.log.Infof("room %s: %s left", r.code, leaving.name)

	if len(r.seats) == 0 {
		r.terminate()
		return
	}

	if leaving.playerID == r.hostID {
		r.promoteHost()
	}

	if r.game != nil {
		if err := r.game.RemovePlayer(playerID); err != nil {
			r.log.Errorf("room %s: remove player: %v", r.code, err)
		}
		if winner := r.game.Winner(); winner != "" {
			r.finishGame(winner)
			return
		}
		r.broadcast(Event{Type: EventStateUpdate, Data: r.game.PublicState(r.code, r.hostID)})
		r.scheduleTurnTimer()
		return
	}
	r.broadcastLobby()
}

// disconnect flips the seat to not-connected but keeps it, enabling
// rejoin-by-name. The room is torn down once nobody is left connected.
func (r *Room) disconnect(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.seatByID(playerID)
	if st == nil {
		return
	}
	st.connected = false
	st.sink = nil
	r.log.Debugf("room %s: %s disconnected", r.code, st.name)

	anyConnected := false
	for _, s := range r.seats {
		if s.connected {
			anyConnected = true
			break
		}
	}
	if !anyConnected {
		r.terminate()
		return
	}

	if r.game == nil {
		if st.playerID == r.hostID {
			r.promoteHost()
		}
		r.broadcastLobby()
	}
}

// emote relays a stateless emote to the room.
func (r *Room) emote(playerID, emoteType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.seatByID(playerID)
	if st == nil {
		return
	}
	r.broadcast(Event{Type: EventEmote, Data: EmotePayload{
		PlayerID:   st.playerID,
		PlayerName: st.name,
		EmoteType:  emoteType,
	}})
}

// setUserID rebinds the opaque user identity on an occupied seat.
func (r *Room) setUserID(playerID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.seatByID(playerID); st != nil {
		st.userID = userID
	}
}

// promoteHost hands the host flag to the first still-connected seat in seat
// order, falling back to the first seat. Callers hold the room mutex.
func (r *Room) promoteHost() {
	if len(r.seats) == 0 {
		return
	}
	r.hostID = r.seats[0].playerID
	for _, st := range r.seats {
		if st.connected {
			r.hostID = st.playerID
			break
		}
	}
	r.log.Debugf("room %s: host is now %s", r.code, r.hostID)
}

// terminate tears the room down and evicts it from the registry. Callers
// hold the room mutex.
func (r *Room) terminate() {
	r.cancelTurnTimer()
	r.game = nil
	r.sm.Set(nil)
	r.srv.removeRoom(r.code)
	r.log.Infof("room %s terminated", r.code)
}

// scheduleTurnTimer arms the single per-room timer. The generation counter
// invalidates fires from timers that were superseded while waiting for the
// mutex. Callers hold the room mutex.
func (r *Room) scheduleTurnTimer() {
	r.cancelTurnTimer()
	if r.game == nil || r.turnTimeout <= 0 {
		return
	}
	r.timerGen++
	gen := r.timerGen
	r.turnTimer = time.AfterFunc(r.turnTimeout, func() {
		r.turnExpired(gen)
	})
}

func (r *Room) cancelTurnTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

// turnExpired acts on the current player's behalf: the owed power draw if
// one is pending, otherwise a regular draw.
func (r *Room) turnExpired(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.timerGen || r.game == nil {
		return
	}
	cur := r.game.CurrentPlayerID()
	if cur == "" {
		return
	}
	prev := r.game.HandCounts()

	var err error
	if r.game.PendingPowerDrawPlayerID() == cur {
		_, err = r.game.DrawPowerCard(cur)
	} else {
		_, err = r.game.Draw(cur)
	}
	if err != nil {
		r.log.Errorf("room %s: turn timeout action for %s: %v", r.code, cur, err)
		r.scheduleTurnTimer()
		return
	}
	r.log.Debugf("room %s: turn timeout, acted for %s", r.code, cur)
	r.afterMutation(cur, prev)
}

func (r *Room) seatByID(playerID string) *seat {
	for _, st := range r.seats {
		if st.playerID == playerID {
			return st
		}
	}
	return nil
}

// isEmpty reports whether no seats remain.
func (r *Room) isEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seats) == 0
}
