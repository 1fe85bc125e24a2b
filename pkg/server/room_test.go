package server

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvidal/powuno/pkg/uno"
)

// recorder is an eventSink that captures everything sent to one seat.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) sendEvent(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) byType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) last(t EventType) (Event, bool) {
	evs := r.byType(t)
	if len(evs) == 0 {
		return Event{}, false
	}
	return evs[len(evs)-1], true
}

func newTestRoom(t *testing.T, cfg Config) (*Server, *Room) {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	srv := NewServer(cfg)
	r, err := srv.createRoom()
	require.NoError(t, err)
	return srv, r
}

// seatPlayer joins a recorder into the room and returns its player ID.
func seatPlayer(t *testing.T, r *Room, name string) (*recorder, string) {
	t.Helper()
	rec := &recorder{}
	playerID, ok := r.join(rec, "", name)
	require.True(t, ok, "join %s", name)
	return rec, playerID
}

func TestCreateRoomAcksHost(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}

	hostID := r.addHost(host, "", "Alice")
	require.NotEmpty(t, hostID)

	ev, ok := host.last(EventRoomCreated)
	require.True(t, ok)
	created := ev.Data.(RoomCreatedPayload)
	assert.Equal(t, r.code, created.RoomCode)
	assert.Equal(t, hostID, created.PlayerID)

	ev, ok = host.last(EventLobbyUpdate)
	require.True(t, ok)
	lobby := ev.Data.(LobbyUpdatePayload)
	assert.Equal(t, "waiting", lobby.Status)
	require.Len(t, lobby.Players, 1)
	assert.True(t, lobby.Players[0].IsHost)
}

func TestJoinRejections(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}
	r.addHost(host, "", "Alice")

	for i := 1; i < uno.MaxPlayers; i++ {
		seatPlayer(t, r, fmt.Sprintf("Guest%d", i))
	}

	// Seventh seat: full.
	rec := &recorder{}
	_, ok := r.join(rec, "", "Overflow")
	require.False(t, ok)
	ev, found := rec.last(EventJoinResult)
	require.True(t, found)
	assert.Equal(t, reasonRoomFull, ev.Data.(JoinResultPayload).Reason)

	// Duplicate name is rejected case-insensitively.
	rec2 := &recorder{}
	_, ok = r.join(rec2, "", "guest1")
	require.False(t, ok)
	ev, found = rec2.last(EventJoinResult)
	require.True(t, found)
	assert.Equal(t, reasonNameInUse, ev.Data.(JoinResultPayload).Reason)
}

func TestJoinRejectedMidGame(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")
	seatPlayer(t, r, "Bob")
	r.startGame(hostID)
	require.Equal(t, "in-progress", r.status())

	rec := &recorder{}
	_, ok := r.join(rec, "", "Carol")
	require.False(t, ok)
	ev, found := rec.last(EventJoinResult)
	require.True(t, found)
	assert.Equal(t, reasonGameInProgress, ev.Data.(JoinResultPayload).Reason)
}

func TestStartGameGating(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")

	// Too few players.
	r.startGame(hostID)
	ev, found := host.last(EventError)
	require.True(t, found)
	assert.Equal(t, reasonTooFewPlayers, ev.Data.(ErrorPayload).Message)
	assert.Equal(t, "waiting", r.status())

	guest, guestID := seatPlayer(t, r, "Bob")

	// Only the host may start.
	r.startGame(guestID)
	ev, found = guest.last(EventError)
	require.True(t, found)
	assert.Equal(t, reasonNotHost, ev.Data.(ErrorPayload).Message)

	r.startGame(hostID)
	require.Equal(t, "in-progress", r.status())

	for _, rec := range []*recorder{host, guest} {
		ev, found := rec.last(EventGameStarted)
		require.True(t, found)
		started := ev.Data.(GameStartedPayload)
		assert.Len(t, started.Hand, uno.HandSize)
		assert.Equal(t, r.code, started.PublicState.RoomCode)
		_, found = rec.last(EventPowerStateUpdate)
		assert.True(t, found)
	}

	// Starting twice is rejected.
	r.startGame(hostID)
	ev, found = host.last(EventError)
	require.True(t, found)
	assert.Equal(t, reasonGameInProgress, ev.Data.(ErrorPayload).Message)
}

func TestActionErrorsGoToOriginOnly(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")
	guest, guestID := seatPlayer(t, r, "Bob")
	r.startGame(hostID)

	// The host acts first; the guest drawing out of turn is rejected
	// privately.
	r.drawCard(guestID)
	ev, found := guest.last(EventError)
	require.True(t, found)
	assert.Equal(t, uno.ErrNotYourTurn.Error(), ev.Data.(ErrorPayload).Message)
	assert.Empty(t, host.byType(EventError))
}

func TestDrawCardRunsPipeline(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")
	guest, guestID := seatPlayer(t, r, "Bob")
	r.startGame(hostID)

	r.drawCard(hostID)

	// The actor gets a private hand_update, everyone gets state_update with
	// the turn passed on.
	ev, found := host.last(EventHandUpdate)
	require.True(t, found)
	assert.Len(t, ev.Data.(HandUpdatePayload).Cards, uno.HandSize+1)

	for _, rec := range []*recorder{host, guest} {
		ev, found := rec.last(EventStateUpdate)
		require.True(t, found)
		state := ev.Data.(uno.PublicState)
		assert.Equal(t, guestID, state.CurrentPlayerID)
	}
}

func TestRejoinRestoresGameView(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")
	_, guestID := seatPlayer(t, r, "Bob")
	r.startGame(hostID)

	r.disconnect(guestID)
	require.Equal(t, "in-progress", r.status())

	rec := &recorder{}
	rejoinedID, ok := r.join(rec, "", "BOB")
	require.True(t, ok)
	assert.Equal(t, guestID, rejoinedID, "rejoin must reclaim the original seat")

	ev, found := rec.last(EventGameStarted)
	require.True(t, found)
	started := ev.Data.(GameStartedPayload)
	assert.Len(t, started.Hand, uno.HandSize)
	_, found = rec.last(EventPowerStateUpdate)
	assert.True(t, found)
}

func TestHostSuccessionOnDisconnect(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")
	guest, guestID := seatPlayer(t, r, "Bob")

	r.disconnect(hostID)

	ev, found := guest.last(EventLobbyUpdate)
	require.True(t, found)
	lobby := ev.Data.(LobbyUpdatePayload)
	require.Len(t, lobby.Players, 2)
	for _, p := range lobby.Players {
		if p.ID == guestID {
			assert.True(t, p.IsHost, "surviving player must inherit host")
		}
		if p.ID == hostID {
			assert.False(t, p.Connected)
		}
	}
}

func TestLeaveMidGameAwardsLastOpponent(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")
	_, guestID := seatPlayer(t, r, "Bob")
	r.startGame(hostID)

	r.leave(guestID)

	ev, found := host.last(EventGameEnded)
	require.True(t, found)
	ended := ev.Data.(GameEndedPayload)
	assert.Equal(t, hostID, ended.WinnerID)
	assert.Equal(t, "waiting", r.status())
}

func TestRoomTerminatesWhenEmpty(t *testing.T) {
	srv, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")
	require.Equal(t, 1, srv.RoomCount())

	r.disconnect(hostID)
	assert.Equal(t, 0, srv.RoomCount())
}

func TestLeaveLastSeatTerminatesRoom(t *testing.T) {
	srv, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")

	r.leave(hostID)
	assert.Equal(t, 0, srv.RoomCount())
}

func TestTurnTimerActsForIdlePlayer(t *testing.T) {
	_, r := newTestRoom(t, Config{TurnTimeout: 25 * time.Millisecond})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")
	guest, guestID := seatPlayer(t, r, "Bob")
	r.startGame(hostID)

	// The host idles; the server draws on their behalf and passes the turn.
	require.Eventually(t, func() bool {
		ev, found := guest.last(EventStateUpdate)
		if !found {
			return false
		}
		return ev.Data.(uno.PublicState).CurrentPlayerID == guestID
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEmoteBroadcast(t *testing.T) {
	_, r := newTestRoom(t, Config{})
	host := &recorder{}
	hostID := r.addHost(host, "", "Alice")
	guest, _ := seatPlayer(t, r, "Bob")

	r.emote(hostID, "laugh")

	for _, rec := range []*recorder{host, guest} {
		ev, found := rec.last(EventEmote)
		require.True(t, found)
		payload := ev.Data.(EmotePayload)
		assert.Equal(t, "laugh", payload.EmoteType)
		assert.Equal(t, "Alice", payload.PlayerName)
	}
}
