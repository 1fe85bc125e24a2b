package server

// Fanout helpers. Every send here goes through an eventSink, which is
// buffered and non-blocking, so these are safe to call under the room
// mutex.

// broadcast delivers an event to every connected seat in seat order.
func (r *Room) broadcast(ev Event) {
	for _, st := range r.seats {
		if st.connected && st.sink != nil {
			st.sink.sendEvent(ev)
		}
	}
	r.srv.metrics.eventSent(ev.Type)
}

// broadcastLobby multicasts the current pre-game room view.
func (r *Room) broadcastLobby() {
	players := make([]LobbyPlayer, len(r.seats))
	for i, st := range r.seats {
		players[i] = LobbyPlayer{
			ID:        st.playerID,
			Name:      st.name,
			IsHost:    st.playerID == r.hostID,
			Connected: st.connected,
		}
	}
	r.broadcast(Event{Type: EventLobbyUpdate, Data: LobbyUpdatePayload{
		RoomCode: r.code,
		Status:   r.status(),
		Players:  players,
	}})
}

// sendError answers the originating seat only. Rejected actions never leak
// to other players.
func (r *Room) sendError(st *seat, msg string) {
	if st.sink == nil {
		return
	}
	st.sink.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: msg}})
}
