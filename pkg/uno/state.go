package uno

import "time"

// PlayerSummary is the only projection of a player that may be broadcast.
// Opponents' hands and power inventories are never included, only counts.
type PlayerSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsHost         bool   `json:"is_host"`
	CardCount      int    `json:"card_count"`
	HasCalledUno   bool   `json:"has_called_uno"`
	PowerCardCount int    `json:"power_card_count"`
	PowerPoints    int    `json:"power_points"`
	FrozenForTurns int    `json:"frozen_for_turns"`
}

// PublicState is the room-multicast view of a running game. The engine is
// its sole producer.
type PublicState struct {
	RoomCode                 string          `json:"room_code"`
	Players                  []PlayerSummary `json:"players"`
	CurrentPlayerID          string          `json:"current_player_id"`
	Direction                int             `json:"direction"`
	DiscardTop               Card            `json:"discard_top"`
	CurrentColor             Color           `json:"current_color"`
	DrawStack                int             `json:"draw_stack"`
	StartedAt                time.Time       `json:"started_at"`
	PendingPowerDrawPlayerID string          `json:"pending_power_draw_player_id,omitempty"`
}

// PowerState is the per-connection private view of a player's power
// economy.
type PowerState struct {
	Points        int         `json:"points"`
	Cards         []PowerCard `json:"cards"`
	RequiredDraws int         `json:"required_draws"`
}

// PublicState builds the broadcast view. The room supplies its code and the
// current host.
func (g *Game) PublicState(roomCode, hostID string) PublicState {
	players := make([]PlayerSummary, len(g.players))
	for i, p := range g.players {
		players[i] = PlayerSummary{
			ID:             p.ID,
			Name:           p.Name,
			IsHost:         p.ID == hostID,
			CardCount:      len(p.Hand),
			HasCalledUno:   p.CalledUno,
			PowerCardCount: len(p.PowerCards),
			PowerPoints:    p.PowerPoints,
			FrozenForTurns: p.FrozenForTurns,
		}
	}
	return PublicState{
		RoomCode:                 roomCode,
		Players:                  players,
		CurrentPlayerID:          g.CurrentPlayerID(),
		Direction:                g.direction,
		DiscardTop:               g.topDiscard(),
		CurrentColor:             g.currentColor,
		DrawStack:                g.drawStack,
		StartedAt:                g.startedAt,
		PendingPowerDrawPlayerID: g.pendingPowerDrawID,
	}
}

// Hand returns a copy of a player's private hand.
func (g *Game) Hand(playerID string) []Card {
	p := g.playerByID(playerID)
	if p == nil {
		return nil
	}
	hand := make([]Card, len(p.Hand))
	copy(hand, p.Hand)
	return hand
}

// PowerState returns a player's private power view.
func (g *Game) PowerState(playerID string) PowerState {
	p := g.playerByID(playerID)
	if p == nil {
		return PowerState{Cards: []PowerCard{}}
	}
	cards := make([]PowerCard, len(p.PowerCards))
	copy(cards, p.PowerCards)
	required := 0
	if p.AwaitingPowerDraw {
		required = p.requiredPowerDraws()
	}
	return PowerState{
		Points:        p.PowerPoints,
		Cards:         cards,
		RequiredDraws: required,
	}
}

// HandCounts returns the current hand size per player, used by the room to
// detect transitions to a single card.
func (g *Game) HandCounts() map[string]int {
	counts := make(map[string]int, len(g.players))
	for _, p := range g.players {
		counts[p.ID] = len(p.Hand)
	}
	return counts
}

// Scores computes end-of-game scores: each non-winner sums the penalty
// points left in their hand, and the winner captures the total. No side
// effects.
func (g *Game) Scores() map[string]int {
	scores := make(map[string]int, len(g.players))
	total := 0
	for _, p := range g.players {
		if p.ID == g.winnerID {
			continue
		}
		sum := 0
		for _, c := range p.Hand {
			sum += c.ScorePoints()
		}
		scores[p.ID] = sum
		total += sum
	}
	if g.winnerID != "" {
		scores[g.winnerID] = total
	}
	return scores
}

// PlayerName returns the display name for a player ID, or "".
func (g *Game) PlayerName(playerID string) string {
	if p := g.playerByID(playerID); p != nil {
		return p.Name
	}
	return ""
}
