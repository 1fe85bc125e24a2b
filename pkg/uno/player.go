package uno

// Player is the engine-internal record for one seat in a running game.
// Hands and power inventories are hidden information; only the engine's
// PublicState projection may leave the package.
type Player struct {
	ID   string
	Name string

	// Hand preserves insertion order so clients render stably.
	Hand []Card

	// CalledUno is true iff the hand held exactly one card at the end of
	// the last mutation touching this player. Reset on turn entry.
	CalledUno bool

	// Power economy.
	PowerCards  []PowerCard
	PowerPoints int

	// PlayedPowerThisTurn limits power plays to one per turn; reset on
	// turn entry.
	PlayedPowerThisTurn bool

	// AwaitingPowerDraw is set while the player owes forced power-card
	// draws. PendingSkipSteps holds the deferred turn advance (0 = none
	// recorded, treated as 1 when the draws resolve).
	AwaitingPowerDraw bool
	PendingSkipSteps  int

	// FrozenForTurns counts upcoming own-turns the player forfeits.
	FrozenForTurns int
}

// NewPlayer creates a player record with empty hand and inventory.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:         id,
		Name:       name,
		Hand:       make([]Card, 0, 7),
		PowerCards: make([]PowerCard, 0, 2),
	}
}

// requiredPowerDraws returns how many forced power-card draws the player's
// meter currently owes.
func (p *Player) requiredPowerDraws() int {
	return p.PowerPoints / PowerCardCost
}

// syncUnoFlag recomputes CalledUno after a hand mutation.
func (p *Player) syncUnoFlag() {
	p.CalledUno = len(p.Hand) == 1
}

// handIndex returns the position of a card in the hand, or -1.
func (p *Player) handIndex(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// powerIndex returns the position of a power card in the inventory, or -1.
func (p *Player) powerIndex(cardID string) int {
	for i, c := range p.PowerCards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// removeHandCard removes and returns the card at index i.
func (p *Player) removeHandCard(i int) Card {
	card := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return card
}

// resetForTurnEntry clears the per-turn flags when the player becomes
// current.
func (p *Player) resetForTurnEntry() {
	p.PlayedPowerThisTurn = false
	p.CalledUno = false
}
