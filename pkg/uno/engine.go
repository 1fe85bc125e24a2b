package uno

import (
	"math/rand"
	"time"

	"github.com/decred/slog"
)

const (
	// MinPlayers and MaxPlayers bound the seat count a game can start with.
	MinPlayers = 2
	MaxPlayers = 6

	// HandSize is the number of cards dealt to each player at start.
	HandSize = 7
)

// GameConfig holds configuration for a new game.
type GameConfig struct {
	Players []*Player
	Log     slog.Logger
	Seed    int64 // Optional seed for deterministic decks

	// NoWinOnEmptyPowerPlay disables the default policy of declaring a win
	// when colorRush or swapHands leaves the acting player's hand empty.
	NoWinOnEmptyPowerPlay bool
}

// Game is the per-room authoritative state machine. It is not safe for
// concurrent use: the room coordinator serializes all calls behind its own
// mutex and is the only holder of a Game.
type Game struct {
	log     slog.Logger
	players []*Player
	rng     *rand.Rand

	deck      *Deck
	discard   []Card // top = back
	powerDeck *PowerDeck

	turnIndex    int
	direction    int
	drawStack    int
	currentColor Color

	pendingPowerDrawID string
	winnerID           string

	dirtyHands map[string]struct{}

	noWinOnEmptyPowerPlay bool
	started               bool
	startedAt             time.Time
}

// PlayResult reports the outcome of a successful PlayCard.
type PlayResult struct {
	// WinnerID is set when the play emptied the actor's hand; no further
	// effects were applied.
	WinnerID string
	// PowerDrawRequired is set when the actor owes forced power draws and
	// the turn did not advance.
	PowerDrawRequired bool
}

// DrawResult reports the outcome of a successful Draw.
type DrawResult struct {
	Cards   int  // cards actually received (may be fewer than owed, see DrawN)
	Penalty bool // true when the draw paid off a pending draw stack
}

// PowerDrawResult reports the outcome of a successful DrawPowerCard.
type PowerDrawResult struct {
	Card           PowerCard
	RemainingDraws int  // forced draws still owed
	TurnAdvanced   bool // true when the deferred advance ran
}

// PowerPlay names the inputs to PlayPowerCard.
type PowerPlay struct {
	CardID         string
	TargetPlayerID string
	Color          Color
}

// PowerPlayResult reports the outcome of a successful PlayPowerCard.
type PowerPlayResult struct {
	Type PowerCardType
	// Affected lists the other players whose state changed.
	Affected []string
	// WinnerID is set when the play emptied the actor's hand and the
	// win-on-empty policy is active.
	WinnerID string
}

// NewGame creates a game over the given players. Players keep their slice
// order as seat order for the whole match.
func NewGame(cfg GameConfig) (*Game, error) {
	if len(cfg.Players) < MinPlayers {
		return nil, ErrTooFewPlayers
	}
	if len(cfg.Players) > MaxPlayers {
		return nil, ErrTooManyPlayers
	}

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}

	return &Game{
		log:                   log,
		players:               cfg.Players,
		rng:                   rng,
		direction:             1,
		dirtyHands:            make(map[string]struct{}),
		noWinOnEmptyPowerPlay: cfg.NoWinOnEmptyPowerPlay,
	}, nil
}

// Start deals the opening hands and flips the initial discard. The first
// discard is never wild so the current color is well-defined on turn 1, and
// its action effect is not applied: the first player faces a clean board.
func (g *Game) Start() error {
	if g.started {
		return ErrGameEnded
	}

	g.deck = NewDeck(g.rng)
	g.powerDeck = NewPowerDeck(g.rng)
	g.discard = make([]Card, 0, DeckSize)

	for _, p := range g.players {
		p.Hand = append(p.Hand[:0], g.deck.DrawN(HandSize)...)
		g.markDirty(p.ID)
	}

	// Rotate wilds to the bottom until a colored card surfaces. Bounded:
	// at most 8 wilds exist and none can be created.
	for i := 0; i < DeckSize; i++ {
		card, ok := g.deck.Draw()
		if !ok {
			return ErrGameNotStarted
		}
		if card.Color == ColorWild {
			g.deck.PlaceBottom(card)
			g.deck.Shuffle()
			continue
		}
		g.discard = append(g.discard, card)
		g.currentColor = card.Color
		break
	}

	g.turnIndex = 0
	g.direction = 1
	g.drawStack = 0
	g.startedAt = time.Now()
	g.started = true
	g.players[0].resetForTurnEntry()

	g.log.Debugf("game started: %d players, top %s", len(g.players), g.topDiscard())
	return nil
}

// PlayCard plays a regular card from the current player's hand.
func (g *Game) PlayCard(playerID, cardID string, chosen Color) (PlayResult, error) {
	p, err := g.checkTurn(playerID)
	if err != nil {
		return PlayResult{}, err
	}
	if g.pendingPowerDrawID == playerID {
		return PlayResult{}, ErrPowerDrawPending
	}

	hi := p.handIndex(cardID)
	if hi < 0 {
		return PlayResult{}, ErrCardNotInHand
	}
	card := p.Hand[hi]
	if !IsPlayable(card, g.topDiscard(), g.currentColor, g.drawStack) {
		return PlayResult{}, ErrIllegalMove
	}
	if card.Value.IsWild() && !chosen.IsConcrete() {
		return PlayResult{}, ErrWildRequiresColor
	}

	p.removeHandCard(hi)
	g.discard = append(g.discard, card)
	g.markDirty(p.ID)

	// Win check before any effect or power-meter bookkeeping.
	if len(p.Hand) == 0 {
		g.winnerID = p.ID
		g.log.Infof("player %s wins by emptying hand", p.ID)
		return PlayResult{WinnerID: p.ID}, nil
	}

	steps := 1
	switch {
	case card.Value.IsNumber():
		g.currentColor = card.Color
	case card.Value == ValueSkip:
		g.currentColor = card.Color
		steps = 2
	case card.Value == ValueReverse:
		g.direction = -g.direction
		if len(g.players) == 2 {
			steps = 2
		}
	case card.Value == ValueDrawTwo:
		g.drawStack += 2
	case card.Value == ValueWild:
		g.currentColor = chosen
	case card.Value == ValueWildFour:
		g.currentColor = chosen
		g.drawStack += 4
	}

	p.syncUnoFlag()
	p.PowerPoints += card.PowerPoints()

	if p.requiredPowerDraws() >= 1 {
		p.AwaitingPowerDraw = true
		p.PendingSkipSteps = steps
		g.pendingPowerDrawID = p.ID
		g.log.Debugf("player %s owes %d power draw(s), turn held", p.ID, p.requiredPowerDraws())
		return PlayResult{PowerDrawRequired: true}, nil
	}

	g.advanceTurn(steps)
	return PlayResult{}, nil
}

// Draw draws for the current player: the full pending stack as a penalty,
// or a single card. Drawing always ends the turn.
func (g *Game) Draw(playerID string) (DrawResult, error) {
	p, err := g.checkTurn(playerID)
	if err != nil {
		return DrawResult{}, err
	}
	if g.pendingPowerDrawID == playerID {
		return DrawResult{}, ErrPowerDrawPending
	}

	n := 1
	penalty := false
	if g.drawStack > 0 {
		n = g.drawStack
		penalty = true
		g.drawStack = 0
	}

	got := g.dealTo(p, n)
	p.CalledUno = false

	g.log.Debugf("player %s drew %d card(s) (penalty=%v)", p.ID, got, penalty)
	g.advanceTurn(1)
	return DrawResult{Cards: got, Penalty: penalty}, nil
}

// DrawPowerCard converts power points into a power card. While forced draws
// remain the turn stays held; once the meter drops below the cost the turn
// advances by the deferred skip count.
func (g *Game) DrawPowerCard(playerID string) (PowerDrawResult, error) {
	p, err := g.checkTurn(playerID)
	if err != nil {
		return PowerDrawResult{}, err
	}
	if p.requiredPowerDraws() < 1 {
		return PowerDrawResult{}, ErrInsufficientPoints
	}

	card := g.powerDeck.Draw()
	p.PowerCards = append(p.PowerCards, card)
	p.PowerPoints -= PowerCardCost
	if p.PowerPoints < 0 {
		p.PowerPoints = 0
	}

	if remaining := p.requiredPowerDraws(); remaining >= 1 {
		p.AwaitingPowerDraw = true
		g.pendingPowerDrawID = p.ID
		return PowerDrawResult{Card: card, RemainingDraws: remaining}, nil
	}

	p.AwaitingPowerDraw = false
	g.pendingPowerDrawID = ""
	steps := p.PendingSkipSteps
	if steps == 0 {
		steps = 1
	}
	p.PendingSkipSteps = 0
	g.advanceTurn(steps)
	return PowerDrawResult{Card: card, TurnAdvanced: true}, nil
}

// PlayPowerCard plays a power card from the current player's inventory.
// Power plays do not consume the turn, and every precondition is validated
// before any state changes: a failure leaves the inventory untouched.
func (g *Game) PlayPowerCard(playerID string, play PowerPlay) (PowerPlayResult, error) {
	p, err := g.checkTurn(playerID)
	if err != nil {
		return PowerPlayResult{}, err
	}
	if g.pendingPowerDrawID == playerID {
		return PowerPlayResult{}, ErrPowerDrawPending
	}
	if p.PlayedPowerThisTurn {
		return PowerPlayResult{}, ErrAlreadyPlayedPower
	}

	pi := p.powerIndex(play.CardID)
	if pi < 0 {
		return PowerPlayResult{}, ErrPowerCardNotFound
	}
	card := p.PowerCards[pi]

	var target *Player
	switch card.Type {
	case PowerFreeze, PowerSwapHands:
		if play.TargetPlayerID == "" || play.TargetPlayerID == playerID {
			return PowerPlayResult{}, ErrMissingTarget
		}
		if target = g.playerByID(play.TargetPlayerID); target == nil {
			return PowerPlayResult{}, ErrMissingTarget
		}
	case PowerColorRush:
		if !play.Color.IsConcrete() {
			return PowerPlayResult{}, ErrMissingColor
		}
		found := false
		for _, c := range p.Hand {
			if c.Color == play.Color {
				found = true
				break
			}
		}
		if !found {
			return PowerPlayResult{}, ErrNoMatchingColorInHand
		}
	}

	p.PowerCards = append(p.PowerCards[:pi], p.PowerCards[pi+1:]...)
	res := PowerPlayResult{Type: card.Type}

	switch card.Type {
	case PowerCardRush:
		for _, other := range g.players {
			if other.ID == p.ID {
				continue
			}
			g.dealTo(other, 2)
			other.CalledUno = false
			res.Affected = append(res.Affected, other.ID)
		}
	case PowerFreeze:
		target.FrozenForTurns += 2
		res.Affected = append(res.Affected, target.ID)
	case PowerColorRush:
		kept := p.Hand[:0]
		removed := make([]Card, 0, len(p.Hand))
		for _, c := range p.Hand {
			if c.Color == play.Color {
				removed = append(removed, c)
			} else {
				kept = append(kept, c)
			}
		}
		p.Hand = kept
		g.deck.Return(removed)
		p.syncUnoFlag()
		g.markDirty(p.ID)
	case PowerSwapHands:
		p.Hand, target.Hand = target.Hand, p.Hand
		p.syncUnoFlag()
		target.syncUnoFlag()
		g.markDirty(p.ID)
		g.markDirty(target.ID)
		res.Affected = append(res.Affected, target.ID)
	}

	p.PlayedPowerThisTurn = true
	g.log.Debugf("player %s played power card %s", p.ID, card.Type)

	if !g.noWinOnEmptyPowerPlay && len(p.Hand) == 0 &&
		(card.Type == PowerColorRush || card.Type == PowerSwapHands) {
		g.winnerID = p.ID
		res.WinnerID = p.ID
		g.log.Infof("player %s wins by emptying hand with %s", p.ID, card.Type)
	}
	return res, nil
}

// RemovePlayer drops a player from the turn order. Their cards leave the
// game entirely; returning them to the deck would leak hidden discards
// through a mid-game reshuffle. If one player remains they win.
func (g *Game) RemovePlayer(playerID string) error {
	idx := -1
	for i, p := range g.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownPlayer
	}

	wasCurrent := idx == g.turnIndex
	g.players = append(g.players[:idx], g.players[idx+1:]...)
	delete(g.dirtyHands, playerID)
	if g.pendingPowerDrawID == playerID {
		g.pendingPowerDrawID = ""
	}

	if len(g.players) == 0 {
		return nil
	}
	if idx < g.turnIndex {
		g.turnIndex--
	}
	g.turnIndex = ((g.turnIndex % len(g.players)) + len(g.players)) % len(g.players)

	if len(g.players) == 1 && g.winnerID == "" {
		g.winnerID = g.players[0].ID
		g.log.Infof("player %s wins as last remaining player", g.winnerID)
		return nil
	}
	if wasCurrent && g.winnerID == "" {
		// The cursor now points at the next player in the prior direction;
		// they enter a fresh turn.
		g.players[g.turnIndex].resetForTurnEntry()
	}
	return nil
}

// advanceTurn moves the cursor by steps in the current direction, then
// resolves frozen turns: each frozen entry decrements the counter, pays any
// active draw stack, and passes on. The loop is bounded as a guard against
// engine bugs.
func (g *Game) advanceTurn(steps int) {
	n := len(g.players)
	if n == 0 {
		return
	}
	g.turnIndex = (((g.turnIndex + steps*g.direction) % n) + n) % n

	for guard := 0; guard < 4*n; guard++ {
		cur := g.players[g.turnIndex]
		if cur.FrozenForTurns == 0 {
			break
		}
		cur.FrozenForTurns--
		if g.drawStack > 0 {
			g.dealTo(cur, g.drawStack)
			g.drawStack = 0
			cur.CalledUno = false
			g.log.Debugf("frozen player %s paid the draw stack", cur.ID)
		}
		g.turnIndex = (((g.turnIndex + g.direction) % n) + n) % n
	}

	g.players[g.turnIndex].resetForTurnEntry()
}

// dealTo moves up to n cards from the draw pile into a hand, replenishing
// the pile from the discard (keeping its top) when it runs dry. Returns the
// number of cards actually dealt; fewer than n means both piles are down to
// the single top discard.
func (g *Game) dealTo(p *Player, n int) int {
	dealt := 0
	for dealt < n {
		cards := g.deck.DrawN(n - dealt)
		p.Hand = append(p.Hand, cards...)
		dealt += len(cards)
		if dealt == n {
			break
		}
		if len(g.discard) <= 1 {
			break
		}
		top := g.discard[len(g.discard)-1]
		g.deck.Return(g.discard[:len(g.discard)-1])
		g.discard = []Card{top}
		g.log.Debugf("replenished draw pile from discard (%d cards)", g.deck.Size())
	}
	if dealt > 0 {
		p.syncUnoFlag()
		g.markDirty(p.ID)
	}
	return dealt
}

// checkTurn runs the shared preconditions for all player-initiated
// operations.
func (g *Game) checkTurn(playerID string) (*Player, error) {
	if !g.started {
		return nil, ErrGameNotStarted
	}
	if g.winnerID != "" {
		return nil, ErrGameEnded
	}
	p := g.playerByID(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if g.players[g.turnIndex].ID != playerID {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

func (g *Game) playerByID(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) topDiscard() Card {
	if len(g.discard) == 0 {
		return Card{}
	}
	return g.discard[len(g.discard)-1]
}

func (g *Game) markDirty(playerID string) {
	g.dirtyHands[playerID] = struct{}{}
}

// DrainHandSyncs returns, in seat order, the players whose private hand
// changed since the last drain, and clears the set.
func (g *Game) DrainHandSyncs() []string {
	if len(g.dirtyHands) == 0 {
		return nil
	}
	ids := make([]string, 0, len(g.dirtyHands))
	for _, p := range g.players {
		if _, ok := g.dirtyHands[p.ID]; ok {
			ids = append(ids, p.ID)
		}
	}
	g.dirtyHands = make(map[string]struct{})
	return ids
}

// Started reports whether Start has run.
func (g *Game) Started() bool { return g.started }

// Winner returns the winner's player ID, or "".
func (g *Game) Winner() string { return g.winnerID }

// CurrentPlayerID returns the player whose turn it is.
func (g *Game) CurrentPlayerID() string {
	if len(g.players) == 0 {
		return ""
	}
	return g.players[g.turnIndex].ID
}

// PendingPowerDrawPlayerID returns the player owing forced power draws, or
// "".
func (g *Game) PendingPowerDrawPlayerID() string { return g.pendingPowerDrawID }

// PlayerIDs returns the remaining seat order.
func (g *Game) PlayerIDs() []string {
	ids := make([]string, len(g.players))
	for i, p := range g.players {
		ids[i] = p.ID
	}
	return ids
}
