package uno

import (
	"math/rand"

	"github.com/google/uuid"
)

// PowerCardCost is the power-meter cost of a single power card. Crossing an
// integer multiple of the cost forces that many power-card draws.
const PowerCardCost = 4

// PowerCardType identifies a power card effect.
type PowerCardType string

const (
	PowerCardRush  PowerCardType = "cardRush"
	PowerFreeze    PowerCardType = "freeze"
	PowerColorRush PowerCardType = "colorRush"
	PowerSwapHands PowerCardType = "swapHands"
)

var powerCardTypes = []PowerCardType{
	PowerCardRush, PowerFreeze, PowerColorRush, PowerSwapHands,
}

// PowerCard is a drawn power card held in a player's inventory.
type PowerCard struct {
	ID   string        `json:"id"`
	Type PowerCardType `json:"type"`
}

// powerBagSize is the number of cards generated per refill, a uniform spread
// over the four types.
const powerBagSize = 24

// PowerDeck is an inexhaustible source of power cards. When a bag runs out a
// fresh shuffled bag is generated.
type PowerDeck struct {
	cards []PowerCard
	rng   *rand.Rand
}

// NewPowerDeck creates a power deck with an initial shuffled bag.
func NewPowerDeck(rng *rand.Rand) *PowerDeck {
	d := &PowerDeck{rng: rng}
	d.refill()
	return d
}

func (d *PowerDeck) refill() {
	d.cards = make([]PowerCard, 0, powerBagSize)
	for i := 0; i < powerBagSize; i++ {
		d.cards = append(d.cards, PowerCard{
			ID:   uuid.NewString(),
			Type: powerCardTypes[i%len(powerCardTypes)],
		})
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top power card, refilling first if the bag is
// exhausted. It never fails.
func (d *PowerDeck) Draw() PowerCard {
	if len(d.cards) == 0 {
		d.refill()
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card
}

// Size returns the number of cards left in the current bag.
func (d *PowerDeck) Size() int {
	return len(d.cards)
}
