package uno

import (
	"math/rand"

	"github.com/google/uuid"
)

// DeckSize is the number of cards in a full standard deck: per color one 0,
// two each of 1-9, two each of skip/reverse/draw2, plus four wild and four
// wild4.
const DeckSize = 108

// Deck is an ordered draw pile. The front of the slice is the top.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck builds a full shuffled deck using the given random number
// generator. Every card receives a fresh opaque ID.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, DeckSize),
		rng:   rng,
	}

	add := func(color Color, value Value) {
		d.cards = append(d.cards, Card{
			ID:    uuid.NewString(),
			Color: color,
			Value: value,
		})
	}

	for _, color := range Colors {
		add(color, ValueZero)
		for _, v := range numberValues[1:] {
			add(color, v)
			add(color, v)
		}
		for _, v := range []Value{ValueSkip, ValueReverse, ValueDrawTwo} {
			add(color, v)
			add(color, v)
		}
	}
	for i := 0; i < 4; i++ {
		add(ColorWild, ValueWild)
		add(ColorWild, ValueWildFour)
	}

	d.Shuffle()
	return d
}

// Shuffle randomizes the order of the remaining cards.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DrawN draws up to n cards. When the pile runs short the returned slice is
// smaller than requested; callers replenish between calls if they can.
func (d *Deck) DrawN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	drawn := make([]Card, n)
	copy(drawn, d.cards[:n])
	d.cards = d.cards[n:]
	return drawn
}

// PlaceBottom puts a card under the pile.
func (d *Deck) PlaceBottom(card Card) {
	d.cards = append(d.cards, card)
}

// Return adds cards back to the pile and reshuffles.
func (d *Deck) Return(cards []Card) {
	d.cards = append(d.cards, cards...)
	d.Shuffle()
}

// Size returns the number of cards remaining.
func (d *Deck) Size() int {
	return len(d.cards)
}
