package uno

import (
	"math/rand"
	"testing"
)

func TestPowerDeckNeverExhausts(t *testing.T) {
	d := NewPowerDeck(rand.New(rand.NewSource(1)))

	ids := make(map[string]bool)
	for i := 0; i < 3*powerBagSize; i++ {
		card := d.Draw()
		if card.ID == "" || card.Type == "" {
			t.Fatalf("draw %d returned empty card %+v", i, card)
		}
		if ids[card.ID] {
			t.Fatalf("duplicate power card ID %s", card.ID)
		}
		ids[card.ID] = true
	}
}

func TestPowerDeckBagDistribution(t *testing.T) {
	d := NewPowerDeck(rand.New(rand.NewSource(1)))

	counts := make(map[PowerCardType]int)
	for i := 0; i < powerBagSize; i++ {
		counts[d.Draw().Type]++
	}
	for _, pt := range powerCardTypes {
		if got := counts[pt]; got != powerBagSize/len(powerCardTypes) {
			t.Errorf("%s count = %d, want %d", pt, got, powerBagSize/len(powerCardTypes))
		}
	}
}
