package uno

// IsPlayable reports whether card may be played on top under the current
// color with the given pending draw stack.
//
// While a draw stack is pending only stacking cards (draw2, wild4) are
// legal, in either combination. Otherwise a card is legal when it is wild,
// matches the current color, or matches the top card's value.
func IsPlayable(card, top Card, currentColor Color, drawStack int) bool {
	if drawStack > 0 {
		return card.Value == ValueDrawTwo || card.Value == ValueWildFour
	}
	return card.Color == ColorWild ||
		card.Color == currentColor ||
		card.Value == top.Value
}
