package uno

import (
	"fmt"
)

// Color represents a card color. ColorWild only appears on wild cards; the
// game's current color is always one of the four concrete colors.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorWild   Color = "wild"
)

// Colors lists the four playable colors in a fixed order.
var Colors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// IsConcrete reports whether c is one of the four playable colors.
func (c Color) IsConcrete() bool {
	switch c {
	case ColorRed, ColorYellow, ColorGreen, ColorBlue:
		return true
	}
	return false
}

// Value represents a card face value.
type Value string

const (
	ValueZero  Value = "0"
	ValueOne   Value = "1"
	ValueTwo   Value = "2"
	ValueThree Value = "3"
	ValueFour  Value = "4"
	ValueFive  Value = "5"
	ValueSix   Value = "6"
	ValueSeven Value = "7"
	ValueEight Value = "8"
	ValueNine  Value = "9"

	ValueSkip     Value = "skip"
	ValueReverse  Value = "reverse"
	ValueDrawTwo  Value = "draw2"
	ValueWild     Value = "wild"
	ValueWildFour Value = "wild4"
)

var numberValues = []Value{
	ValueZero, ValueOne, ValueTwo, ValueThree, ValueFour,
	ValueFive, ValueSix, ValueSeven, ValueEight, ValueNine,
}

// IsNumber reports whether v is one of the ten digit values.
func (v Value) IsNumber() bool {
	for _, n := range numberValues {
		if v == n {
			return true
		}
	}
	return false
}

// IsWild reports whether v is wild or wild4.
func (v Value) IsWild() bool {
	return v == ValueWild || v == ValueWildFour
}

// IsDrawValue reports whether v adds to the draw stack when played.
func (v Value) IsDrawValue() bool {
	return v == ValueDrawTwo || v == ValueWildFour
}

// Card is a single card in a running game. IDs are unique within a room for
// the lifetime of one game and carry no meaning across matches.
type Card struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Value Value  `json:"value"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s %s", c.Color, c.Value)
}

// PowerPoints returns the power-meter points awarded for playing the card.
func (c Card) PowerPoints() int {
	switch c.Value {
	case ValueSkip, ValueReverse:
		return 1
	case ValueDrawTwo, ValueWild:
		return 2
	case ValueWildFour:
		return 3
	default:
		return 0
	}
}

// ScorePoints returns the end-of-game penalty points the card is worth when
// left in a loser's hand.
func (c Card) ScorePoints() int {
	switch c.Value {
	case ValueSkip, ValueReverse, ValueDrawTwo:
		return 20
	case ValueWild, ValueWildFour:
		return 50
	default:
		// Digit values score their face value.
		return int(c.Value[0] - '0')
	}
}
