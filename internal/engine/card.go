// Package engine implements the ColorClash card game rules.
//
// The package is pure: no I/O, no timers, no logging. All randomness is
// owned by the GameState via its seeded RNG, so games are reproducible
// from a seed.
package engine

import "fmt"

// Color is one of the four playable colors, or ColorWild for cards whose
// color is chosen at play time.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorWild   Color = "wild"
)

// Colors lists the four chooseable colors, in deck-construction order.
var Colors = [4]Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// ParseColor maps a wire string to a chooseable color. ColorWild is not
// a valid choice: a wild play must resolve to a concrete color.
func ParseColor(s string) (Color, bool) {
	switch Color(s) {
	case ColorRed, ColorBlue, ColorGreen, ColorYellow:
		return Color(s), true
	}
	return "", false
}

// CardType is the kind of a card.
type CardType string

const (
	TypeNumber       CardType = "number"
	TypeSkip         CardType = "skip"
	TypeReverse      CardType = "reverse"
	TypeDrawTwo      CardType = "draw_two"
	TypeWild         CardType = "wild"
	TypeWildDrawFour CardType = "wild_draw_four"
)

// Card is an immutable playing card. Value is meaningful only when
// Type == TypeNumber.
type Card struct {
	Color Color    `json:"color"`
	Type  CardType `json:"type"`
	Value int      `json:"value"`
}

// IsWild reports whether playing this card requires a color choice.
func (c Card) IsWild() bool {
	return c.Type == TypeWild || c.Type == TypeWildDrawFour
}

func (c Card) String() string {
	if c.Type == TypeNumber {
		return fmt.Sprintf("%s %d", c.Color, c.Value)
	}
	if c.IsWild() {
		return string(c.Type)
	}
	return fmt.Sprintf("%s %s", c.Color, c.Type)
}
