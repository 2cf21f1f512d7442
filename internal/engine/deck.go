package engine

import "math/rand"

const (
	// DeckSize is the canonical 108-card deck size.
	DeckSize = 108
	// HandSize is the number of cards dealt to each player.
	HandSize = 7
)

// NewDeck builds the canonical 108-card deck, unshuffled.
//
// Per color: one 0, two each of 1–9, two each of skip/reverse/draw_two
// (25 cards × 4 colors = 100), plus 4 wild and 4 wild_draw_four.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, color := range Colors {
		deck = append(deck, Card{Color: color, Type: TypeNumber, Value: 0})
		for v := 1; v <= 9; v++ {
			deck = append(deck,
				Card{Color: color, Type: TypeNumber, Value: v},
				Card{Color: color, Type: TypeNumber, Value: v},
			)
		}
		for _, t := range []CardType{TypeSkip, TypeReverse, TypeDrawTwo} {
			deck = append(deck,
				Card{Color: color, Type: t},
				Card{Color: color, Type: t},
			)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, Card{Color: ColorWild, Type: TypeWild})
		deck = append(deck, Card{Color: ColorWild, Type: TypeWildDrawFour})
	}
	return deck
}

// shuffle performs an in-place Fisher–Yates shuffle.
func shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
