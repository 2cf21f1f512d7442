package engine

import (
	"math/rand"
	"time"
)

// NoSeat marks the absence of a seat index (no winner, no draw victim).
const NoSeat = -1

// GameState is the authoritative state of one game in progress.
//
// Hands are indexed by seat: seat i belongs to the i-th player of the
// room roster for the duration of the game. The state never learns
// player identities; callers map seats to players.
type GameState struct {
	DrawPile           []Card
	DiscardPile        []Card
	Hands              [][]Card
	CurrentPlayerIndex int
	CurrentColor       Color
	Direction          int // +1 or -1
	TurnStartedAt      time.Time
	Winner             int // seat index, NoSeat while the game is live

	rng *rand.Rand
}

// NewGame builds a shuffled deck, deals HandSize cards to each of
// numPlayers seats in seat order, and flips the starting discard.
// Wild-type cards drawn as the starting discard are returned to the
// bottom of the draw pile and the flip retries until a non-wild card
// comes up; CurrentColor is initialized to that card's color.
func NewGame(numPlayers int, seed int64) *GameState {
	g := &GameState{
		DrawPile:  NewDeck(),
		Hands:     make([][]Card, numPlayers),
		Direction: 1,
		Winner:    NoSeat,
		rng:       rand.New(rand.NewSource(seed)),
	}
	shuffle(g.DrawPile, g.rng)

	for c := 0; c < HandSize; c++ {
		for p := 0; p < numPlayers; p++ {
			g.Hands[p] = append(g.Hands[p], g.popDraw())
		}
	}

	for {
		card := g.popDraw()
		if card.IsWild() {
			// Back to the bottom of the draw pile, try again.
			g.DrawPile = append([]Card{card}, g.DrawPile...)
			continue
		}
		g.DiscardPile = append(g.DiscardPile, card)
		g.CurrentColor = card.Color
		break
	}
	return g
}

// popDraw removes and returns the top card of the draw pile.
// The caller must know the pile is non-empty.
func (g *GameState) popDraw() Card {
	card := g.DrawPile[len(g.DrawPile)-1]
	g.DrawPile = g.DrawPile[:len(g.DrawPile)-1]
	return card
}

// TopDiscard returns the top of the discard pile.
func (g *GameState) TopDiscard() (Card, bool) {
	if len(g.DiscardPile) == 0 {
		return Card{}, false
	}
	return g.DiscardPile[len(g.DiscardPile)-1], true
}

// NextSeat returns the seat step positions away in the current direction.
// The result is always a valid non-negative index.
func (g *GameState) NextSeat(step int) int {
	n := len(g.Hands)
	return ((g.CurrentPlayerIndex+g.Direction*step)%n + n) % n
}

// Advance moves the current seat step positions in the current direction.
func (g *GameState) Advance(step int) {
	g.CurrentPlayerIndex = g.NextSeat(step)
}

// DrawCards moves up to k cards from the draw pile into the seat's hand.
// When the draw pile runs out mid-draw, the discard pile minus its top
// card is reshuffled into a fresh draw pile and drawing continues. If
// both piles are exhausted the draw silently stops short. Returns the
// cards actually drawn.
func (g *GameState) DrawCards(seat, k int) []Card {
	drawn := make([]Card, 0, k)
	for i := 0; i < k; i++ {
		if len(g.DrawPile) == 0 {
			g.reshuffle()
		}
		if len(g.DrawPile) == 0 {
			break
		}
		card := g.popDraw()
		g.Hands[seat] = append(g.Hands[seat], card)
		drawn = append(drawn, card)
	}
	return drawn
}

// reshuffle folds every discard except the current top back into the
// draw pile and shuffles. No-op when the discard pile has at most one
// card.
func (g *GameState) reshuffle() {
	if len(g.DiscardPile) <= 1 {
		return
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	g.DrawPile = append(g.DrawPile, g.DiscardPile[:len(g.DiscardPile)-1]...)
	shuffle(g.DrawPile, g.rng)
	g.DiscardPile = g.DiscardPile[:0]
	g.DiscardPile = append(g.DiscardPile, top)
}

// EffectKind names the semantic outcome of a play, for observer events.
type EffectKind string

const (
	EffectPlay        EffectKind = "play"
	EffectSkip        EffectKind = "skip"
	EffectReverse     EffectKind = "reverse"
	EffectDrawPenalty EffectKind = "draw_penalty"
	EffectWild        EffectKind = "wild"
)

// Effect describes what a resolved play did to the game state.
type Effect struct {
	Kind       EffectKind
	Won        bool
	Reversed   bool // direction actually flipped (reverse with 3+ seats)
	VictimSeat int  // seat forced to draw, NoSeat if none
	VictimDrew int  // cards the victim actually drew
}

// PlayCard removes the card at cardIdx from the seat's hand, places it
// on the discard pile, and resolves its effect. The win check happens
// strictly before effect resolution: a play that empties the hand sets
// Winner and resolves no effect, so a winning skip never advances the
// turn. Callers must have validated seat, index, and legality.
func (g *GameState) PlayCard(seat, cardIdx int, chosen Color) Effect {
	card := g.Hands[seat][cardIdx]
	g.Hands[seat] = append(g.Hands[seat][:cardIdx], g.Hands[seat][cardIdx+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)

	if len(g.Hands[seat]) == 0 {
		g.Winner = seat
		return Effect{Kind: effectKind(card), Won: true, VictimSeat: NoSeat}
	}
	return g.applyCardEffect(card, chosen)
}

func effectKind(card Card) EffectKind {
	switch card.Type {
	case TypeSkip:
		return EffectSkip
	case TypeReverse:
		return EffectReverse
	case TypeDrawTwo, TypeWildDrawFour:
		return EffectDrawPenalty
	case TypeWild:
		return EffectWild
	}
	return EffectPlay
}

// applyCardEffect mutates color, direction, seat index, and, for the
// draw penalties, the victim's hand.
//
// Seat arithmetic is ((current + direction*step) mod n + n) mod n; a
// skipped player costs one extra step.
func (g *GameState) applyCardEffect(card Card, chosen Color) Effect {
	eff := Effect{Kind: effectKind(card), VictimSeat: NoSeat}

	switch card.Type {
	case TypeNumber:
		g.CurrentColor = card.Color
		g.Advance(1)

	case TypeSkip:
		g.CurrentColor = card.Color
		g.Advance(2)

	case TypeReverse:
		g.CurrentColor = card.Color
		if len(g.Hands) == 2 {
			// Reversing heads-up is a no-op on order: behaves as a skip.
			g.Advance(2)
		} else {
			g.Direction = -g.Direction
			g.Advance(1)
			eff.Reversed = true
		}

	case TypeDrawTwo:
		g.CurrentColor = card.Color
		victim := g.NextSeat(1)
		eff.VictimSeat = victim
		eff.VictimDrew = len(g.DrawCards(victim, 2))
		g.Advance(2)

	case TypeWild:
		g.CurrentColor = chosenOrFallback(chosen)
		g.Advance(1)

	case TypeWildDrawFour:
		g.CurrentColor = chosenOrFallback(chosen)
		victim := g.NextSeat(1)
		eff.VictimSeat = victim
		eff.VictimDrew = len(g.DrawCards(victim, 4))
		g.Advance(2)
	}
	return eff
}

// chosenOrFallback defends against a missing color choice on the forced
// (timeout) play path; interactive plays reject missing choices upstream.
func chosenOrFallback(chosen Color) Color {
	switch chosen {
	case ColorRed, ColorBlue, ColorGreen, ColorYellow:
		return chosen
	}
	return ColorRed
}

// TotalCards counts every card across both piles and all hands. It is
// DeckSize at all times except momentarily inside a reshuffle.
func (g *GameState) TotalCards() int {
	total := len(g.DrawPile) + len(g.DiscardPile)
	for _, hand := range g.Hands {
		total += len(hand)
	}
	return total
}
