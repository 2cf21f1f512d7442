package engine

import "sort"

// Rankings orders seats by final standing: the winner (if any) first
// with zero cards, then remaining seats ascending by cards left in
// hand, ties broken by encounter order (lower seat first).
func (g *GameState) Rankings() []int {
	rest := make([]int, 0, len(g.Hands))
	for seat := range g.Hands {
		if seat != g.Winner {
			rest = append(rest, seat)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return len(g.Hands[rest[i]]) < len(g.Hands[rest[j]])
	})
	if g.Winner == NoSeat {
		return rest
	}
	return append([]int{g.Winner}, rest...)
}
