package game

import "github.com/kavin024/colorclash/internal/engine"

// PublicPlayer is the redacted per-seat view: hand as a count only.
type PublicPlayer struct {
	ID            string `json:"id"`
	Nickname      string `json:"nickname"`
	Connected     bool   `json:"connected"`
	CardCount     int    `json:"cardCount"`
	ClashSafe     bool   `json:"clashSafe"`
	IsCurrentTurn bool   `json:"isCurrentTurn"`
}

// PublicState is the game snapshot safe to broadcast to every observer.
// No hand contents ever appear here; private hands travel only in
// EventPrivateHand pushes addressed to their owner.
type PublicState struct {
	RoomCode      string         `json:"roomCode"`
	DiscardTop    *engine.Card   `json:"discardTop,omitempty"`
	CurrentColor  engine.Color   `json:"currentColor"`
	CurrentPlayer string         `json:"currentPlayer,omitempty"` // nickname
	Direction     int            `json:"direction"`
	DrawPileCount int            `json:"drawPileCount"`
	DiscardCount  int            `json:"discardCount"`
	Winner        string         `json:"winner,omitempty"` // nickname
	ClashCalledBy string         `json:"clashCalledBy,omitempty"`
	Players       []PublicPlayer `json:"players"`
}

// PublicSnapshot builds the redacted snapshot for broadcast.
// Assumes the room lock is held by the caller.
func (g *Game) PublicSnapshot() *PublicState {
	st := &PublicState{
		RoomCode:      g.RoomCode,
		CurrentColor:  g.State.CurrentColor,
		Direction:     g.State.Direction,
		DrawPileCount: len(g.State.DrawPile),
		DiscardCount:  len(g.State.DiscardPile),
		Winner:        g.WinnerNickname(),
		ClashCalledBy: g.ClashCalledBy,
		Players:       make([]PublicPlayer, 0, len(g.Players)),
	}
	if top, ok := g.State.TopDiscard(); ok {
		card := top
		st.DiscardTop = &card
	}
	finished := g.Finished()
	for seat, p := range g.Players {
		current := seat == g.State.CurrentPlayerIndex && !finished
		if current {
			st.CurrentPlayer = p.Nickname
		}
		st.Players = append(st.Players, PublicPlayer{
			ID:            p.ID,
			Nickname:      p.Nickname,
			Connected:     p.Connected,
			CardCount:     len(g.State.Hands[seat]),
			ClashSafe:     p.ClashSafe,
			IsCurrentTurn: current,
		})
	}
	return st
}

// PrivateHand returns a copy of the hand belonging to the given
// connection id. Assumes the room lock is held by the caller.
func (g *Game) PrivateHand(connID string) ([]engine.Card, bool) {
	seat, _, ok := g.seatOf(connID)
	if !ok {
		return nil, false
	}
	return append([]engine.Card(nil), g.State.Hands[seat]...), true
}
