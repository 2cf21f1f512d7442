package game

import "github.com/kavin024/colorclash/internal/engine"

// EventType names a discrete semantic event broadcast to observers.
type EventType string

const (
	// Play outcomes.
	EventPlay        EventType = "play"
	EventSkip        EventType = "skip"
	EventReverse     EventType = "reverse"
	EventDrawPenalty EventType = "draw_penalty"
	EventWild        EventType = "wild"
	EventDraw        EventType = "draw"

	// Clash mini state machine.
	EventClashCalled  EventType = "clash_called"
	EventClashAccused EventType = "clash_accused"

	// Lifecycle.
	EventTurn        EventType = "turn"
	EventGameState   EventType = "game_state"
	EventPrivateHand EventType = "private_hand"
	EventGameEnd     EventType = "game_end"

	// Room-level events emitted by the session layer.
	EventRoomState          EventType = "room_state"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventPlayerReconnected  EventType = "player_reconnected"
	EventGraceExpired       EventType = "grace_expired"
	EventKicked             EventType = "kicked"
	EventChat               EventType = "chat"
)

// RankEntry is one row of the end-of-game ranking.
type RankEntry struct {
	Rank      int    `json:"rank"`
	Nickname  string `json:"nickname"`
	CardsLeft int    `json:"cardsLeft"`
}

// Event is the envelope for every outbound notification. Hands appear
// only in private events addressed to their owner.
type Event struct {
	Type     EventType              `json:"type"`
	Player   string                 `json:"player,omitempty"` // acting player's nickname
	Target   string                 `json:"target,omitempty"` // affected player's nickname
	Card     *engine.Card           `json:"card,omitempty"`
	Color    engine.Color           `json:"color,omitempty"`
	Hand     []engine.Card          `json:"hand,omitempty"`
	State    *PublicState           `json:"state,omitempty"`
	Rankings []RankEntry            `json:"rankings,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}
