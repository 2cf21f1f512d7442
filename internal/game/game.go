package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kavin024/colorclash/internal/cache"
	"github.com/kavin024/colorclash/internal/engine"
	"github.com/kavin024/colorclash/internal/models"
)

// Game orchestrates one room's game in progress: it owns the engine
// state, the turn clock, and the clash-call mini state machine, and
// emits events through the broadcast callbacks.
//
// All mutations of a room (player intents, turn timeouts, membership
// changes) are serialized behind the single room lock passed to New.
// Exported methods assume that lock is held by the caller; the turn
// timer acquires it itself, so timeout-driven and intent-driven
// mutations can never race.
type Game struct {
	ID       uuid.UUID
	RoomCode string

	// Players is the room roster, shared by reference with the Room.
	// Seat i of the engine state belongs to Players[i]; the slice is
	// never copied, so in-place record updates (reconnect id remap)
	// are visible here immediately.
	Players []*models.Player

	State *engine.GameState

	// ClashCalledBy is the nickname of the last player to declare
	// themselves safe on one card; cleared by any play.
	ClashCalledBy string

	TurnDuration time.Duration
	TurnID       int

	turnTimer   *time.Timer
	stopped     bool
	actionIndex int

	lk      sync.Locker
	log     *logrus.Entry
	history *cache.Publisher

	BroadcastFn         func(ev Event)
	BroadcastToPlayerFn func(connID string, ev Event)
}

// New deals a fresh game for the given roster. lk must be the lock
// that serializes all mutations of the owning room.
func New(roomCode string, players []*models.Player, seed int64, lk sync.Locker) *Game {
	g := &Game{
		ID:           uuid.New(),
		RoomCode:     roomCode,
		Players:      players,
		State:        engine.NewGame(len(players), seed),
		TurnDuration: 25 * time.Second,
		lk:           lk,
	}
	g.log = logrus.WithFields(logrus.Fields{"room": roomCode, "game": g.ID})
	return g
}

// SetHistory attaches the optional action history publisher.
func (g *Game) SetHistory(p *cache.Publisher) { g.history = p }

// Begin starts the first turn: private hands go out to every player,
// followed by the public snapshot, and the turn clock is armed.
// Assumes the room lock is held by the caller.
func (g *Game) Begin() {
	g.State.TurnStartedAt = time.Now()
	g.logAction("", "game_start", map[string]interface{}{"players": len(g.Players)})
	for _, p := range g.Players {
		g.sendHand(p)
	}
	g.broadcastState()
	g.fireTurn()
	g.scheduleTurnTimer()
}

// Finished reports whether the game has a winner.
func (g *Game) Finished() bool { return g.State.Winner != engine.NoSeat }

// WinnerNickname returns the winner's nickname, or empty while live.
func (g *Game) WinnerNickname() string {
	if g.State.Winner == engine.NoSeat {
		return ""
	}
	return g.Players[g.State.Winner].Nickname
}

// Stop cancels the turn clock and marks the game inert. Called when
// the room leaves the game phase. Assumes the room lock is held.
func (g *Game) Stop() {
	g.cancelTurnTimer()
	g.stopped = true
}

// Pause cancels the turn clock without ending the game. Used when the
// last connected player drops, so an empty room is not ticked forever.
// Assumes the room lock is held.
func (g *Game) Pause() {
	g.cancelTurnTimer()
}

// Resume re-arms a paused turn clock for the current seat. No-op when
// the clock is already running or the game is over. Assumes the room
// lock is held.
func (g *Game) Resume() {
	if g.turnTimer != nil || g.stopped || g.Finished() {
		return
	}
	g.nextTurn()
}

// seatOf resolves a connection id to its seat. Assumes lock held.
func (g *Game) seatOf(connID string) (int, *models.Player, bool) {
	for seat, p := range g.Players {
		if p.ID == connID {
			return seat, p, true
		}
	}
	return 0, nil, false
}

// PlayCard validates and resolves a play of the card at cardIndex in
// the caller's hand. chosenColor is required for wild variants.
// Assumes the room lock is held by the caller.
func (g *Game) PlayCard(connID string, cardIndex int, chosenColor string) error {
	seat, p, ok := g.seatOf(connID)
	if !ok {
		return models.NewError(models.ErrPlayerNotFound, "you are not seated in this game")
	}
	if g.Finished() {
		return models.NewError(models.ErrInvalidMove, "the game has already ended")
	}
	if seat != g.State.CurrentPlayerIndex {
		return models.NewError(models.ErrNotYourTurn, "it is not your turn")
	}
	hand := g.State.Hands[seat]
	if cardIndex < 0 || cardIndex >= len(hand) {
		return models.NewError(models.ErrInvalidCard, "no such card in your hand")
	}
	card := hand[cardIndex]
	top, _ := g.State.TopDiscard()
	if !engine.IsValidPlay(card, top, g.State.CurrentColor) {
		return models.NewError(models.ErrInvalidMove, "that card cannot be played now")
	}
	var chosen engine.Color
	if card.IsWild() {
		c, valid := engine.ParseColor(chosenColor)
		if !valid {
			return models.NewError(models.ErrMissingColorChoice, "playing a wild requires choosing a color")
		}
		chosen = c
	}

	// Any play clears the player's own safety flag and the room-wide call.
	p.ClashSafe = false
	g.ClashCalledBy = ""

	eff := g.State.PlayCard(seat, cardIndex, chosen)
	g.logAction(p.ID, "play_card", map[string]interface{}{"card": card.String(), "color": string(g.State.CurrentColor)})

	ev := Event{Type: eventForEffect(eff.Kind), Player: p.Nickname, Card: &card}
	if card.IsWild() {
		ev.Color = chosen
	}
	var victim *models.Player
	if eff.VictimSeat != engine.NoSeat {
		victim = g.Players[eff.VictimSeat]
		ev.Target = victim.Nickname
		ev.Payload = map[string]interface{}{"drew": eff.VictimDrew}
	}
	g.fire(ev)
	g.sendHand(p)
	if victim != nil {
		g.sendHand(victim)
	}

	if eff.Won {
		g.finish(p)
		return nil
	}
	g.nextTurn()
	g.broadcastState()
	return nil
}

// DrawCard draws one card for the caller and passes the turn.
// Assumes the room lock is held by the caller.
func (g *Game) DrawCard(connID string) error {
	seat, p, ok := g.seatOf(connID)
	if !ok {
		return models.NewError(models.ErrPlayerNotFound, "you are not seated in this game")
	}
	if g.Finished() {
		return models.NewError(models.ErrInvalidMove, "the game has already ended")
	}
	if seat != g.State.CurrentPlayerIndex {
		return models.NewError(models.ErrNotYourTurn, "it is not your turn")
	}

	drawn := g.State.DrawCards(seat, 1)
	g.logAction(p.ID, "draw_card", map[string]interface{}{"count": len(drawn)})
	g.fire(Event{Type: EventDraw, Player: p.Nickname, Payload: map[string]interface{}{"count": len(drawn)}})
	g.sendHand(p)
	g.State.Advance(1)
	g.nextTurn()
	g.broadcastState()
	return nil
}

// CallClash lets a player on exactly one card declare themselves safe
// from accusation. Available to any connected player regardless of
// turn. Assumes the room lock is held by the caller.
func (g *Game) CallClash(connID string) error {
	seat, p, ok := g.seatOf(connID)
	if !ok {
		return models.NewError(models.ErrPlayerNotFound, "you are not seated in this game")
	}
	if g.Finished() {
		return models.NewError(models.ErrInvalidMove, "the game has already ended")
	}
	if len(g.State.Hands[seat]) != 1 {
		return models.NewError(models.ErrInvalidMove, "a clash call requires exactly one card in hand")
	}
	p.ClashSafe = true
	g.ClashCalledBy = p.Nickname
	g.logAction(p.ID, "clash_called", nil)
	g.fire(Event{Type: EventClashCalled, Player: p.Nickname})
	g.broadcastState()
	return nil
}

// AccuseClash penalizes a one-card player who failed to call safe:
// a valid accusation forces the target to draw two cards. Independent
// of turn order. Assumes the room lock is held by the caller.
func (g *Game) AccuseClash(connID, targetID string) error {
	_, accuser, ok := g.seatOf(connID)
	if !ok {
		return models.NewError(models.ErrPlayerNotFound, "you are not seated in this game")
	}
	if g.Finished() {
		return models.NewError(models.ErrInvalidMove, "the game has already ended")
	}
	targetSeat, target, ok := g.seatOf(targetID)
	if !ok {
		return models.NewError(models.ErrPlayerNotFound, "no such player in this game")
	}
	if len(g.State.Hands[targetSeat]) != 1 || target.ClashSafe {
		return models.NewError(models.ErrInvalidAccusationTarget, "that player cannot be accused")
	}

	drawn := g.State.DrawCards(targetSeat, 2)
	g.logAction(accuser.ID, "clash_accused", map[string]interface{}{"target": target.Nickname, "drew": len(drawn)})
	g.fire(Event{
		Type:    EventClashAccused,
		Player:  accuser.Nickname,
		Target:  target.Nickname,
		Payload: map[string]interface{}{"drew": len(drawn)},
	})
	g.sendHand(target)
	g.broadcastState()
	return nil
}

// nextTurn bumps the turn id, stamps the turn start, notifies
// observers, and re-arms the clock. Assumes lock held.
func (g *Game) nextTurn() {
	g.TurnID++
	g.State.TurnStartedAt = time.Now()
	g.fireTurn()
	g.scheduleTurnTimer()
}

// fireTurn announces whose turn it is. Assumes lock held.
func (g *Game) fireTurn() {
	if g.Finished() {
		return
	}
	current := g.Players[g.State.CurrentPlayerIndex]
	g.fire(Event{Type: EventTurn, Player: current.Nickname, Payload: map[string]interface{}{"turn": g.TurnID}})
}

// finish ends the game: the clock stops, rankings go out, and the
// final snapshot is broadcast. Assumes lock held.
func (g *Game) finish(winner *models.Player) {
	g.cancelTurnTimer()
	ranks := g.rankings()
	g.log.WithField("winner", winner.Nickname).Info("game over")
	g.logAction(winner.ID, "game_end", map[string]interface{}{"winner": winner.Nickname})
	g.fire(Event{Type: EventGameEnd, Player: winner.Nickname, Rankings: ranks})
	g.broadcastState()
}

// rankings maps the engine's seat ranking to nicknames. Assumes lock held.
func (g *Game) rankings() []RankEntry {
	seats := g.State.Rankings()
	out := make([]RankEntry, 0, len(seats))
	for i, seat := range seats {
		out = append(out, RankEntry{
			Rank:      i + 1,
			Nickname:  g.Players[seat].Nickname,
			CardsLeft: len(g.State.Hands[seat]),
		})
	}
	return out
}

func eventForEffect(kind engine.EffectKind) EventType {
	switch kind {
	case engine.EffectSkip:
		return EventSkip
	case engine.EffectReverse:
		return EventReverse
	case engine.EffectDrawPenalty:
		return EventDrawPenalty
	case engine.EffectWild:
		return EventWild
	}
	return EventPlay
}

// fire broadcasts an event to the whole room. Assumes lock held.
func (g *Game) fire(ev Event) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// fireTo sends an event to a single connection. Assumes lock held.
func (g *Game) fireTo(connID string, ev Event) {
	if g.BroadcastToPlayerFn != nil {
		g.BroadcastToPlayerFn(connID, ev)
	}
}

// sendHand pushes a player's full hand privately to that player only.
// Assumes lock held.
func (g *Game) sendHand(p *models.Player) {
	if !p.Connected {
		return
	}
	hand, ok := g.PrivateHand(p.ID)
	if !ok {
		return
	}
	g.fireTo(p.ID, Event{Type: EventPrivateHand, Hand: hand})
}

// broadcastState sends the redacted snapshot to the room. Assumes lock held.
func (g *Game) broadcastState() {
	g.fire(Event{Type: EventGameState, State: g.PublicSnapshot()})
}

// logAction enqueues an entry in the room's action history. Publishing
// is asynchronous and fire-and-forget; failures never touch game state.
func (g *Game) logAction(actor, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	rec := cache.ActionRecord{
		RoomCode:    g.RoomCode,
		ActionIndex: g.actionIndex,
		Actor:       actor,
		ActionType:  actionType,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}
	history := g.history
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := history.Publish(ctx, rec); err != nil {
			g.log.WithError(err).Warn("failed to publish action record")
		}
	}()
}
