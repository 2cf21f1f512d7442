package game

import "time"

// scheduleTurnTimer arms the per-turn clock for the current turn,
// replacing any previously armed timer. Assumes the room lock is held.
func (g *Game) scheduleTurnTimer() {
	g.cancelTurnTimer()
	if g.TurnDuration <= 0 || g.stopped || g.Finished() {
		return
	}
	turnID := g.TurnID
	g.turnTimer = time.AfterFunc(g.TurnDuration, func() {
		g.lk.Lock()
		defer g.lk.Unlock()
		defer func() {
			if r := recover(); r != nil {
				g.log.WithField("panic", r).Error("turn timeout handler panicked")
			}
		}()
		// Stale fire: the turn already advanced or the game ended
		// between the timer firing and the lock being acquired.
		if g.stopped || g.Finished() || g.TurnID != turnID {
			return
		}
		g.handleTurnTimeout()
	})
}

// handleTurnTimeout resolves an expired turn clock: a connected player
// is forced to draw one card and pass; a disconnected player's turn is
// skipped silently with no penalty draw. Assumes the room lock is held.
func (g *Game) handleTurnTimeout() {
	seat := g.State.CurrentPlayerIndex
	p := g.Players[seat]
	if !p.Connected {
		g.log.WithField("player", p.Nickname).Debug("skipping disconnected player's turn")
		g.logAction(p.ID, "turn_skipped", map[string]interface{}{"reason": "disconnected"})
		g.fire(Event{Type: EventSkip, Player: p.Nickname, Payload: map[string]interface{}{"reason": "disconnected"}})
		g.State.Advance(1)
	} else {
		drawn := g.State.DrawCards(seat, 1)
		g.log.WithField("player", p.Nickname).Debug("turn clock expired, forcing draw")
		g.logAction(p.ID, "turn_timeout", map[string]interface{}{"drew": len(drawn)})
		g.fire(Event{Type: EventDraw, Player: p.Nickname, Payload: map[string]interface{}{"count": len(drawn), "reason": "timeout"}})
		g.sendHand(p)
		g.State.Advance(1)
	}
	g.nextTurn()
	g.broadcastState()
}

// cancelTurnTimer stops any armed turn clock. Assumes the room lock is held.
func (g *Game) cancelTurnTimer() {
	if g.turnTimer != nil {
		g.turnTimer.Stop()
		g.turnTimer = nil
	}
}
