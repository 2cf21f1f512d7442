package room

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kavin024/colorclash/internal/engine"
	"github.com/kavin024/colorclash/internal/game"
	"github.com/kavin024/colorclash/internal/models"
)

// Reconnect reattaches a returning client to its seat. The seat is
// matched first by the previous connection id, then by nickname among
// disconnected seats (most recent disconnect wins). The seat record is
// updated in place, so the running game sees the new connection id
// immediately.
//
// In the lobby a failed match falls back to a fresh join; mid-game or
// on the results screen it is an error.
func (m *Manager) Reconnect(connID, code, nickname, oldID string) error {
	r, ok := m.reg.Get(code)
	if !ok {
		return models.NewError(models.ErrRoomNotFound, "no room with that code")
	}
	nickname = models.SanitizeNickname(nickname)

	r.Mu.Lock()
	var p *models.Player
	if oldID != "" {
		if cand := r.FindPlayer(oldID); cand != nil && !cand.Connected {
			p = cand
		}
	}
	if p == nil {
		p = r.FindDisconnectedByNickname(nickname)
	}
	if p == nil {
		phase := r.Phase
		r.Mu.Unlock()
		if phase == PhaseLobby {
			return m.JoinRoom(connID, nickname, code)
		}
		return models.NewError(models.ErrPlayerNotFound, "no disconnected seat matches you")
	}

	prevID := p.ID
	p.ID = connID
	p.Connected = true
	p.DisconnectedAt = time.Time{}
	if r.HostID == prevID {
		r.HostID = connID
	}
	roomSnapshot := r.Snapshot()
	nick := p.Nickname
	var stateSnapshot *game.PublicState
	var hand []engine.Card
	if r.Phase != PhaseLobby && r.Game != nil {
		stateSnapshot = r.Game.PublicSnapshot()
		hand, _ = r.Game.PrivateHand(connID)
		if r.Phase == PhaseGame {
			// Restart the clock if the room had gone fully idle.
			r.Game.Resume()
		}
	}
	r.Mu.Unlock()

	m.grace.Cancel(r.Code, prevID)
	m.reg.Unbind(prevID)
	m.reg.Bind(connID, r.Code)

	m.log.WithFields(logrus.Fields{"room": r.Code, "player": nick}).Info("player reconnected")
	m.bcast.ToRoom(r.Code, game.Event{Type: game.EventPlayerReconnected, Player: nick})
	m.bcast.ToPlayer(connID, game.Event{Type: game.EventRoomState, Payload: map[string]interface{}{"room": roomSnapshot}})
	if stateSnapshot != nil {
		m.bcast.ToPlayer(connID, game.Event{Type: game.EventGameState, State: stateSnapshot})
		if hand != nil {
			m.bcast.ToPlayer(connID, game.Event{Type: game.EventPrivateHand, Hand: hand})
		}
	}
	return nil
}
