// Package room implements the room registry and the session manager
// that orchestrates the lobby, game, and results phases of each room.
package room

import (
	"sync"
	"time"

	"github.com/kavin024/colorclash/internal/game"
	"github.com/kavin024/colorclash/internal/models"
)

// Phase is a room's lifecycle stage.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhaseGame    Phase = "game"
	PhaseResults Phase = "results"
)

// Room is one session: a roster of players moving through
// lobby -> game -> results, optionally looping back via rematch.
//
// Mu serializes every mutation of the room, including those made by
// the game's turn timer. Methods on Room assume Mu is held.
type Room struct {
	Code      string
	HostID    string
	Phase     Phase
	Players   []*models.Player
	Game      *game.Game
	CreatedAt time.Time

	Mu sync.Mutex
}

// FindPlayer returns the seat record with the given connection id.
// Assumes Mu is held.
func (r *Room) FindPlayer(connID string) *models.Player {
	for _, p := range r.Players {
		if p.ID == connID {
			return p
		}
	}
	return nil
}

// FindDisconnectedByNickname returns the disconnected player with the
// given nickname. When several disconnected seats share the nickname,
// the most recently disconnected one wins. Assumes Mu is held.
func (r *Room) FindDisconnectedByNickname(nickname string) *models.Player {
	var best *models.Player
	for _, p := range r.Players {
		if p.Connected || p.Nickname != nickname {
			continue
		}
		if best == nil || p.DisconnectedAt.After(best.DisconnectedAt) {
			best = p
		}
	}
	return best
}

// RoomState is the lobby/results view broadcast on membership changes.
type RoomState struct {
	Code    string           `json:"code"`
	Phase   Phase            `json:"phase"`
	HostID  string           `json:"hostId"`
	Players []*models.Player `json:"players"`
}

// Snapshot builds the room-level state view. Assumes Mu is held.
func (r *Room) Snapshot() *RoomState {
	players := make([]*models.Player, len(r.Players))
	copy(players, r.Players)
	return &RoomState{
		Code:    r.Code,
		Phase:   r.Phase,
		HostID:  r.HostID,
		Players: players,
	}
}
