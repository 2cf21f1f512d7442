package room

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kavin024/colorclash/internal/cache"
	"github.com/kavin024/colorclash/internal/config"
	"github.com/kavin024/colorclash/internal/game"
	"github.com/kavin024/colorclash/internal/models"
)

// Broadcaster delivers events to connected clients. The websocket hub
// implements it; tests substitute a recorder.
type Broadcaster interface {
	ToRoom(code string, ev game.Event)
	ToPlayer(connID string, ev game.Event)
}

// MinPlayers is the smallest roster a game can start with.
const MinPlayers = 2

// Manager is the session orchestrator: it owns the registry and the
// grace windows, applies room-level rules, and routes game intents to
// the room's game under the room lock.
type Manager struct {
	reg     *Registry
	grace   *GraceManager
	cfg     config.Config
	history *cache.Publisher
	bcast   Broadcaster
	log     *logrus.Entry
}

// NewManager wires a session manager from its collaborators.
func NewManager(cfg config.Config, bcast Broadcaster, history *cache.Publisher) *Manager {
	m := &Manager{
		reg:     NewRegistry(),
		cfg:     cfg,
		history: history,
		bcast:   bcast,
		log:     logrus.WithField("component", "session"),
	}
	m.grace = NewGraceManager(cfg.GracePeriod, m.onGraceExpired)
	return m
}

// Stop cancels all grace windows and every running game's turn clock.
func (m *Manager) Stop() {
	m.grace.Stop()
	m.reg.mu.Lock()
	rooms := make([]*Room, 0, len(m.reg.rooms))
	for _, r := range m.reg.rooms {
		rooms = append(rooms, r)
	}
	m.reg.mu.Unlock()
	for _, r := range rooms {
		r.Mu.Lock()
		if r.Game != nil {
			r.Game.Stop()
		}
		r.Mu.Unlock()
	}
}

// RoomSnapshot returns the room-level view for a code, for the HTTP
// lookup endpoint and for post-create acks.
func (m *Manager) RoomSnapshot(code string) (*RoomState, bool) {
	r, ok := m.reg.Get(code)
	if !ok {
		return nil, false
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.Snapshot(), true
}

// CreateRoom opens a fresh lobby with the caller as host and returns
// its code.
func (m *Manager) CreateRoom(connID, nickname string) (string, error) {
	r := m.reg.Create()
	p := &models.Player{
		ID:        connID,
		Nickname:  models.SanitizeNickname(nickname),
		Connected: true,
	}
	r.Mu.Lock()
	r.Players = append(r.Players, p)
	r.HostID = connID
	snapshot := r.Snapshot()
	r.Mu.Unlock()

	m.reg.Bind(connID, r.Code)
	m.log.WithFields(logrus.Fields{"room": r.Code, "host": p.Nickname}).Info("room created")
	m.broadcastRoomState(r.Code, snapshot)
	return r.Code, nil
}

// JoinRoom seats a new player in a lobby. Joining a room the
// connection is already seated in is a no-op.
func (m *Manager) JoinRoom(connID, nickname, code string) error {
	r, ok := m.reg.Get(code)
	if !ok {
		return models.NewError(models.ErrRoomNotFound, "no room with that code")
	}
	r.Mu.Lock()
	if r.FindPlayer(connID) != nil {
		r.Mu.Unlock()
		return nil
	}
	if r.Phase != PhaseLobby {
		r.Mu.Unlock()
		return models.NewError(models.ErrGameInProgress, "the game has already started")
	}
	if len(r.Players) >= m.cfg.RoomCapacity {
		r.Mu.Unlock()
		return models.NewError(models.ErrRoomFull, "the room is full")
	}
	p := &models.Player{
		ID:        connID,
		Nickname:  models.SanitizeNickname(nickname),
		Connected: true,
	}
	r.Players = append(r.Players, p)
	snapshot := r.Snapshot()
	r.Mu.Unlock()

	m.reg.Bind(connID, r.Code)
	m.log.WithFields(logrus.Fields{"room": r.Code, "player": p.Nickname}).Info("player joined")
	m.broadcastRoomState(r.Code, snapshot)
	return nil
}

// Kick removes a player from the lobby. Host only, lobby only.
func (m *Manager) Kick(connID, targetID string) error {
	r, err := m.roomFor(connID)
	if err != nil {
		return err
	}
	r.Mu.Lock()
	if r.HostID != connID {
		r.Mu.Unlock()
		return models.NewError(models.ErrNotHost, "only the host can kick players")
	}
	if r.Phase != PhaseLobby {
		r.Mu.Unlock()
		return models.NewError(models.ErrGameInProgress, "players cannot be kicked mid-game")
	}
	target := r.FindPlayer(targetID)
	if target == nil || targetID == connID {
		r.Mu.Unlock()
		return models.NewError(models.ErrPlayerNotFound, "no such player to kick")
	}
	m.removePlayerLocked(r, target)
	snapshot := r.Snapshot()
	empty := len(r.Players) == 0
	r.Mu.Unlock()

	m.bcast.ToPlayer(targetID, game.Event{Type: game.EventKicked, Player: target.Nickname})
	m.reg.Unbind(targetID)
	if empty {
		m.deleteRoom(r.Code)
		return nil
	}
	m.broadcastRoomState(r.Code, snapshot)
	return nil
}

// DisconnectNotify handles a transport-level disconnect. In the lobby
// the seat is simply removed; during a game or on the results screen
// the seat is kept, marked disconnected, and a grace window is armed.
func (m *Manager) DisconnectNotify(connID string) {
	code, ok := m.reg.CodeFor(connID)
	if !ok {
		return
	}
	r, ok := m.reg.Get(code)
	if !ok {
		m.reg.Unbind(connID)
		return
	}
	r.Mu.Lock()
	p := r.FindPlayer(connID)
	if p == nil {
		r.Mu.Unlock()
		m.reg.Unbind(connID)
		return
	}

	if r.Phase == PhaseLobby {
		m.removePlayerLocked(r, p)
		snapshot := r.Snapshot()
		empty := len(r.Players) == 0
		r.Mu.Unlock()

		m.reg.Unbind(connID)
		if empty {
			m.deleteRoom(code)
			return
		}
		m.broadcastRoomState(code, snapshot)
		return
	}

	p.Connected = false
	p.DisconnectedAt = time.Now()
	nickname := p.Nickname
	allGone := true
	for _, other := range r.Players {
		if other.Connected {
			allGone = false
			break
		}
	}
	if allGone && r.Game != nil {
		// The seats stay reclaimable; just stop ticking an empty room.
		r.Game.Pause()
	}
	r.Mu.Unlock()

	m.reg.Unbind(connID)
	m.grace.Arm(code, connID, nickname)
	m.log.WithFields(logrus.Fields{"room": code, "player": nickname}).Info("player disconnected")
	m.bcast.ToRoom(code, game.Event{Type: game.EventPlayerDisconnected, Player: nickname})
}

// removePlayerLocked drops a seat from the roster and transfers the
// host role if needed. Assumes r.Mu is held.
func (m *Manager) removePlayerLocked(r *Room, p *models.Player) {
	for i, other := range r.Players {
		if other == p {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			break
		}
	}
	if r.HostID == p.ID && len(r.Players) > 0 {
		r.HostID = r.Players[0].ID
	}
}

// deleteRoom tears a room down: game clock, grace windows, registry entry.
func (m *Manager) deleteRoom(code string) {
	m.grace.CancelRoom(code)
	m.reg.Delete(code)
	m.log.WithField("room", code).Info("room deleted")
}

// StartGame deals a new game for the lobby. Host only, two players
// minimum.
func (m *Manager) StartGame(connID string) error {
	r, err := m.roomFor(connID)
	if err != nil {
		return err
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.HostID != connID {
		return models.NewError(models.ErrNotHost, "only the host can start the game")
	}
	if r.Phase != PhaseLobby {
		return models.NewError(models.ErrGameInProgress, "the game has already started")
	}
	if len(r.Players) < MinPlayers {
		return models.NewError(models.ErrInvalidMove, "at least two players are needed to start")
	}

	g := game.New(r.Code, r.Players, time.Now().UnixNano(), &r.Mu)
	g.TurnDuration = m.cfg.TurnTimeout
	g.SetHistory(m.history)
	code := r.Code
	g.BroadcastFn = func(ev game.Event) { m.bcast.ToRoom(code, ev) }
	g.BroadcastToPlayerFn = func(connID string, ev game.Event) { m.bcast.ToPlayer(connID, ev) }
	r.Game = g
	r.Phase = PhaseGame

	m.log.WithFields(logrus.Fields{"room": code, "players": len(r.Players)}).Info("game started")
	m.bcast.ToRoom(code, game.Event{Type: game.EventRoomState, Payload: map[string]interface{}{"room": r.Snapshot()}})
	g.Begin()
	return nil
}

// PlayCard routes a play intent to the room's game.
func (m *Manager) PlayCard(connID string, cardIndex int, chosenColor string) error {
	return m.withGame(connID, func(r *Room) error {
		return r.Game.PlayCard(connID, cardIndex, chosenColor)
	})
}

// DrawCard routes a voluntary draw to the room's game.
func (m *Manager) DrawCard(connID string) error {
	return m.withGame(connID, func(r *Room) error {
		return r.Game.DrawCard(connID)
	})
}

// CallClash routes a clash safety call to the room's game.
func (m *Manager) CallClash(connID string) error {
	return m.withGame(connID, func(r *Room) error {
		return r.Game.CallClash(connID)
	})
}

// AccuseClash routes a clash accusation to the room's game.
func (m *Manager) AccuseClash(connID, targetID string) error {
	return m.withGame(connID, func(r *Room) error {
		return r.Game.AccuseClash(connID, targetID)
	})
}

// withGame runs fn under the room lock after checking the room is in
// the game phase, then moves the room to results if the game ended.
func (m *Manager) withGame(connID string, fn func(r *Room) error) error {
	r, err := m.roomFor(connID)
	if err != nil {
		return err
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.Phase != PhaseGame || r.Game == nil {
		return models.NewError(models.ErrGameNotStarted, "no game is running in this room")
	}
	if err := fn(r); err != nil {
		return err
	}
	if r.Game.Finished() && r.Phase == PhaseGame {
		r.Phase = PhaseResults
		m.bcast.ToRoom(r.Code, game.Event{Type: game.EventRoomState, Payload: map[string]interface{}{"room": r.Snapshot()}})
	}
	return nil
}

// Rematch resets a finished room back to the lobby. Disconnected seats
// are pruned; the host role passes to the first remaining player if the
// host left.
func (m *Manager) Rematch(connID string) error {
	r, err := m.roomFor(connID)
	if err != nil {
		return err
	}
	r.Mu.Lock()
	if r.Phase != PhaseResults {
		r.Mu.Unlock()
		return models.NewError(models.ErrInvalidMove, "a rematch is only possible from the results screen")
	}
	if r.FindPlayer(connID) == nil {
		r.Mu.Unlock()
		return models.NewError(models.ErrPlayerNotFound, "you are not in this room")
	}

	kept := r.Players[:0]
	for _, p := range r.Players {
		if p.Connected {
			p.ClashSafe = false
			kept = append(kept, p)
		}
	}
	r.Players = kept
	if r.FindPlayer(r.HostID) == nil && len(r.Players) > 0 {
		r.HostID = r.Players[0].ID
	}
	if r.Game != nil {
		r.Game.Stop()
		r.Game = nil
	}
	r.Phase = PhaseLobby
	snapshot := r.Snapshot()
	r.Mu.Unlock()

	m.grace.CancelRoom(r.Code)
	m.log.WithField("room", r.Code).Info("rematch, back to lobby")
	m.broadcastRoomState(r.Code, snapshot)
	return nil
}

// Chat relays a chat line to the room.
func (m *Manager) Chat(connID, message string) error {
	r, err := m.roomFor(connID)
	if err != nil {
		return err
	}
	r.Mu.Lock()
	p := r.FindPlayer(connID)
	r.Mu.Unlock()
	if p == nil {
		return models.NewError(models.ErrPlayerNotFound, "you are not in this room")
	}
	m.bcast.ToRoom(r.Code, game.Event{Type: game.EventChat, Player: p.Nickname, Payload: map[string]interface{}{"message": message}})
	return nil
}

// roomFor resolves a connection's bound room.
func (m *Manager) roomFor(connID string) (*Room, error) {
	code, ok := m.reg.CodeFor(connID)
	if !ok {
		return nil, models.NewError(models.ErrRoomNotFound, "you are not in a room")
	}
	r, ok := m.reg.Get(code)
	if !ok {
		return nil, models.NewError(models.ErrRoomNotFound, "no room with that code")
	}
	return r, nil
}

// onGraceExpired fires when a disconnect grace window lapses without a
// reconnect. The seat stays in the roster so a late reconnect still
// works; observers are only notified that the window closed.
func (m *Manager) onGraceExpired(code, connID, nickname string) {
	r, ok := m.reg.Get(code)
	if !ok {
		return
	}
	r.Mu.Lock()
	p := r.FindPlayer(connID)
	stillGone := p != nil && !p.Connected
	r.Mu.Unlock()
	if !stillGone {
		return
	}
	m.log.WithFields(logrus.Fields{"room": code, "player": nickname}).Info("grace window expired")
	m.bcast.ToRoom(code, game.Event{Type: game.EventGraceExpired, Player: nickname})
}

// broadcastRoomState sends the room-level snapshot to every member.
func (m *Manager) broadcastRoomState(code string, snapshot *RoomState) {
	m.bcast.ToRoom(code, game.Event{Type: game.EventRoomState, Payload: map[string]interface{}{"room": snapshot}})
}
