package room

import (
	"sync"
	"time"
)

type graceKey struct {
	code   string
	connID string
}

// GraceManager tracks the per-player disconnect grace windows armed
// while a game is running. When a window expires without a reconnect
// the onExpire callback fires; it is invoked without any locks held.
type GraceManager struct {
	mu       sync.Mutex
	timers   map[graceKey]*time.Timer
	period   time.Duration
	onExpire func(code, connID, nickname string)
	stopped  bool
}

// NewGraceManager builds a grace manager with the given window length.
func NewGraceManager(period time.Duration, onExpire func(code, connID, nickname string)) *GraceManager {
	return &GraceManager{
		timers:   make(map[graceKey]*time.Timer),
		period:   period,
		onExpire: onExpire,
	}
}

// Arm starts (or restarts) the grace window for a disconnected player.
func (gm *GraceManager) Arm(code, connID, nickname string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.stopped {
		return
	}
	key := graceKey{code: code, connID: connID}
	if old, ok := gm.timers[key]; ok {
		old.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(gm.period, func() {
		gm.mu.Lock()
		current, live := gm.timers[key]
		// A Cancel or re-Arm that raced this fire wins.
		if !live || current != t || gm.stopped {
			gm.mu.Unlock()
			return
		}
		delete(gm.timers, key)
		gm.mu.Unlock()
		gm.onExpire(code, connID, nickname)
	})
	gm.timers[key] = t
}

// Cancel stops the grace window for a player, typically on reconnect.
func (gm *GraceManager) Cancel(code, connID string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	key := graceKey{code: code, connID: connID}
	if t, ok := gm.timers[key]; ok {
		t.Stop()
		delete(gm.timers, key)
	}
}

// CancelRoom stops every grace window belonging to a room.
func (gm *GraceManager) CancelRoom(code string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	for key, t := range gm.timers {
		if key.code == code {
			t.Stop()
			delete(gm.timers, key)
		}
	}
}

// Stop cancels every armed window and refuses new ones.
func (gm *GraceManager) Stop() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.stopped = true
	for key, t := range gm.timers {
		t.Stop()
		delete(gm.timers, key)
	}
}
