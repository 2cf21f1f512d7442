// Package models holds the shared data records and error vocabulary of
// the session layer.
package models

import (
	"strings"
	"time"
)

// MaxNicknameLen bounds stored nicknames.
const MaxNicknameLen = 20

// Player is the single owned record for one seat in a room. The room
// roster and any in-progress game share the same *Player, never a
// second copy, so in-place updates (connection id remap on reconnect,
// connected flag) are visible everywhere at once.
//
// ID is the current transport connection identifier and is reassignable;
// the durable identity is Nickname plus room membership.
type Player struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Connected bool   `json:"connected"`
	ClashSafe bool   `json:"clashSafe"`

	// DisconnectedAt orders disconnected seats so that a reconnect by
	// nickname can deterministically pick the most recent one.
	DisconnectedAt time.Time `json:"-"`
}

// SanitizeNickname trims, bounds, and defaults a client-supplied nickname.
func SanitizeNickname(nickname string) string {
	trimmed := strings.TrimSpace(nickname)
	if trimmed == "" {
		return "Player"
	}
	if len(trimmed) > MaxNicknameLen {
		return trimmed[:MaxNicknameLen]
	}
	return trimmed
}
