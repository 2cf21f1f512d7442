package room

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// codeAlphabet omits ambiguous glyphs (0/O, 1/I) so codes survive
// being read aloud.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// Registry is the in-memory index of live rooms. It also tracks which
// room each connection is bound to, so transport disconnects can be
// routed without the client naming a room.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	byConn map[string]string // connection id -> room code

	rng *rand.Rand
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		byConn: make(map[string]string),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create allocates a fresh room under a unique code and registers it.
func (reg *Registry) Create() *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	var code string
	for {
		code = reg.randomCode()
		if _, taken := reg.rooms[code]; !taken {
			break
		}
	}
	r := &Room{
		Code:      code,
		Phase:     PhaseLobby,
		CreatedAt: time.Now(),
	}
	reg.rooms[code] = r
	return r
}

func (reg *Registry) randomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[reg.rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// Get looks up a room by code. Codes are case-insensitive.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[strings.ToUpper(code)]
	return r, ok
}

// Delete removes a room and every connection binding pointing at it.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
	for connID, c := range reg.byConn {
		if c == code {
			delete(reg.byConn, connID)
		}
	}
}

// Bind records which room a connection belongs to.
func (reg *Registry) Bind(connID, code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.byConn[connID] = code
}

// Unbind drops a connection's room binding.
func (reg *Registry) Unbind(connID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.byConn, connID)
}

// CodeFor returns the room code a connection is bound to.
func (reg *Registry) CodeFor(connID string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	code, ok := reg.byConn[connID]
	return code, ok
}
