// Package ws carries the websocket transport: the hub that fans events
// out to connections and the handler that decodes client intents.
package ws

import (
	"sync"

	"github.com/kavin024/colorclash/internal/game"
)

// Hub tracks live connections and their room membership and fans
// events out to them. It implements the session layer's Broadcaster.
//
// Delivery is non-blocking: events are queued on each client's send
// channel and dropped if the client cannot keep up, so a broadcast
// issued under a room lock never stalls the game.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]*client
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]*client),
	}
}

// ToRoom queues an event for every connection in a room.
func (h *Hub) ToRoom(code string, ev game.Event) {
	h.mu.RLock()
	members := h.rooms[code]
	targets := make([]*client, 0, len(members))
	for _, c := range members {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.enqueue(ev)
	}
}

// ToPlayer queues an event for a single connection.
func (h *Hub) ToPlayer(connID string, ev game.Event) {
	h.mu.RLock()
	c := h.clients[connID]
	h.mu.RUnlock()
	if c != nil {
		c.enqueue(ev)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

// unregister drops a connection from the hub and from every room.
func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	delete(h.clients, connID)
	for code, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
	h.mu.Unlock()
}

// joinRoom subscribes a connection to a room's broadcasts.
func (h *Hub) joinRoom(connID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[string]*client)
		h.rooms[code] = members
	}
	members[connID] = c
}

// unregisterFromRooms drops a connection's room subscriptions while
// keeping the connection itself alive. Used when a player is kicked.
func (h *Hub) unregisterFromRooms(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for code, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// leaveRoom unsubscribes a connection from a room's broadcasts.
func (h *Hub) leaveRoom(connID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}
