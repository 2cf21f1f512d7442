// Package cache publishes game action history to Redis for offline
// consumers (analytics, replays). The publisher is optional and
// fire-and-forget: a nil *Publisher silently drops records, and a
// publish failure never affects game state.
package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// actionQueueKey is the Redis list consumed by the history worker.
const actionQueueKey = "colorclash:game_actions"

// ActionRecord is one entry in a room's action history.
type ActionRecord struct {
	RoomCode    string                 `json:"roomCode"`
	ActionIndex int                    `json:"actionIndex"`
	Actor       string                 `json:"actor"` // connection id, empty for room events
	ActionType  string                 `json:"actionType"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   int64                  `json:"timestamp"` // unix millis
}

// Publisher pushes action records onto a Redis queue.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher connects a publisher to the given Redis address.
// Returns nil when addr is empty, which disables history publishing.
func NewPublisher(addr string) *Publisher {
	if addr == "" {
		return nil
	}
	return &Publisher{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// Publish enqueues one record. Safe to call on a nil publisher.
func (p *Publisher) Publish(ctx context.Context, rec ActionRecord) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.rdb.LPush(ctx, actionQueueKey, data).Err()
}

// Close releases the Redis connection. Safe to call on a nil publisher.
func (p *Publisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
