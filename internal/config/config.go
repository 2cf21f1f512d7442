// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries all tunables for one server process.
type Config struct {
	HTTPAddr     string
	TurnTimeout  time.Duration // per-turn clock while a game is running
	GracePeriod  time.Duration // disconnect grace window during a game
	RoomCapacity int           // maximum players per room
	RedisAddr    string        // empty disables the action history sink
	LogLevel     string
}

// Load reads configuration from the environment, falling back to
// defaults suitable for local development.
func Load() Config {
	return Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		TurnTimeout:  time.Duration(getenvInt("TURN_TIMEOUT_SEC", 25)) * time.Second,
		GracePeriod:  time.Duration(getenvInt("GRACE_PERIOD_SEC", 30)) * time.Second,
		RoomCapacity: getenvInt("ROOM_CAPACITY", 8),
		RedisAddr:    getenv("REDIS_ADDR", ""),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
