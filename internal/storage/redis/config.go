package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// LobbyTTL bounds how long an abandoned lobby can linger if the server
	// dies before reaping it. Saves do not refresh it, so a non-zero value
	// must outlast the longest expected game. Zero disables expiry and
	// lobbies live until the last connection leaves.
	LobbyTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}
