package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Output    string
	// Wait bounds how long a session waits for the server to finish after /quit
	Wait time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("WORDLOBBY_SERVER", "http://localhost:8000"),
		Output:    "text",
		Wait:      5 * time.Second,
	}
}

// WebsocketURL derives the session endpoint from the server URL
func (c *Config) WebsocketURL() (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.ServerURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	return u.String(), nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
