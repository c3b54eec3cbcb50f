package ws

import "time"

// Config holds websocket connection settings
type Config struct {
	// IdleTimeout is how long a connection may go without any frame or pong
	// from the peer before it is dropped. Pings are sent at 9/10 of it.
	IdleTimeout time.Duration

	// WriteWait is the time allowed to write a single frame
	WriteWait time.Duration

	// MaxMessageSize is the largest inbound frame accepted, in bytes
	MaxMessageSize int64

	// SendBuffer is the number of outbound frames queued per connection
	SendBuffer int

	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultConfig returns sensible defaults for websocket connections
func DefaultConfig() Config {
	return Config{
		IdleTimeout:     60 * time.Second,
		WriteWait:       10 * time.Second,
		MaxMessageSize:  4096,
		SendBuffer:      256,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	return c
}

func (c Config) pingPeriod() time.Duration {
	return (c.IdleTimeout * 9) / 10
}
