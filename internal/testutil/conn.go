package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrFakeConnClosed is returned by FakeConn once the connection has ended
var ErrFakeConnClosed = errors.New("fake connection closed")

// FakeConn is an in-memory client connection. Tests push inbound frames and
// inspect what the server sent back.
type FakeConn struct {
	id    string
	inbox chan []byte

	mu          sync.Mutex
	sent        [][]byte
	sendErr     error
	closed      bool
	closeCode   int
	closeReason string
	done        chan struct{}
	doneOnce    sync.Once
	notify      chan struct{}
}

// NewFakeConn creates a FakeConn with the given connection id
func NewFakeConn(id string) *FakeConn {
	return &FakeConn{
		id:     id,
		inbox:  make(chan []byte, 64),
		done:   make(chan struct{}),
		notify: make(chan struct{}, 1),
	}
}

func (c *FakeConn) ID() string {
	return c.id
}

// Send records data unless a send error was configured or the connection is closed
func (c *FakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	if c.closed {
		return ErrFakeConnClosed
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

// Receive returns the next pushed frame. Frames pushed before a hangup are
// still delivered.
func (c *FakeConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbox:
		return data, nil
	default:
	}
	select {
	case data := <-c.inbox:
		return data, nil
	case <-c.done:
		return nil, ErrFakeConnClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close records the close code and reason. Only the first call is recorded.
func (c *FakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.closeCode = code
		c.closeReason = reason
	}
	c.mu.Unlock()
	c.doneOnce.Do(func() { close(c.done) })
	return nil
}

// Push queues an inbound text frame
func (c *FakeConn) Push(frame string) {
	c.inbox <- []byte(frame)
}

// PushJSON queues an inbound frame encoded from v
func (c *FakeConn) PushJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	c.inbox <- data
}

// Hangup simulates the peer dropping the connection without a close handshake
func (c *FakeConn) Hangup() {
	c.doneOnce.Do(func() { close(c.done) })
}

// SetSendError makes every subsequent Send fail with err
func (c *FakeConn) SetSendError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// Sent returns the raw frames sent to this connection
func (c *FakeConn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

// Messages decodes every sent frame as a JSON object
func (c *FakeConn) Messages() []map[string]any {
	var out []map[string]any
	for _, data := range c.Sent() {
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			panic(err)
		}
		out = append(out, msg)
	}
	return out
}

// WaitForMessages blocks until at least n frames were sent or the timeout expires
func (c *FakeConn) WaitForMessages(n int, timeout time.Duration) []map[string]any {
	deadline := time.After(timeout)
	for {
		c.mu.Lock()
		count := len(c.sent)
		c.mu.Unlock()
		if count >= n {
			return c.Messages()
		}
		select {
		case <-c.notify:
		case <-deadline:
			return c.Messages()
		}
	}
}

// CloseStatus reports whether Close was called and with which code and reason
func (c *FakeConn) CloseStatus() (closed bool, code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.closeCode, c.closeReason
}

// Done is closed once the connection has ended
func (c *FakeConn) Done() <-chan struct{} {
	return c.done
}
