package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/wordlobby/internal/session"
)

var (
	// ErrConnClosed is returned once the connection has ended or a close was queued
	ErrConnClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned when a slow peer has too many queued frames
	ErrSendBufferFull = errors.New("send buffer full")
)

type frame struct {
	messageType int
	data        []byte
}

// Client adapts a gorilla websocket connection to the session Conn contract.
// A reader goroutine feeds Receive and a writer goroutine drains the send
// queue, so Send never blocks on the network.
type Client struct {
	id     string
	conn   *websocket.Conn
	cfg    Config
	logger *slog.Logger

	send    chan frame
	inbound chan []byte

	done     chan struct{}
	doneOnce sync.Once
	writerWG sync.WaitGroup

	mu      sync.Mutex
	closing bool
}

// Ensure Client implements the session connection contract
var _ session.Conn = (*Client)(nil)

// NewClient wraps conn. Call Start before use.
func NewClient(id string, conn *websocket.Conn, cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		id:      id,
		conn:    conn,
		cfg:     cfg,
		logger:  logger.With(slog.String("conn_id", id)),
		send:    make(chan frame, cfg.SendBuffer),
		inbound: make(chan []byte),
		done:    make(chan struct{}),
	}
}

// Start launches the reader and writer goroutines
func (c *Client) Start() {
	c.writerWG.Add(1)
	go c.writePump()
	go c.readPump()
}

// Wait blocks until the writer has flushed and the socket is closed
func (c *Client) Wait() {
	c.writerWG.Wait()
}

func (c *Client) ID() string {
	return c.id
}

// Send queues a text frame
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing {
		return ErrConnClosed
	}
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- frame{messageType: websocket.TextMessage, data: data}:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Receive returns the next inbound text frame
func (c *Client) Receive(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	default:
	}

	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.done:
		return nil, ErrConnClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close queues a close frame behind any pending frames. Later sends fail.
func (c *Client) Close(code int, reason string) error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.mu.Unlock()

	msg := websocket.FormatCloseMessage(code, reason)
	select {
	case c.send <- frame{messageType: websocket.CloseMessage, data: msg}:
	default:
		// Queue full: the peer is not reading, drop it
		c.shutdown()
		return c.conn.Close()
	}
	return nil
}

func (c *Client) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

// readPump pumps frames from the websocket connection to Receive
func (c *Client) readPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Info("websocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		select {
		case c.inbound <- data:
		case <-c.done:
			return
		}
	}
}

// writePump pumps queued frames to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		c.shutdown()
		_ = c.conn.Close()
		c.writerWG.Done()
	}()

	for {
		select {
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(f.messageType, f.data); err != nil {
				c.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}
			if f.messageType == websocket.CloseMessage {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
