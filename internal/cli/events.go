package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/wordlobby/internal/model"
	"github.com/mcoot/wordlobby/internal/protocol"
)

const handshakeTimeout = 30 * time.Second

// runSession opens a websocket, performs the start or join handshake, then
// relays stdin lines to the server until the user quits or the server closes
// the connection.
func runSession(cmd *cobra.Command, cfg *Config, event model.EventType, payload any) error {
	ctx := cmd.Context()
	out := NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())

	wsURL, err := cfg.WebsocketURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := sendEvent(conn, event, payload); err != nil {
		return err
	}

	// The first frame is either the confirmation or the reason for rejection
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	first, err := readEvent(conn)
	if err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}
	out.PrintEvent(first)
	if first.Event == model.EventError {
		return errors.New(first.Message)
	}
	_ = conn.SetReadDeadline(time.Time{})

	done := make(chan error, 1)
	go func() { done <- relayEvents(conn, out) }()

	lines := scanLines(cmd.InOrStdin())
	for {
		select {
		case <-ctx.Done():
			return leave(conn, done, cfg.Wait)
		case err := <-done:
			return err
		case line, ok := <-lines:
			if !ok {
				return leave(conn, done, cfg.Wait)
			}
			quit, err := sendLine(conn, line)
			if err != nil {
				return err
			}
			if quit {
				return leave(conn, done, cfg.Wait)
			}
		}
	}
}

// sendLine maps one line of user input onto a client event
func sendLine(conn *websocket.Conn, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false, nil
	case line == "/quit":
		return true, nil
	case line == "/guess" || strings.HasPrefix(line, "/guess "):
		guess := strings.TrimSpace(strings.TrimPrefix(line, "/guess"))
		return false, sendEvent(conn, model.EventGuess, protocol.GuessPayload{Guess: guess})
	default:
		return false, sendEvent(conn, model.EventChatMessage, protocol.ChatPayload{Text: line})
	}
}

// leave asks the server to end the session and waits for it to close the connection
func leave(conn *websocket.Conn, done <-chan error, wait time.Duration) error {
	if err := sendEvent(conn, model.EventDisconnect, protocol.EmptyPayload{}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-time.After(wait):
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		return errors.New("timed out waiting for the server to close the session")
	}
}

// relayEvents prints server events until the connection closes. A normal
// closure from the server is not an error.
func relayEvents(conn *websocket.Conn, out *Output) error {
	for {
		ev, err := readEvent(conn)
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("server closed the session: %d %s", closeErr.Code, closeErr.Text)
			}
			return fmt.Errorf("stream error: %w", err)
		}
		out.PrintEvent(ev)
	}
}

func sendEvent(conn *websocket.Conn, event model.EventType, payload any) error {
	data, err := protocol.EncodeEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}
	return nil
}

func readEvent(conn *websocket.Conn) (*protocol.ServerEvent, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	ev, err := protocol.DecodeServerEvent(data)
	if err != nil {
		return nil, fmt.Errorf("malformed server event: %w", err)
	}
	return ev, nil
}

// scanLines delivers lines from r on the returned channel, closing it at EOF
func scanLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
