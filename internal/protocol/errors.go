package protocol

import "fmt"

// Error is a protocol violation. Message is sent to the offending client.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a protocol Error with a formatted client-facing message
func Errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a protocol Error whose client-facing message is prefix followed by err
func Wrap(prefix string, err error) *Error {
	return &Error{Message: prefix + ": " + err.Error(), Err: err}
}

// Client-facing messages
const (
	MsgNotInitialized   = "Connection not initialized. First event must be 'start_game' or 'join_game'."
	MsgGameNotFound     = "Game not found."
	MsgGameFull         = "Game is full."
	MsgInvalidStartGame = "Invalid start game data"
	MsgInvalidJoinGame  = "Invalid join game data"
	MsgInvalidMessage   = "Invalid message"
	MsgUnknownEvent     = "Unknown event"
)
