package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mcoot/wordlobby/internal/model"
	"github.com/mcoot/wordlobby/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errOut, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintEvent outputs a server event received during a session. JSON output
// is one compact object per line so it can be piped into other tools.
func (o *Output) PrintEvent(ev *protocol.ServerEvent) {
	if o.format == "json" {
		data, _ := json.Marshal(ev)
		_, _ = fmt.Fprintln(o.out, string(data))
		return
	}

	switch ev.Event {
	case model.EventGameStarted:
		if ev.Payload != nil {
			o.printf("Lobby started. Join code: %s\n", ev.Payload.JoinCode)
		}
	case model.EventGameJoined:
		if ev.Payload != nil {
			o.printf("Joined lobby %s\n", ev.Payload.LobbyID)
		}
	case model.EventPlayerJoined:
		o.printf("* %s joined\n", ev.Name)
	case model.EventChatMessage:
		o.printf("<%s> %s\n", ev.Sender, ev.Text)
	case model.EventGuessMade:
		o.printf("%s guessed %q: %s\n", ev.Sender, ev.Guess, ev.Result)
	case model.EventDisconnect:
		o.printf("Disconnected\n")
	case model.EventPlayerDisconnected:
		o.printf("* %s left\n", ev.Name)
	case model.EventError:
		o.printf("Error: %s\n", ev.Message)
	default:
		o.printJSON(ev)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.out, format, args...)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Lobby:
		o.printLobby(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Lobby response type (matches API)
type Lobby struct {
	ID        string        `json:"id"`
	JoinCode  string        `json:"join_code"`
	Letters   string        `json:"letters"`
	Host      string        `json:"host"`
	Players   []LobbyPlayer `json:"players"`
	Connected int           `json:"connected"`
	CreatedAt time.Time     `json:"created_at"`
}

// LobbyPlayer response type
type LobbyPlayer struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	IsHost      bool      `json:"is_host"`
	JoinedAt    time.Time `json:"joined_at"`
}

// HealthResult response type
type HealthResult struct {
	Status          string `json:"status"`
	Lobbies         int    `json:"lobbies"`
	Connections     int    `json:"connections"`
	DictionaryWords int    `json:"dictionary_words"`
}

func (o *Output) printLobby(l Lobby) {
	o.printf("Lobby: %s\n", l.JoinCode)
	o.printf("Letters: %s\n", l.Letters)
	o.printf("Host: %s\n", l.Host)
	o.printf("Connected: %d\n", l.Connected)
	o.printf("Players (%d):\n", len(l.Players))
	for _, p := range l.Players {
		hostStr := ""
		if p.IsHost {
			hostStr = " [host]"
		}
		o.printf("  - %s (%s)%s\n", p.DisplayName, p.ID, hostStr)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	o.printf("Status: %s\n", h.Status)
	o.printf("Lobbies: %d\n", h.Lobbies)
	o.printf("Connections: %d\n", h.Connections)
	o.printf("Dictionary words: %d\n", h.DictionaryWords)
}
