package protocol

import (
	"encoding/json"

	"github.com/mcoot/wordlobby/internal/model"
)

// HandshakePayload is nested under game_started and game_joined
type HandshakePayload struct {
	Status   string         `json:"status"`
	LobbyID  model.LobbyID  `json:"lobby_id"`
	JoinCode model.JoinCode `json:"join_code,omitempty"`
	PlayerID model.PlayerID `json:"player_id"`
}

// GameStarted confirms a start_game handshake to the host
type GameStarted struct {
	Event   model.EventType  `json:"event"`
	Payload HandshakePayload `json:"payload"`
}

func NewGameStarted(lobby *model.Lobby, player model.Player) GameStarted {
	return GameStarted{
		Event: model.EventGameStarted,
		Payload: HandshakePayload{
			Status:   model.StatusSuccess,
			LobbyID:  lobby.ID,
			JoinCode: lobby.Code,
			PlayerID: player.ID,
		},
	}
}

// GameJoined confirms a join_game handshake to the joining player
type GameJoined struct {
	Event   model.EventType  `json:"event"`
	Payload HandshakePayload `json:"payload"`
}

func NewGameJoined(lobby *model.Lobby, player model.Player) GameJoined {
	return GameJoined{
		Event: model.EventGameJoined,
		Payload: HandshakePayload{
			Status:   model.StatusSuccess,
			LobbyID:  lobby.ID,
			PlayerID: player.ID,
		},
	}
}

type PlayerJoined struct {
	Event model.EventType `json:"event"`
	Name  string          `json:"name"`
}

func NewPlayerJoined(name string) PlayerJoined {
	return PlayerJoined{Event: model.EventPlayerJoined, Name: name}
}

type ChatMessage struct {
	Event  model.EventType `json:"event"`
	Sender string          `json:"sender"`
	Text   string          `json:"text"`
}

func NewChatMessage(sender, text string) ChatMessage {
	return ChatMessage{Event: model.EventChatMessage, Sender: sender, Text: text}
}

type GuessMade struct {
	Event  model.EventType `json:"event"`
	Sender string          `json:"sender"`
	Guess  string          `json:"guess"`
	Result string          `json:"result"`
}

func NewGuessMade(sender, guess string, correct bool) GuessMade {
	result := model.ResultIncorrect
	if correct {
		result = model.ResultCorrect
	}
	return GuessMade{Event: model.EventGuessMade, Sender: sender, Guess: guess, Result: result}
}

// DisconnectAck acknowledges a disconnect request to the sender only
type DisconnectAck struct {
	Event  model.EventType `json:"event"`
	Sender string          `json:"sender"`
	Result string          `json:"result"`
}

func NewDisconnectAck(sender string) DisconnectAck {
	return DisconnectAck{Event: model.EventDisconnect, Sender: sender, Result: model.ResultDisconnect}
}

type PlayerDisconnected struct {
	Event model.EventType `json:"event"`
	Name  string          `json:"name"`
}

func NewPlayerDisconnected(name string) PlayerDisconnected {
	return PlayerDisconnected{Event: model.EventPlayerDisconnected, Name: name}
}

type ErrorMessage struct {
	Event   model.EventType `json:"event"`
	Message string          `json:"message"`
}

func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Event: model.EventError, Message: message}
}

// ServerEvent is the union of every server-to-client message, used by clients
// to decode frames without knowing the event in advance
type ServerEvent struct {
	Event   model.EventType   `json:"event"`
	Payload *HandshakePayload `json:"payload,omitempty"`
	Name    string            `json:"name,omitempty"`
	Sender  string            `json:"sender,omitempty"`
	Text    string            `json:"text,omitempty"`
	Guess   string            `json:"guess,omitempty"`
	Result  string            `json:"result,omitempty"`
	Message string            `json:"message,omitempty"`
}

// DecodeServerEvent parses a server-to-client frame
func DecodeServerEvent(data []byte) (*ServerEvent, error) {
	var ev ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
