package protocol

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/mcoot/wordlobby/internal/model"
)

var (
	errMalformedJSON    = errors.New("malformed JSON")
	errMissingEvent     = errors.New("missing event")
	errPayloadNotObject = errors.New("payload must be an object")
)

// Envelope is a client-to-server message
type Envelope struct {
	Event   model.EventType `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEnvelope parses a raw frame. A missing or null payload is treated as
// an empty object. Any other shape problem is returned as a *Error.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, Wrap(MsgInvalidMessage, errMalformedJSON)
	}
	if env.Event == "" {
		return nil, Wrap(MsgInvalidMessage, errMissingEvent)
	}

	payload := bytes.TrimSpace(env.Payload)
	switch {
	case len(payload) == 0, bytes.Equal(payload, []byte("null")):
		env.Payload = json.RawMessage("{}")
	case payload[0] != '{':
		return nil, Wrap(MsgInvalidMessage, errPayloadNotObject)
	}
	return &env, nil
}

// DecodePayload unmarshals the envelope payload into v. Field type mismatches
// are reported as a *Error prefixed with prefix.
func (e *Envelope) DecodePayload(prefix string, v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Wrap(prefix, errors.New(typeErr.Field+" must be a "+typeErr.Type.String()))
		}
		return Wrap(prefix, errMalformedJSON)
	}
	return nil
}

// EncodeEnvelope builds a client-to-server frame
func EncodeEnvelope(event model.EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Payload: raw})
}

// StartGamePayload is the payload of start_game
type StartGamePayload struct {
	Name    string `json:"name"`
	Letters string `json:"letters"`
}

// JoinGamePayload is the payload of join_game
type JoinGamePayload struct {
	Name     string `json:"name"`
	JoinCode string `json:"join_code"`
}

// ChatPayload is the payload of chat_message
type ChatPayload struct {
	Text string `json:"text"`
}

// GuessPayload is the payload of guess
type GuessPayload struct {
	Guess string `json:"guess"`
}

// EmptyPayload is the payload of disconnect
type EmptyPayload struct{}
