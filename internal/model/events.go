package model

// EventType identifies a message exchanged over a session connection
type EventType string

// Client to server events
const (
	EventStartGame  EventType = "start_game"
	EventJoinGame   EventType = "join_game"
	EventGuess      EventType = "guess"
	EventDisconnect EventType = "disconnect"
)

// Server to client events
const (
	EventGameStarted        EventType = "game_started"
	EventGameJoined         EventType = "game_joined"
	EventPlayerJoined       EventType = "player_joined"
	EventGuessMade          EventType = "guess_made"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventError              EventType = "error"
)

// EventChatMessage flows in both directions
const EventChatMessage EventType = "chat_message"

// Result strings carried by server events
const (
	StatusSuccess    = "success"
	ResultCorrect    = "Correct"
	ResultIncorrect  = "Incorrect"
	ResultDisconnect = "Success"
)
