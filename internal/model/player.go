package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents a participant in a lobby.
// Players are created at handshake time and never modified afterwards.
type Player struct {
	ID          PlayerID
	DisplayName string
	IsHost      bool // true only for the lobby creator
	JoinedAt    time.Time
}
