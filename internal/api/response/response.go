package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcoot/wordlobby/internal/model"
)

// Status is the body of GET /
type Status struct {
	Status string `json:"status"`
}

// Health is the body of GET /api/v1/health
type Health struct {
	Status          string `json:"status"`
	Lobbies         int    `json:"lobbies"`
	Connections     int    `json:"connections"`
	DictionaryWords int    `json:"dictionary_words"`
}

// Player represents a lobby member in API responses
type Player struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	IsHost      bool      `json:"is_host"`
	JoinedAt    time.Time `json:"joined_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsHost:      p.IsHost,
		JoinedAt:    p.JoinedAt,
	}
}

// Lobby represents a lobby in API responses
type Lobby struct {
	ID        string    `json:"id"`
	JoinCode  string    `json:"join_code"`
	Letters   string    `json:"letters"`
	Host      string    `json:"host,omitempty"`
	Players   []Player  `json:"players"`
	Connected int       `json:"connected"`
	CreatedAt time.Time `json:"created_at"`
}

// LobbyFromModel converts a model.Lobby to a response Lobby
func LobbyFromModel(l *model.Lobby, connected int) Lobby {
	players := make([]Player, len(l.Players))
	for i, p := range l.Players {
		players[i] = PlayerFromModel(p)
	}
	var host string
	if h := l.Host(); h != nil {
		host = h.DisplayName
	}
	return Lobby{
		ID:        string(l.ID),
		JoinCode:  string(l.Code),
		Letters:   l.Letters,
		Host:      host,
		Players:   players,
		Connected: connected,
		CreatedAt: l.CreatedAt,
	}
}

// JSON writes data as a JSON response with the given status
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
