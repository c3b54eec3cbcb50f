package storage

import (
	"context"

	"github.com/mcoot/wordlobby/internal/model"
)

// Storage defines the interface for lobby and dictionary data.
// Implementations must keep the join code index consistent with the lobbies
// they store: a join code resolves to at most one stored lobby.
type Storage interface {
	// Lobby operations
	SaveLobby(ctx context.Context, lobby *model.Lobby) error
	GetLobby(ctx context.Context, id model.LobbyID) (*model.Lobby, error)
	GetLobbyByCode(ctx context.Context, code model.JoinCode) (*model.Lobby, error)
	DeleteLobby(ctx context.Context, id model.LobbyID) error
	LobbyExists(ctx context.Context, id model.LobbyID) (bool, error)
	JoinCodeExists(ctx context.Context, code model.JoinCode) (bool, error)
	CountLobbies(ctx context.Context) (int, error)

	// Dictionary operations
	GetDictionaryWords(ctx context.Context) ([]string, error)
	SaveDictionaryWords(ctx context.Context, words []string) error
}
