package memory

import (
	"context"
	"sync"

	"github.com/mcoot/wordlobby/internal/model"
	"github.com/mcoot/wordlobby/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Lobbies are copied on the way in and out so callers never share a member list.
type Storage struct {
	mu sync.RWMutex

	lobbies         map[model.LobbyID]*model.Lobby
	codeIndex       map[model.JoinCode]model.LobbyID
	dictionaryWords []string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		lobbies:   make(map[model.LobbyID]*model.Lobby),
		codeIndex: make(map[model.JoinCode]model.LobbyID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Lobby operations

func (s *Storage) SaveLobby(ctx context.Context, lobby *model.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.lobbies[lobby.ID]; ok && existing.Code != lobby.Code {
		delete(s.codeIndex, existing.Code)
	}
	s.lobbies[lobby.ID] = lobby.Clone()
	s.codeIndex[lobby.Code] = lobby.ID
	return nil
}

func (s *Storage) GetLobby(ctx context.Context, id model.LobbyID) (*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[id]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	return lobby.Clone(), nil
}

func (s *Storage) GetLobbyByCode(ctx context.Context, code model.JoinCode) (*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	lobby, ok := s.lobbies[id]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	return lobby.Clone(), nil
}

func (s *Storage) DeleteLobby(ctx context.Context, id model.LobbyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lobby, ok := s.lobbies[id]; ok {
		delete(s.codeIndex, lobby.Code)
		delete(s.lobbies, id)
	}
	return nil
}

func (s *Storage) LobbyExists(ctx context.Context, id model.LobbyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lobbies[id]
	return ok, nil
}

func (s *Storage) JoinCodeExists(ctx context.Context, code model.JoinCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codeIndex[code]
	return ok, nil
}

func (s *Storage) CountLobbies(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lobbies), nil
}

// Dictionary operations

func (s *Storage) GetDictionaryWords(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dictionaryWords == nil {
		return nil, model.ErrDictionaryNotLoaded
	}
	result := make([]string, len(s.dictionaryWords))
	copy(result, s.dictionaryWords)
	return result, nil
}

func (s *Storage) SaveDictionaryWords(ctx context.Context, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dictionaryWords = make([]string, len(words))
	copy(s.dictionaryWords, words)
	return nil
}
