package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordlobby/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) newLobby(id, code string) *model.Lobby {
	return &model.Lobby{
		ID:      model.LobbyID(id),
		Code:    model.JoinCode(code),
		Letters: "SK",
		Players: []model.Player{
			{ID: "p-1", DisplayName: "Alice", IsHost: true},
		},
		CreatedAt: time.Now(),
	}
}

// Lobby tests

func (s *StorageSuite) TestSaveAndGetLobby() {
	lobby := s.newLobby("lobby-1", "ABC123")

	err := s.storage.SaveLobby(s.ctx, lobby)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetLobby(s.ctx, "lobby-1")
	s.Require().NoError(err)
	s.Equal(lobby.Code, retrieved.Code)
	s.Equal(lobby.Letters, retrieved.Letters)
	s.Len(retrieved.Players, 1)
}

func (s *StorageSuite) TestGetLobbyByCode() {
	_ = s.storage.SaveLobby(s.ctx, s.newLobby("lobby-1", "ABC123"))

	retrieved, err := s.storage.GetLobbyByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.LobbyID("lobby-1"), retrieved.ID)
}

func (s *StorageSuite) TestGetLobbyNotFound() {
	_, err := s.storage.GetLobby(s.ctx, "missing")
	s.ErrorIs(err, model.ErrLobbyNotFound)

	_, err = s.storage.GetLobbyByCode(s.ctx, "NOPE99")
	s.ErrorIs(err, model.ErrLobbyNotFound)
}

func (s *StorageSuite) TestReturnedLobbyIsACopy() {
	_ = s.storage.SaveLobby(s.ctx, s.newLobby("lobby-1", "ABC123"))

	retrieved, _ := s.storage.GetLobby(s.ctx, "lobby-1")
	retrieved.Players = append(retrieved.Players, model.Player{ID: "p-2", DisplayName: "Bob"})

	again, err := s.storage.GetLobby(s.ctx, "lobby-1")
	s.Require().NoError(err)
	s.Len(again.Players, 1)
}

func (s *StorageSuite) TestSavedLobbyIsACopy() {
	lobby := s.newLobby("lobby-1", "ABC123")
	_ = s.storage.SaveLobby(s.ctx, lobby)

	lobby.Players[0].DisplayName = "Mallory"

	retrieved, _ := s.storage.GetLobby(s.ctx, "lobby-1")
	s.Equal("Alice", retrieved.Players[0].DisplayName)
}

func (s *StorageSuite) TestDeleteLobbyRemovesCodeIndex() {
	_ = s.storage.SaveLobby(s.ctx, s.newLobby("lobby-1", "ABC123"))

	err := s.storage.DeleteLobby(s.ctx, "lobby-1")
	s.Require().NoError(err)

	_, err = s.storage.GetLobby(s.ctx, "lobby-1")
	s.ErrorIs(err, model.ErrLobbyNotFound)

	exists, err := s.storage.JoinCodeExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestDeleteMissingLobbyIsNoop() {
	s.NoError(s.storage.DeleteLobby(s.ctx, "missing"))
}

func (s *StorageSuite) TestExistsChecks() {
	_ = s.storage.SaveLobby(s.ctx, s.newLobby("lobby-1", "ABC123"))

	exists, err := s.storage.LobbyExists(s.ctx, "lobby-1")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.LobbyExists(s.ctx, "lobby-2")
	s.Require().NoError(err)
	s.False(exists)

	exists, err = s.storage.JoinCodeExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestCountLobbies() {
	count, err := s.storage.CountLobbies(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count)

	_ = s.storage.SaveLobby(s.ctx, s.newLobby("lobby-1", "ABC123"))
	_ = s.storage.SaveLobby(s.ctx, s.newLobby("lobby-2", "XYZ789"))

	count, err = s.storage.CountLobbies(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

// Dictionary tests

func (s *StorageSuite) TestDictionaryNotLoaded() {
	_, err := s.storage.GetDictionaryWords(s.ctx)
	s.ErrorIs(err, model.ErrDictionaryNotLoaded)
}

func (s *StorageSuite) TestSaveAndGetDictionaryWords() {
	words := []string{"spark", "stork", "snack"}
	err := s.storage.SaveDictionaryWords(s.ctx, words)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetDictionaryWords(s.ctx)
	s.Require().NoError(err)
	s.Equal(words, retrieved)
}
