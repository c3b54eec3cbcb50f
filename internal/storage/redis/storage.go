package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/wordlobby/internal/model"
	"github.com/mcoot/wordlobby/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Lobby operations

func (s *Storage) SaveLobby(ctx context.Context, lobby *model.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return err
	}

	// Lobby, code index and id set change together
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lobbyKey(lobby.ID), data, s.cfg.LobbyTTL)
		pipe.Set(ctx, joinCodeIndexKey(lobby.Code), string(lobby.ID), s.cfg.LobbyTTL)
		pipe.SAdd(ctx, lobbyIDsKey(), string(lobby.ID))
		return nil
	})
	return err
}

func (s *Storage) GetLobby(ctx context.Context, id model.LobbyID) (*model.Lobby, error) {
	data, err := s.client.Get(ctx, lobbyKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrLobbyNotFound
		}
		return nil, err
	}

	var lobby model.Lobby
	if err := json.Unmarshal(data, &lobby); err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (s *Storage) GetLobbyByCode(ctx context.Context, code model.JoinCode) (*model.Lobby, error) {
	id, err := s.client.Get(ctx, joinCodeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrLobbyNotFound
		}
		return nil, err
	}

	return s.GetLobby(ctx, model.LobbyID(id))
}

func (s *Storage) DeleteLobby(ctx context.Context, id model.LobbyID) error {
	lobby, err := s.GetLobby(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrLobbyNotFound) {
			return s.client.SRem(ctx, lobbyIDsKey(), string(id)).Err()
		}
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, lobbyKey(id), joinCodeIndexKey(lobby.Code))
		pipe.SRem(ctx, lobbyIDsKey(), string(id))
		return nil
	})
	return err
}

func (s *Storage) LobbyExists(ctx context.Context, id model.LobbyID) (bool, error) {
	exists, err := s.client.Exists(ctx, lobbyKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) JoinCodeExists(ctx context.Context, code model.JoinCode) (bool, error) {
	exists, err := s.client.Exists(ctx, joinCodeIndexKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// CountLobbies counts stored lobbies, pruning ids whose lobby has expired
func (s *Storage) CountLobbies(ctx context.Context) (int, error) {
	ids, err := s.client.SMembers(ctx, lobbyIDsKey()).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	checks := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		checks[i] = pipe.Exists(ctx, lobbyKey(model.LobbyID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	count := 0
	var stale []interface{}
	for i, cmd := range checks {
		if cmd.Val() > 0 {
			count++
		} else {
			stale = append(stale, ids[i])
		}
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, lobbyIDsKey(), stale...).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// Dictionary operations

func (s *Storage) GetDictionaryWords(ctx context.Context) ([]string, error) {
	key := dictionaryKey()

	// Check if dictionary exists
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, model.ErrDictionaryNotLoaded
	}

	// Get all words from the set
	words, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	return words, nil
}

func (s *Storage) SaveDictionaryWords(ctx context.Context, words []string) error {
	key := dictionaryKey()

	// Delete existing dictionary and add new words atomically
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)

	if len(words) > 0 {
		// Convert []string to []interface{} for SAdd
		members := make([]interface{}, len(words))
		for i, w := range words {
			members[i] = w
		}
		pipe.SAdd(ctx, key, members...)
	}

	_, err := pipe.Exec(ctx)
	return err
}
