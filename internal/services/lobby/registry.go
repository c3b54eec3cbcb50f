package lobby

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/wordlobby/internal/dependencies/clock"
	"github.com/mcoot/wordlobby/internal/dependencies/idgen"
	"github.com/mcoot/wordlobby/internal/dependencies/random"
	"github.com/mcoot/wordlobby/internal/model"
	"github.com/mcoot/wordlobby/internal/storage"
)

const (
	// JoinCodeLength is the length of generated join codes
	JoinCodeLength = 6
	// JoinCodeAlphabet is the characters used in join codes (avoid confusing chars)
	JoinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// BindFunc is run while the registry lock is held, after the lobby has been
// stored. It receives a copy of the lobby as stored.
type BindFunc func(lobby *model.Lobby)

// Config holds lobby policy settings
type Config struct {
	// MaxPlayers caps lobby membership. Zero means unlimited.
	// Members are never removed from a lobby, so the cap counts every player
	// who has joined, including those who have since disconnected.
	MaxPlayers int
}

// Registry owns the set of active lobbies, indexed by id and join code.
// Mutations are serialized by a process-local lock so that a join cannot
// interleave with another join or with reaping.
type Registry struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	ids     idgen.Generator
	cfg     Config
	logger  *slog.Logger

	mu sync.Mutex
}

// NewRegistry creates a new lobby Registry
func NewRegistry(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	ids idgen.Generator,
	cfg Config,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		storage: storage,
		clock:   clock,
		random:  random,
		ids:     ids,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "lobby")),
	}
}

// NewPlayer validates a display name and returns a fresh player
func (r *Registry) NewPlayer(name string, isHost bool) (model.Player, error) {
	displayName, err := model.NormalizeDisplayName(name)
	if err != nil {
		return model.Player{}, err
	}
	return model.Player{
		ID:          model.PlayerID(r.ids.NewID()),
		DisplayName: displayName,
		IsHost:      isHost,
		JoinedAt:    r.clock.Now(),
	}, nil
}

// Create stores a new lobby with host as its only member. The join code and
// lobby id are regenerated until neither collides with an active lobby.
func (r *Registry) Create(ctx context.Context, letters string, host model.Player, bind BindFunc) (*model.Lobby, error) {
	normalized, err := model.NormalizeLetters(letters)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.generateCode(ctx)
	if err != nil {
		return nil, err
	}
	id, err := r.generateID(ctx)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	host.IsHost = true
	lobby := &model.Lobby{
		ID:        id,
		Code:      code,
		Letters:   normalized,
		Players:   []model.Player{host},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, err
	}

	r.logger.Info("lobby created",
		slog.String("lobby_id", string(id)),
		slog.String("join_code", string(code)),
		slog.String("letters", normalized),
	)

	if bind != nil {
		bind(lobby.Clone())
	}
	return lobby, nil
}

// Join looks up a lobby by join code and appends player to it
func (r *Registry) Join(ctx context.Context, code string, player model.Player, bind BindFunc) (*model.Lobby, error) {
	joinCode := model.NormalizeJoinCode(code)
	if joinCode == "" {
		return nil, model.ErrMissingJoinCode
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lobby, err := r.storage.GetLobbyByCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}

	lobby, err = r.appendPlayerLocked(ctx, lobby, player)
	if err != nil {
		return nil, err
	}

	if bind != nil {
		bind(lobby.Clone())
	}
	return lobby, nil
}

// AppendPlayer adds player to the end of a lobby's member list
func (r *Registry) AppendPlayer(ctx context.Context, id model.LobbyID, player model.Player) (*model.Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lobby, err := r.storage.GetLobby(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.appendPlayerLocked(ctx, lobby, player)
}

func (r *Registry) appendPlayerLocked(ctx context.Context, lobby *model.Lobby, player model.Player) (*model.Lobby, error) {
	if r.cfg.MaxPlayers > 0 && len(lobby.Players) >= r.cfg.MaxPlayers {
		return nil, model.ErrLobbyFull
	}

	player.IsHost = false
	lobby.Players = append(lobby.Players, player)
	lobby.UpdatedAt = r.clock.Now()

	if err := r.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, err
	}

	r.logger.Info("player joined lobby",
		slog.String("lobby_id", string(lobby.ID)),
		slog.String("player_id", string(player.ID)),
		slog.Int("players", len(lobby.Players)),
	)
	return lobby, nil
}

// LookupByCode retrieves a lobby by join code, ignoring case and surrounding whitespace
func (r *Registry) LookupByCode(ctx context.Context, code string) (*model.Lobby, error) {
	joinCode := model.NormalizeJoinCode(code)
	if joinCode == "" {
		return nil, model.ErrLobbyNotFound
	}
	return r.storage.GetLobbyByCode(ctx, joinCode)
}

// LookupByID retrieves a lobby by id
func (r *Registry) LookupByID(ctx context.Context, id model.LobbyID) (*model.Lobby, error) {
	return r.storage.GetLobby(ctx, id)
}

// ReapIfIdle deletes the lobby if idle reports true. idle is evaluated under
// the registry lock, so no join can complete between the check and the delete.
func (r *Registry) ReapIfIdle(ctx context.Context, id model.LobbyID, idle func() bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !idle() {
		return false, nil
	}

	exists, err := r.storage.LobbyExists(ctx, id)
	if err != nil || !exists {
		return false, err
	}

	if err := r.storage.DeleteLobby(ctx, id); err != nil {
		return false, err
	}

	r.logger.Info("lobby reaped", slog.String("lobby_id", string(id)))
	return true, nil
}

// Count returns the number of active lobbies
func (r *Registry) Count(ctx context.Context) (int, error) {
	return r.storage.CountLobbies(ctx)
}

func (r *Registry) generateCode(ctx context.Context) (model.JoinCode, error) {
	for {
		code := model.JoinCode(r.random.String(JoinCodeLength, JoinCodeAlphabet))
		exists, err := r.storage.JoinCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		r.logger.Debug("join code collision, retrying", slog.String("join_code", string(code)))
	}
}

func (r *Registry) generateID(ctx context.Context) (model.LobbyID, error) {
	for {
		id := model.LobbyID(r.ids.NewID())
		exists, err := r.storage.LobbyExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
		r.logger.Debug("lobby id collision, retrying", slog.String("lobby_id", string(id)))
	}
}
