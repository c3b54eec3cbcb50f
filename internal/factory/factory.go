package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/wordlobby/internal/dependencies/clock"
	"github.com/mcoot/wordlobby/internal/dependencies/idgen"
	"github.com/mcoot/wordlobby/internal/dependencies/random"
	"github.com/mcoot/wordlobby/internal/hub"
	"github.com/mcoot/wordlobby/internal/services/dictionary"
	"github.com/mcoot/wordlobby/internal/services/lobby"
	"github.com/mcoot/wordlobby/internal/services/validator"
	"github.com/mcoot/wordlobby/internal/session"
	"github.com/mcoot/wordlobby/internal/storage"
	"github.com/mcoot/wordlobby/internal/storage/memory"
	redisstorage "github.com/mcoot/wordlobby/internal/storage/redis"
	"github.com/mcoot/wordlobby/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    idgen.Generator

	// Services
	DictionaryService dictionary.ServiceInterface
	Validator         *validator.Validator
	Registry          *lobby.Registry
	HubManager        *hub.Manager
	SessionHandler    *session.Handler
	WebsocketHandler  *ws.Handler

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// DictionaryPath is the path to the dictionary file (optional)
	// New loads it, falling back to the copy already held in storage.
	// If empty, the dictionary must be loaded manually
	DictionaryPath string
	// Lobby holds lobby policy such as the member cap
	Lobby lobby.Config
	// Websocket holds connection settings (optional)
	// If zero value, defaults to ws.DefaultConfig()
	Websocket ws.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	var closers []io.Closer
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Use default websocket config if not provided
	wsCfg := cfg.Websocket
	if wsCfg == (ws.Config{}) {
		wsCfg = ws.DefaultConfig()
	}

	app := newWithDependencies(store, clock.New(), random.New(), idgen.New(), cfg.Lobby, wsCfg, logger)
	app.closers = closers
	if cfg.DictionaryPath != "" {
		app.loadDictionary(context.Background(), cfg.DictionaryPath, logger)
	}
	return app, nil
}

// loadDictionary reads the word list from path, or from storage when another
// instance has already published it. An empty dictionary still lets players chat.
func (a *App) loadDictionary(ctx context.Context, path string, logger *slog.Logger) {
	err := a.DictionaryService.LoadFromFile(ctx, path)
	if err == nil {
		return
	}
	if cacheErr := a.DictionaryService.LoadFromStorage(ctx); cacheErr != nil {
		logger.Warn("could not load dictionary, every guess will be incorrect",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Info("dictionary loaded from storage", slog.String("path", path))
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	ids idgen.Generator,
	lobbyCfg lobby.Config,
	wsCfg ws.Config,
	logger *slog.Logger,
) *App {
	// Create services
	dictService := dictionary.New(store, logger)
	wordValidator := validator.New(dictService)
	registry := lobby.NewRegistry(store, clk, rnd, ids, lobbyCfg, logger)
	hubManager := hub.NewManager(logger)
	sessionHandler := session.NewHandler(registry, hubManager, wordValidator, logger)
	wsHandler := ws.NewHandler(sessionHandler, ids, wsCfg, logger)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		IDs:               ids,
		DictionaryService: dictService,
		Validator:         wordValidator,
		Registry:          registry,
		HubManager:        hubManager,
		SessionHandler:    sessionHandler,
		WebsocketHandler:  wsHandler,
	}
}

// Close ends all websocket sessions and releases storage connections
func (a *App) Close() error {
	a.WebsocketHandler.Close()

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
