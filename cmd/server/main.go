package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mcoot/wordlobby/internal/api"
	"github.com/mcoot/wordlobby/internal/factory"
	redisstorage "github.com/mcoot/wordlobby/internal/storage/redis"
	"github.com/mcoot/wordlobby/internal/transport/ws"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	wsCfg := ws.DefaultConfig()
	wsCfg.IdleTimeout = envDuration(logger, "IDLE_TIMEOUT", wsCfg.IdleTimeout)

	// Build factory config from environment
	cfg := factory.Config{
		DictionaryPath: envOr("DICTIONARY_PATH", "data/words.txt"),
		Logger:         logger,
		StorageType:    os.Getenv("STORAGE_TYPE"),
		Websocket:      wsCfg,
	}
	cfg.Lobby.MaxPlayers = envInt(logger, "MAX_PLAYERS_PER_LOBBY", 0)

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		redisCfg.LobbyTTL = envDuration(logger, "REDIS_LOBBY_TTL", redisCfg.LobbyTTL)
		cfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		Registry:          app.Registry,
		HubManager:        app.HubManager,
		DictionaryService: app.DictionaryService,
		WebsocketHandler:  app.WebsocketHandler,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = os.Getenv("HOST")
	serverConfig.Port = envInt(logger, "PORT", serverConfig.Port)
	server := api.NewServer(router, serverConfig, logger)
	server.OnShutdown(app.WebsocketHandler.Close)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}

	logger.Info("server stopped")
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(logger *slog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("ignoring invalid integer setting", slog.String("key", key), slog.String("value", v))
		return fallback
	}
	return n
}

func envDuration(logger *slog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("ignoring invalid duration setting", slog.String("key", key), slog.String("value", v))
		return fallback
	}
	return d
}
