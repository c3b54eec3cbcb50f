package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/wordlobby/internal/api/handler"
	"github.com/mcoot/wordlobby/internal/api/middleware"
	"github.com/mcoot/wordlobby/internal/hub"
	shared "github.com/mcoot/wordlobby/internal/middleware"
	"github.com/mcoot/wordlobby/internal/services/dictionary"
	"github.com/mcoot/wordlobby/internal/services/lobby"
)

// RouterConfig holds configuration for the HTTP router
type RouterConfig struct {
	Logger            *slog.Logger
	Registry          *lobby.Registry
	HubManager        *hub.Manager
	DictionaryService dictionary.ServiceInterface
	// WebsocketHandler serves GET /ws
	WebsocketHandler http.Handler
	// CORS defaults to allowing any origin
	CORS *shared.CORSConfig
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.Registry, cfg.HubManager, cfg.DictionaryService, cfg.Logger)
	lobbyHandler := handler.NewLobbyHandler(cfg.Registry, cfg.HubManager)

	corsCfg := shared.DefaultCORSConfig()
	if cfg.CORS != nil {
		corsCfg = *cfg.CORS
	}

	// Common middleware, outermost first
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.CORS(corsCfg))

	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)

	r.HandleFunc("/", healthHandler.Root).Methods(http.MethodGet, http.MethodOptions)
	if cfg.WebsocketHandler != nil {
		r.Handle("/ws", cfg.WebsocketHandler).Methods(http.MethodGet)
	}

	// API subrouter
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/lobbies/{code}", lobbyHandler.Get).Methods(http.MethodGet, http.MethodOptions)

	return r
}
