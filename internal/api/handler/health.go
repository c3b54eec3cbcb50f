package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/wordlobby/internal/api/response"
	"github.com/mcoot/wordlobby/internal/hub"
	"github.com/mcoot/wordlobby/internal/services/dictionary"
	"github.com/mcoot/wordlobby/internal/services/lobby"
)

// HealthHandler reports server liveness and basic load figures
type HealthHandler struct {
	registry   *lobby.Registry
	hubManager *hub.Manager
	dictionary dictionary.ServiceInterface
	logger     *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *lobby.Registry, hubManager *hub.Manager, dictionary dictionary.ServiceInterface, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		registry:   registry,
		hubManager: hubManager,
		dictionary: dictionary,
		logger:     logger,
	}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Status{Status: "OK"})
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	lobbies, err := h.registry.Count(r.Context())
	if err != nil {
		h.logger.Error("health check failed to count lobbies", slog.String("error", err.Error()))
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Health{
		Status:          "ok",
		Lobbies:         lobbies,
		Connections:     h.hubManager.TotalConnections(),
		DictionaryWords: h.dictionary.WordCount(),
	})
}
