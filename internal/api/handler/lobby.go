package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/wordlobby/internal/api/apierr"
	"github.com/mcoot/wordlobby/internal/api/response"
	"github.com/mcoot/wordlobby/internal/hub"
	"github.com/mcoot/wordlobby/internal/services/lobby"
)

// LobbyHandler handles lobby-related endpoints
type LobbyHandler struct {
	registry   *lobby.Registry
	hubManager *hub.Manager
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(registry *lobby.Registry, hubManager *hub.Manager) *LobbyHandler {
	return &LobbyHandler{
		registry:   registry,
		hubManager: hubManager,
	}
}

// Get handles GET /api/v1/lobbies/{code}
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(mux.Vars(r)["code"])
	if code == "" {
		WriteError(w, apierr.NewInvalidRequestError("join code is required"))
		return
	}

	l, err := h.registry.LookupByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LobbyFromModel(l, h.hubManager.ConnectionCount(l.ID)))
}
