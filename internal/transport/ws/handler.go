package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/wordlobby/internal/dependencies/idgen"
	"github.com/mcoot/wordlobby/internal/session"
)

// Handler upgrades HTTP requests and runs a session per connection
type Handler struct {
	sessions *session.Handler
	ids      idgen.Generator
	cfg      Config
	upgrader websocket.Upgrader
	logger   *slog.Logger

	// ctx outlives individual requests; hijacked connections are not
	// cancelled by http.Server.Shutdown, so Close cancels it instead
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHandler creates a new websocket Handler
func NewHandler(sessions *session.Handler, ids idgen.Generator, cfg Config, logger *slog.Logger) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		sessions: sessions,
		ids:      ids,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Browser clients are served from other origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ServeHTTP upgrades the request and blocks until the session ends
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(h.ids.NewID(), conn, h.cfg, h.logger)
	client.Start()

	h.logger.Debug("websocket connected",
		slog.String("conn_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))

	h.sessions.Serve(h.ctx, client)
	client.Wait()
}

// Close ends every active session with a going-away close frame
func (h *Handler) Close() {
	h.cancel()
}
