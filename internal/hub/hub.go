package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mcoot/wordlobby/internal/model"
)

// Conn is an outbound handle for one live client connection.
// Send must not block on a slow peer; it queues or fails.
type Conn interface {
	ID() string
	Send(data []byte) error
}

// Hub holds the connections registered to a single lobby
type Hub struct {
	lobbyID model.LobbyID
	logger  *slog.Logger

	mu    sync.RWMutex
	conns map[Conn]struct{}

	// sendMu serializes fan-out so every member observes broadcasts in the same order
	sendMu sync.Mutex
}

func newHub(lobbyID model.LobbyID, logger *slog.Logger) *Hub {
	return &Hub{
		lobbyID: lobbyID,
		logger:  logger.With(slog.String("lobby_id", string(lobbyID))),
		conns:   make(map[Conn]struct{}),
	}
}

// ConnectionCount returns the number of registered connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) snapshot() []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	return conns
}

// broadcast delivers data to every connection, returning how many accepted it
func (h *Hub) broadcast(data []byte) int {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()

	sent := 0
	dropped := 0
	for _, c := range h.snapshot() {
		if err := c.Send(data); err != nil {
			dropped++
			h.logger.Warn("broadcast delivery failed",
				slog.String("conn_id", c.ID()),
				slog.String("error", err.Error()))
			continue
		}
		sent++
	}
	if dropped > 0 {
		h.logger.Warn("broadcast partial failure",
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
	return sent
}

// Manager maps lobbies to their hubs and tracks which lobby each connection belongs to
type Manager struct {
	mu      sync.RWMutex
	hubs    map[model.LobbyID]*Hub
	lobbyOf map[Conn]model.LobbyID
	logger  *slog.Logger
}

// NewManager creates a new hub Manager
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		hubs:    make(map[model.LobbyID]*Hub),
		lobbyOf: make(map[Conn]model.LobbyID),
		logger:  logger.With(slog.String("component", "hub")),
	}
}

// Register adds conn to a lobby's fan-out set, moving it out of any other lobby
func (m *Manager) Register(lobbyID model.LobbyID, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if previous, ok := m.lobbyOf[conn]; ok {
		if previous == lobbyID {
			return
		}
		m.removeLocked(previous, conn)
	}

	h, ok := m.hubs[lobbyID]
	if !ok {
		h = newHub(lobbyID, m.logger)
		m.hubs[lobbyID] = h
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()

	m.lobbyOf[conn] = lobbyID
	m.logger.Info("connection registered",
		slog.String("lobby_id", string(lobbyID)),
		slog.String("conn_id", conn.ID()),
		slog.Int("total_connections", count))
}

// Unregister removes conn from whichever lobby holds it. It reports whether
// the connection was registered.
func (m *Manager) Unregister(conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	lobbyID, ok := m.lobbyOf[conn]
	if !ok {
		return false
	}
	m.removeLocked(lobbyID, conn)
	m.logger.Info("connection unregistered",
		slog.String("lobby_id", string(lobbyID)),
		slog.String("conn_id", conn.ID()))
	return true
}

func (m *Manager) removeLocked(lobbyID model.LobbyID, conn Conn) {
	delete(m.lobbyOf, conn)

	h, ok := m.hubs[lobbyID]
	if !ok {
		return
	}

	h.mu.Lock()
	delete(h.conns, conn)
	empty := len(h.conns) == 0
	h.mu.Unlock()

	if empty {
		delete(m.hubs, lobbyID)
		m.logger.Debug("empty hub removed", slog.String("lobby_id", string(lobbyID)))
	}
}

// Broadcast sends message to every connection registered to the lobby.
// Delivery failures are logged per recipient and never returned.
func (m *Manager) Broadcast(lobbyID model.LobbyID, message any) int {
	data, err := json.Marshal(message)
	if err != nil {
		m.logger.Error("failed to encode broadcast",
			slog.String("lobby_id", string(lobbyID)),
			slog.String("error", err.Error()))
		return 0
	}

	h := m.GetHub(lobbyID)
	if h == nil {
		return 0
	}
	return h.broadcast(data)
}

// SendDirect sends message to a single connection and reports any failure
func (m *Manager) SendDirect(conn Conn, message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return conn.Send(data)
}

// GetHub returns the hub for a lobby, or nil if no connection is registered to it
func (m *Manager) GetHub(lobbyID model.LobbyID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[lobbyID]
}

// ConnectionCount returns the number of connections registered to a lobby
func (m *Manager) ConnectionCount(lobbyID model.LobbyID) int {
	h := m.GetHub(lobbyID)
	if h == nil {
		return 0
	}
	return h.ConnectionCount()
}

// LobbyOf returns the lobby conn is registered to
func (m *Manager) LobbyOf(conn Conn) (model.LobbyID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.lobbyOf[conn]
	return id, ok
}

// TotalConnections returns the number of registered connections across all lobbies
func (m *Manager) TotalConnections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lobbyOf)
}
