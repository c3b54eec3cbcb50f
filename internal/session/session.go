package session

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"

	"github.com/mcoot/wordlobby/internal/hub"
	"github.com/mcoot/wordlobby/internal/model"
	"github.com/mcoot/wordlobby/internal/protocol"
	"github.com/mcoot/wordlobby/internal/services/lobby"
	"github.com/mcoot/wordlobby/internal/services/validator"
)

// Close codes sent when the server ends a connection
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
)

// Conn is a client connection as seen by the session state machine
type Conn interface {
	hub.Conn
	// Receive blocks for the next inbound frame. It returns an error once the
	// connection has ended or ctx is done.
	Receive(ctx context.Context) ([]byte, error)
	// Close ends the connection after any queued frames have been written
	Close(code int, reason string) error
}

// Handler drives every connection through handshake, message loop and cleanup
type Handler struct {
	registry  *lobby.Registry
	hubs      *hub.Manager
	validator *validator.Validator
	logger    *slog.Logger
}

// NewHandler creates a new session Handler
func NewHandler(registry *lobby.Registry, hubs *hub.Manager, validator *validator.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		registry:  registry,
		hubs:      hubs,
		validator: validator,
		logger:    logger.With(slog.String("component", "session")),
	}
}

// State is the lifecycle stage of a session
type State int

const (
	StateUnbound State = iota
	StateBound
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// binding associates a connection with the player and lobby it joined as
type binding struct {
	lobby  *model.Lobby
	player model.Player
}

type session struct {
	h       *Handler
	conn    Conn
	logger  *slog.Logger
	state   State
	binding *binding
}

// Serve runs the session for conn until the connection ends. Cleanup always
// runs, including after a panic in a message handler.
func (h *Handler) Serve(ctx context.Context, conn Conn) {
	s := &session{
		h:      h,
		conn:   conn,
		logger: h.logger.With(slog.String("conn_id", conn.ID())),
		state:  StateUnbound,
	}
	s.run(ctx)
}

// end describes how the server should close the connection
type end struct {
	code   int
	reason string
}

func (s *session) run(ctx context.Context) {
	result := end{code: CloseNormal}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			result = end{code: CloseInternalError, reason: "internal error"}
		}
		s.cleanup(context.WithoutCancel(ctx), result)
	}()

	if err := s.handshake(ctx); err != nil {
		result = s.fail(ctx, err)
		return
	}

	result = s.loop(ctx)
}

func (s *session) handshake(ctx context.Context) error {
	data, err := s.conn.Receive(ctx)
	if err != nil {
		return errConnEnded{err}
	}

	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		return protocol.Errorf(protocol.MsgNotInitialized)
	}

	switch env.Event {
	case model.EventStartGame:
		return s.startGame(ctx, env)
	case model.EventJoinGame:
		return s.joinGame(ctx, env)
	default:
		return protocol.Errorf(protocol.MsgNotInitialized)
	}
}

func (s *session) startGame(ctx context.Context, env *protocol.Envelope) error {
	var payload protocol.StartGamePayload
	if err := env.DecodePayload(protocol.MsgInvalidStartGame, &payload); err != nil {
		return err
	}

	host, err := s.h.registry.NewPlayer(payload.Name, true)
	if err != nil {
		return protocol.Wrap(protocol.MsgInvalidStartGame, err)
	}

	var sendErr error
	_, err = s.h.registry.Create(ctx, payload.Letters, host, func(l *model.Lobby) {
		s.bind(l, host)
		sendErr = s.h.hubs.SendDirect(s.conn, protocol.NewGameStarted(l, host))
		s.h.hubs.Register(l.ID, s.conn)
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidLetters) {
			return protocol.Wrap(protocol.MsgInvalidStartGame, err)
		}
		return err
	}
	return sendErr
}

func (s *session) joinGame(ctx context.Context, env *protocol.Envelope) error {
	var payload protocol.JoinGamePayload
	if err := env.DecodePayload(protocol.MsgInvalidJoinGame, &payload); err != nil {
		return err
	}

	player, err := s.h.registry.NewPlayer(payload.Name, false)
	if err != nil {
		return protocol.Wrap(protocol.MsgInvalidJoinGame, err)
	}

	var sendErr error
	joined, err := s.h.registry.Join(ctx, payload.JoinCode, player, func(l *model.Lobby) {
		s.bind(l, player)
		sendErr = s.h.hubs.SendDirect(s.conn, protocol.NewGameJoined(l, player))
		s.h.hubs.Register(l.ID, s.conn)
	})
	switch {
	case errors.Is(err, model.ErrMissingJoinCode):
		return protocol.Wrap(protocol.MsgInvalidJoinGame, err)
	case errors.Is(err, model.ErrLobbyNotFound):
		return protocol.Errorf(protocol.MsgGameNotFound)
	case errors.Is(err, model.ErrLobbyFull):
		return protocol.Errorf(protocol.MsgGameFull)
	case err != nil:
		return err
	}
	if sendErr != nil {
		return sendErr
	}

	s.h.hubs.Broadcast(joined.ID, protocol.NewPlayerJoined(player.DisplayName))
	return nil
}

func (s *session) bind(l *model.Lobby, player model.Player) {
	s.binding = &binding{lobby: l, player: player}
	s.state = StateBound
	s.logger = s.logger.With(
		slog.String("lobby_id", string(l.ID)),
		slog.String("player", player.DisplayName),
	)
	s.logger.Info("session bound", slog.Bool("host", player.IsHost))
}

func (s *session) loop(ctx context.Context) end {
	for {
		data, err := s.conn.Receive(ctx)
		if err != nil {
			return s.ended(ctx, err)
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			return s.fail(ctx, err)
		}

		done, err := s.dispatch(env)
		if err != nil {
			return s.fail(ctx, err)
		}
		if done {
			return end{code: CloseNormal}
		}
	}
}

// dispatch handles one bound-state message and reports whether the session is over
func (s *session) dispatch(env *protocol.Envelope) (bool, error) {
	lobbyID := s.binding.lobby.ID
	name := s.binding.player.DisplayName

	switch env.Event {
	case model.EventChatMessage:
		var payload protocol.ChatPayload
		if err := env.DecodePayload(protocol.MsgInvalidMessage, &payload); err != nil {
			return false, s.reject(err)
		}
		s.h.hubs.Broadcast(lobbyID, protocol.NewChatMessage(name, payload.Text))

	case model.EventGuess:
		var payload protocol.GuessPayload
		if err := env.DecodePayload(protocol.MsgInvalidMessage, &payload); err != nil {
			return false, s.reject(err)
		}
		correct := s.h.validator.IsCorrect(s.binding.lobby, payload.Guess)
		s.logger.Debug("guess made", slog.String("guess", payload.Guess), slog.Bool("correct", correct))
		s.h.hubs.Broadcast(lobbyID, protocol.NewGuessMade(name, payload.Guess, correct))

	case model.EventDisconnect:
		if err := s.h.hubs.SendDirect(s.conn, protocol.NewDisconnectAck(name)); err != nil {
			return false, err
		}
		s.h.hubs.Unregister(s.conn)
		return true, nil

	default:
		msg := protocol.Errorf("%s: %s", protocol.MsgUnknownEvent, env.Event)
		if err := s.h.hubs.SendDirect(s.conn, protocol.NewErrorMessage(msg.Message)); err != nil {
			return false, err
		}
	}
	return false, nil
}

// reject answers a bad payload with an error frame and leaves the session bound
func (s *session) reject(err error) error {
	var protoErr *protocol.Error
	if !errors.As(err, &protoErr) {
		return err
	}
	s.logger.Debug("rejected payload", slog.String("error", protoErr.Error()))
	return s.h.hubs.SendDirect(s.conn, protocol.NewErrorMessage(protoErr.Message))
}

// ended picks the close code once the peer's stream has stopped
func (s *session) ended(ctx context.Context, err error) end {
	if ctx.Err() != nil {
		return end{code: CloseGoingAway, reason: "server shutting down"}
	}
	s.logger.Debug("connection ended", slog.String("state", s.state.String()), slog.String("reason", err.Error()))
	return end{code: CloseNormal}
}

// fail reports err to the client if it is a protocol violation and picks the close code
func (s *session) fail(ctx context.Context, err error) end {
	var connErr errConnEnded
	if errors.As(err, &connErr) {
		return s.ended(ctx, connErr.err)
	}

	var protoErr *protocol.Error
	if errors.As(err, &protoErr) {
		s.logger.Info("protocol violation",
			slog.String("state", s.state.String()),
			slog.String("error", protoErr.Error()))
		if sendErr := s.h.hubs.SendDirect(s.conn, protocol.NewErrorMessage(protoErr.Message)); sendErr != nil {
			s.logger.Debug("could not deliver error", slog.String("error", sendErr.Error()))
		}
		return end{code: ClosePolicyViolation, reason: "protocol violation"}
	}

	s.logger.Error("session failed",
		slog.String("state", s.state.String()),
		slog.String("error", err.Error()))
	return end{code: CloseInternalError, reason: "internal error"}
}

func (s *session) cleanup(ctx context.Context, result end) {
	s.h.hubs.Unregister(s.conn)

	if s.binding != nil {
		lobbyID := s.binding.lobby.ID
		s.h.hubs.Broadcast(lobbyID, protocol.NewPlayerDisconnected(s.binding.player.DisplayName))

		reaped, err := s.h.registry.ReapIfIdle(ctx, lobbyID, func() bool {
			return s.h.hubs.ConnectionCount(lobbyID) == 0
		})
		if err != nil {
			s.logger.Error("failed to reap lobby", slog.String("error", err.Error()))
		} else if reaped {
			s.logger.Info("last connection left, lobby removed")
		}
	}

	if err := s.conn.Close(result.code, result.reason); err != nil {
		s.logger.Debug("close failed", slog.String("error", err.Error()))
	}
	s.state = StateClosed
	s.logger.Info("session closed", slog.Int("close_code", result.code))
}

// errConnEnded wraps a receive failure during the handshake
type errConnEnded struct {
	err error
}

func (e errConnEnded) Error() string { return e.err.Error() }
func (e errConnEnded) Unwrap() error { return e.err }
