package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordlobby/internal/dependencies/mocks"
	"github.com/mcoot/wordlobby/internal/hub"
	"github.com/mcoot/wordlobby/internal/model"
	"github.com/mcoot/wordlobby/internal/services/dictionary"
	"github.com/mcoot/wordlobby/internal/services/lobby"
	"github.com/mcoot/wordlobby/internal/services/validator"
	"github.com/mcoot/wordlobby/internal/storage/memory"
	"github.com/mcoot/wordlobby/internal/testutil"
)

const waitTimeout = 2 * time.Second

type SessionSuite struct {
	suite.Suite
	storage  *memory.Storage
	random   *mocks.MockRandom
	registry *lobby.Registry
	hubs     *hub.Manager
	handler  *Handler
	ctx      context.Context
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.setup(lobby.Config{})
}

func (s *SessionSuite) setup(cfg lobby.Config) {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.registry = lobby.NewRegistry(s.storage, clk, s.random, mocks.NewMockIDGenerator(), cfg, logger)
	s.hubs = hub.NewManager(logger)

	dict := dictionary.New(s.storage, logger)
	_ = dict.LoadWords([]string{"spark", "stork", "apple"})

	s.handler = NewHandler(s.registry, s.hubs, validator.New(dict), logger)
	s.ctx = context.Background()
}

// serve runs a session in the background and returns a channel closed when it ends
func (s *SessionSuite) serve(conn Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handler.Serve(s.ctx, conn)
	}()
	return done
}

func (s *SessionSuite) waitDone(done <-chan struct{}) {
	select {
	case <-done:
	case <-time.After(waitTimeout):
		s.FailNow("session did not end")
	}
}

func (s *SessionSuite) waitMessages(conn *testutil.FakeConn, n int) []map[string]any {
	msgs := conn.WaitForMessages(n, waitTimeout)
	s.Require().Len(msgs, n, "messages: %v", msgs)
	return msgs
}

func (s *SessionSuite) assertClosed(conn *testutil.FakeConn, code int) {
	closed, got, _ := conn.CloseStatus()
	s.True(closed)
	s.Equal(code, got)
}

func (s *SessionSuite) startGame(name, letters string) (*testutil.FakeConn, <-chan struct{}, map[string]any) {
	s.random.QueueString("ABC123")
	conn := testutil.NewFakeConn("conn-" + name)
	conn.PushJSON(map[string]any{
		"event":   "start_game",
		"payload": map[string]any{"name": name, "letters": letters},
	})
	done := s.serve(conn)
	msgs := s.waitMessages(conn, 1)
	s.Require().Equal("game_started", msgs[0]["event"])
	return conn, done, msgs[0]["payload"].(map[string]any)
}

func (s *SessionSuite) joinGame(name, code string) (*testutil.FakeConn, <-chan struct{}) {
	conn := testutil.NewFakeConn("conn-" + name)
	conn.PushJSON(map[string]any{
		"event":   "join_game",
		"payload": map[string]any{"name": name, "join_code": code},
	})
	return conn, s.serve(conn)
}

func (s *SessionSuite) lobbyCount() int {
	count, err := s.registry.Count(s.ctx)
	s.Require().NoError(err)
	return count
}

// Handshake tests

func (s *SessionSuite) TestStartGame() {
	conn, done, payload := s.startGame("Alice", "sk")

	s.Equal("success", payload["status"])
	s.Equal("ABC123", payload["join_code"])
	s.NotEmpty(payload["lobby_id"])
	s.NotEmpty(payload["player_id"])

	stored, err := s.registry.LookupByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("SK", stored.Letters)
	s.Require().Len(stored.Players, 1)
	s.True(stored.Players[0].IsHost)
	s.Equal(1, s.hubs.ConnectionCount(stored.ID))

	conn.Hangup()
	s.waitDone(done)
}

func (s *SessionSuite) TestStartGameShortLetters() {
	for _, letters := range []string{"", "A", " B "} {
		conn := testutil.NewFakeConn("conn")
		conn.PushJSON(map[string]any{
			"event":   "start_game",
			"payload": map[string]any{"name": "Alice", "letters": letters},
		})
		s.waitDone(s.serve(conn))

		msgs := conn.Messages()
		s.Require().Len(msgs, 1)
		s.Equal("error", msgs[0]["event"])
		s.Equal("Invalid start game data: must provide at least two letters", msgs[0]["message"])
		s.assertClosed(conn, ClosePolicyViolation)
	}
	s.Equal(0, s.lobbyCount())
}

func (s *SessionSuite) TestStartGameEmptyName() {
	conn := testutil.NewFakeConn("conn")
	conn.Push(`{"event":"start_game","payload":{"name":"  ","letters":"AB"}}`)
	s.waitDone(s.serve(conn))

	msgs := conn.Messages()
	s.Require().Len(msgs, 1)
	s.Equal("Invalid start game data: name must not be empty", msgs[0]["message"])
	s.assertClosed(conn, ClosePolicyViolation)
	s.Equal(0, s.lobbyCount())
}

func (s *SessionSuite) TestStartGameWrongFieldType() {
	conn := testutil.NewFakeConn("conn")
	conn.Push(`{"event":"start_game","payload":{"name":"Alice","letters":12}}`)
	s.waitDone(s.serve(conn))

	msgs := conn.Messages()
	s.Require().Len(msgs, 1)
	s.Equal("Invalid start game data: letters must be a string", msgs[0]["message"])
	s.assertClosed(conn, ClosePolicyViolation)
}

func (s *SessionSuite) TestFirstEventMustBeHandshake() {
	frames := []string{
		`{"event":"chat_message","payload":{"text":"hi"}}`,
		`{"event":"guess","payload":{"guess":"spark"}}`,
		`not json`,
		`{"payload":{}}`,
	}
	for _, frame := range frames {
		conn := testutil.NewFakeConn("conn")
		conn.Push(frame)
		s.waitDone(s.serve(conn))

		msgs := conn.Messages()
		s.Require().Len(msgs, 1, frame)
		s.Equal("error", msgs[0]["event"])
		s.Equal("Connection not initialized. First event must be 'start_game' or 'join_game'.", msgs[0]["message"])
		s.assertClosed(conn, ClosePolicyViolation)
	}
}

func (s *SessionSuite) TestHangupBeforeHandshake() {
	conn := testutil.NewFakeConn("conn")
	conn.Hangup()
	s.waitDone(s.serve(conn))

	s.Empty(conn.Sent())
	s.Equal(0, s.hubs.TotalConnections())
}

func (s *SessionSuite) TestJoinUnknownCode() {
	alice, aliceDone, _ := s.startGame("Alice", "sk")

	bob, bobDone := s.joinGame("Bob", "NOPE99")
	s.waitDone(bobDone)

	msgs := bob.Messages()
	s.Require().Len(msgs, 1)
	s.Equal("error", msgs[0]["event"])
	s.Equal("Game not found.", msgs[0]["message"])
	s.assertClosed(bob, ClosePolicyViolation)

	stored, err := s.registry.LookupByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Len(stored.Players, 1)

	// The failed join is never announced
	s.Len(alice.Messages(), 1)

	alice.Hangup()
	s.waitDone(aliceDone)
}

func (s *SessionSuite) TestJoinMissingCode() {
	bob, done := s.joinGame("Bob", "")
	s.waitDone(done)

	msgs := bob.Messages()
	s.Require().Len(msgs, 1)
	s.Equal("Invalid join game data: join code must not be empty", msgs[0]["message"])
	s.assertClosed(bob, ClosePolicyViolation)
}

func (s *SessionSuite) TestJoinFullLobby() {
	s.setup(lobby.Config{MaxPlayers: 1})
	alice, aliceDone, _ := s.startGame("Alice", "sk")

	bob, bobDone := s.joinGame("Bob", "ABC123")
	s.waitDone(bobDone)

	msgs := bob.Messages()
	s.Require().Len(msgs, 1)
	s.Equal("Game is full.", msgs[0]["message"])
	s.assertClosed(bob, ClosePolicyViolation)

	alice.Hangup()
	s.waitDone(aliceDone)
}

func (s *SessionSuite) TestDepartedPlayersCountTowardsCap() {
	s.setup(lobby.Config{MaxPlayers: 2})
	alice, aliceDone, _ := s.startGame("Alice", "sk")

	bob, bobDone := s.joinGame("Bob", "ABC123")
	s.waitMessages(bob, 2)
	bob.Push(`{"event":"disconnect","payload":{}}`)
	s.waitDone(bobDone)
	s.Equal(1, s.lobbyCount())

	carol, carolDone := s.joinGame("Carol", "ABC123")
	s.waitDone(carolDone)

	msgs := carol.Messages()
	s.Require().Len(msgs, 1)
	s.Equal("Game is full.", msgs[0]["message"])
	s.assertClosed(carol, ClosePolicyViolation)

	alice.Hangup()
	s.waitDone(aliceDone)
}

// Bound state tests

func (s *SessionSuite) TestJoinChatGuessDisconnect() {
	alice, aliceDone, started := s.startGame("Alice", "sk")

	bob, bobDone := s.joinGame("Bob", "abc123")
	bobMsgs := s.waitMessages(bob, 2)
	s.Equal("game_joined", bobMsgs[0]["event"])
	joined := bobMsgs[0]["payload"].(map[string]any)
	s.Equal("success", joined["status"])
	s.Equal(started["lobby_id"], joined["lobby_id"])
	s.NotEqual(started["player_id"], joined["player_id"])
	s.Equal(map[string]any{"event": "player_joined", "name": "Bob"}, bobMsgs[1])

	aliceMsgs := s.waitMessages(alice, 2)
	s.Equal(map[string]any{"event": "player_joined", "name": "Bob"}, aliceMsgs[1])

	// Chat without text defaults to an empty string
	bob.Push(`{"event":"chat_message","payload":{"text":"hello"}}`)
	bob.Push(`{"event":"chat_message","payload":{}}`)
	// Guesses are always broadcast
	bob.Push(`{"event":"guess","payload":{"guess":"Spark"}}`)
	bob.Push(`{"event":"guess","payload":{"guess":"shark"}}`)
	bob.Push(`{"event":"guess","payload":{}}`)

	aliceMsgs = s.waitMessages(alice, 7)
	s.Equal(map[string]any{"event": "chat_message", "sender": "Bob", "text": "hello"}, aliceMsgs[2])
	s.Equal(map[string]any{"event": "chat_message", "sender": "Bob", "text": ""}, aliceMsgs[3])
	s.Equal(map[string]any{"event": "guess_made", "sender": "Bob", "guess": "Spark", "result": "Correct"}, aliceMsgs[4])
	s.Equal(map[string]any{"event": "guess_made", "sender": "Bob", "guess": "shark", "result": "Incorrect"}, aliceMsgs[5])
	s.Equal(map[string]any{"event": "guess_made", "sender": "Bob", "guess": "", "result": "Incorrect"}, aliceMsgs[6])
	s.waitMessages(bob, 7)

	bob.Push(`{"event":"disconnect","payload":{}}`)
	s.waitDone(bobDone)

	bobMsgs = bob.Messages()
	s.Require().Len(bobMsgs, 8)
	s.Equal(map[string]any{"event": "disconnect", "sender": "Bob", "result": "Success"}, bobMsgs[7])
	s.assertClosed(bob, CloseNormal)

	aliceMsgs = s.waitMessages(alice, 8)
	s.Equal(map[string]any{"event": "player_disconnected", "name": "Bob"}, aliceMsgs[7])

	// Alice is still in a live lobby
	lobbyID := model.LobbyID(started["lobby_id"].(string))
	s.Equal(1, s.hubs.ConnectionCount(lobbyID))
	s.Equal(1, s.lobbyCount())

	alice.Hangup()
	s.waitDone(aliceDone)
	s.Equal(0, s.lobbyCount())
}

func (s *SessionSuite) TestUncleanDisconnectNotifiesLobby() {
	alice, aliceDone, _ := s.startGame("Alice", "AB")
	bob, bobDone := s.joinGame("Bob", "ABC123")
	s.waitMessages(bob, 2)

	alice.Hangup()
	s.waitDone(aliceDone)

	bobMsgs := s.waitMessages(bob, 3)
	s.Equal(map[string]any{"event": "player_disconnected", "name": "Alice"}, bobMsgs[2])

	bob.Hangup()
	s.waitDone(bobDone)
	s.Equal(0, s.lobbyCount())
}

func (s *SessionSuite) TestUnknownEventKeepsConnectionOpen() {
	alice, aliceDone, _ := s.startGame("Alice", "sk")
	bob, bobDone := s.joinGame("Bob", "ABC123")
	s.waitMessages(bob, 2)
	s.waitMessages(alice, 2)

	bob.Push(`{"event":"dance","payload":{}}`)
	bobMsgs := s.waitMessages(bob, 3)
	s.Equal(map[string]any{"event": "error", "message": "Unknown event: dance"}, bobMsgs[2])

	closed, _, _ := bob.CloseStatus()
	s.False(closed)

	bob.Push(`{"event":"chat_message","payload":{"text":"still here"}}`)
	aliceMsgs := s.waitMessages(alice, 3)
	s.Equal("still here", aliceMsgs[2]["text"])

	bob.Hangup()
	s.waitDone(bobDone)
	alice.Hangup()
	s.waitDone(aliceDone)
}

func (s *SessionSuite) TestMalformedMessageWhileBound() {
	alice, aliceDone, _ := s.startGame("Alice", "sk")
	bob, bobDone := s.joinGame("Bob", "ABC123")
	s.waitMessages(bob, 2)

	bob.Push(`{"event":"guess","payload":"spark"}`)
	s.waitDone(bobDone)

	bobMsgs := bob.Messages()
	s.Require().Len(bobMsgs, 3)
	s.Equal(map[string]any{"event": "error", "message": "Invalid message: payload must be an object"}, bobMsgs[2])
	s.assertClosed(bob, ClosePolicyViolation)

	aliceMsgs := s.waitMessages(alice, 3)
	s.Equal(map[string]any{"event": "player_disconnected", "name": "Bob"}, aliceMsgs[2])

	alice.Hangup()
	s.waitDone(aliceDone)
}

func (s *SessionSuite) TestMistypedFieldsKeepConnectionOpen() {
	alice, aliceDone, _ := s.startGame("Alice", "sk")
	bob, bobDone := s.joinGame("Bob", "ABC123")
	s.waitMessages(bob, 2)
	s.waitMessages(alice, 2)

	bob.Push(`{"event":"guess","payload":{"guess":5}}`)
	bobMsgs := s.waitMessages(bob, 3)
	s.Equal(map[string]any{"event": "error", "message": "Invalid message: guess must be a string"}, bobMsgs[2])

	bob.Push(`{"event":"chat_message","payload":{"text":["hi"]}}`)
	bobMsgs = s.waitMessages(bob, 4)
	s.Equal(map[string]any{"event": "error", "message": "Invalid message: text must be a string"}, bobMsgs[3])

	closed, _, _ := bob.CloseStatus()
	s.False(closed)

	bob.Push(`{"event":"guess","payload":{"guess":"spark"}}`)
	aliceMsgs := s.waitMessages(alice, 3)
	s.Equal("guess_made", aliceMsgs[2]["event"])
	s.Equal("spark", aliceMsgs[2]["guess"])

	bob.Hangup()
	s.waitDone(bobDone)
	alice.Hangup()
	s.waitDone(aliceDone)
}

// panicConn panics on its second Receive, after the handshake
type panicConn struct {
	*testutil.FakeConn
	calls int
}

func (c *panicConn) Receive(ctx context.Context) ([]byte, error) {
	c.calls++
	if c.calls > 1 {
		panic("boom")
	}
	return c.FakeConn.Receive(ctx)
}

func (s *SessionSuite) TestPanicStillRunsCleanup() {
	alice, aliceDone, _ := s.startGame("Alice", "sk")

	bob := &panicConn{FakeConn: testutil.NewFakeConn("conn-bob")}
	bob.PushJSON(map[string]any{
		"event":   "join_game",
		"payload": map[string]any{"name": "Bob", "join_code": "ABC123"},
	})
	s.waitDone(s.serve(bob))

	s.assertClosed(bob.FakeConn, CloseInternalError)
	aliceMsgs := s.waitMessages(alice, 3)
	s.Equal(map[string]any{"event": "player_disconnected", "name": "Bob"}, aliceMsgs[2])

	alice.Hangup()
	s.waitDone(aliceDone)
}

func (s *SessionSuite) TestShutdownClosesGoingAway() {
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	alice, aliceDone, _ := s.startGame("Alice", "sk")

	cancel()
	s.waitDone(aliceDone)
	s.assertClosed(alice, CloseGoingAway)
}

func (s *SessionSuite) TestShutdownBeforeHandshakeClosesGoingAway() {
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	conn := testutil.NewFakeConn("conn-idle")
	done := s.serve(conn)

	cancel()
	s.waitDone(done)
	s.assertClosed(conn, CloseGoingAway)
	s.Empty(conn.Messages())
	s.Equal(0, s.lobbyCount())
}

func (s *SessionSuite) TestStateString() {
	s.Equal("unbound", StateUnbound.String())
	s.Equal("bound", StateBound.String())
	s.Equal("closed", StateClosed.String())
}
