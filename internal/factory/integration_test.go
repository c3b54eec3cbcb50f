package factory

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordlobby/internal/api"
	"github.com/mcoot/wordlobby/internal/protocol"
	"github.com/mcoot/wordlobby/internal/services/lobby"
	"github.com/mcoot/wordlobby/internal/storage"
	"github.com/mcoot/wordlobby/internal/storage/memory"
	redisstorage "github.com/mcoot/wordlobby/internal/storage/redis"
	"github.com/mcoot/wordlobby/internal/testutil"
)

const readTimeout = 2 * time.Second

type IntegrationSuite struct {
	suite.Suite
	storage func(t *testing.T) storage.Storage
	app     *TestApp
	server  *httptest.Server
	ctx     context.Context
}

func TestIntegrationMemory(t *testing.T) {
	suite.Run(t, &IntegrationSuite{
		storage: func(*testing.T) storage.Storage { return memory.New() },
	})
}

func TestIntegrationRedis(t *testing.T) {
	suite.Run(t, &IntegrationSuite{
		storage: func(t *testing.T) storage.Storage {
			mini := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
			return redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
		},
	})
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestAppWithStorage(s.storage(s.T()), lobby.Config{})
	s.ctx = context.Background()
	s.Require().NoError(s.app.LoadTestDictionary())

	router := api.NewRouter(api.RouterConfig{
		Logger:            testutil.NopLogger(),
		Registry:          s.app.Registry,
		HubManager:        s.app.HubManager,
		DictionaryService: s.app.DictionaryService,
		WebsocketHandler:  s.app.WebsocketHandler,
	})
	s.server = httptest.NewServer(router)
}

func (s *IntegrationSuite) TearDownTest() {
	s.app.WebsocketHandler.Close()
	s.server.Close()
}

func (s *IntegrationSuite) dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *IntegrationSuite) send(conn *websocket.Conn, frame string) {
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (s *IntegrationSuite) read(conn *websocket.Conn) *protocol.ServerEvent {
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, data, err := conn.ReadMessage()
	s.Require().NoError(err)
	ev, err := protocol.DecodeServerEvent(data)
	s.Require().NoError(err)
	return ev
}

func (s *IntegrationSuite) lobbyCount() int {
	count, err := s.app.Registry.Count(s.ctx)
	s.Require().NoError(err)
	return count
}

// Test: two players meet in a lobby, talk, guess, and leave
func (s *IntegrationSuite) TestCompleteLobbyFlow() {
	s.app.MockRandom.QueueString("ABC123")

	alice := s.dial()
	s.send(alice, `{"event":"start_game","payload":{"name":"Alice","letters":"sk"}}`)
	started := s.read(alice)
	s.Require().Equal("game_started", string(started.Event))
	s.Equal("ABC123", string(started.Payload.JoinCode))

	bob := s.dial()
	s.send(bob, `{"event":"join_game","payload":{"name":"Bob","join_code":"abc123"}}`)
	s.Equal("game_joined", string(s.read(bob).Event))
	s.Equal("Bob", s.read(alice).Name)
	s.Equal("Bob", s.read(bob).Name)

	stored, err := s.app.Registry.LookupByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Require().Len(stored.Players, 2)
	s.True(stored.Players[0].IsHost)
	s.Equal("Bob", stored.Players[1].DisplayName)

	s.send(alice, `{"event":"chat_message","payload":{"text":"ready?"}}`)
	for _, c := range []*websocket.Conn{alice, bob} {
		ev := s.read(c)
		s.Equal("chat_message", string(ev.Event))
		s.Equal("Alice", ev.Sender)
		s.Equal("ready?", ev.Text)
	}

	s.send(bob, `{"event":"guess","payload":{"guess":"spark"}}`)
	s.send(bob, `{"event":"guess","payload":{"guess":"sparkk"}}`)
	for _, c := range []*websocket.Conn{alice, bob} {
		s.Equal("Correct", s.read(c).Result)
		s.Equal("Incorrect", s.read(c).Result)
	}

	s.send(bob, `{"event":"disconnect","payload":{}}`)
	s.Equal("disconnect", string(s.read(bob).Event))

	left := s.read(alice)
	s.Equal("player_disconnected", string(left.Event))
	s.Equal("Bob", left.Name)
	s.Equal(1, s.lobbyCount())

	s.Require().NoError(alice.UnderlyingConn().Close())
	s.Eventually(func() bool { return s.lobbyCount() == 0 }, readTimeout, 10*time.Millisecond)
}

func (s *IntegrationSuite) TestLobbiesAreIsolated() {
	s.app.MockRandom.QueueString("AAAAAA", "BBBBBB")

	alice := s.dial()
	s.send(alice, `{"event":"start_game","payload":{"name":"Alice","letters":"sk"}}`)
	s.read(alice)

	carol := s.dial()
	s.send(carol, `{"event":"start_game","payload":{"name":"Carol","letters":"ab"}}`)
	s.read(carol)

	s.send(carol, `{"event":"chat_message","payload":{"text":"only me"}}`)
	s.Equal("only me", s.read(carol).Text)

	s.send(alice, `{"event":"chat_message","payload":{"text":"hello"}}`)
	s.Equal("hello", s.read(alice).Text)

	s.Equal(2, s.lobbyCount())
}

func (s *IntegrationSuite) TestUnknownJoinCode() {
	conn := s.dial()
	s.send(conn, `{"event":"join_game","payload":{"name":"Bob","join_code":"NOPE99"}}`)
	ev := s.read(conn)
	s.Equal("error", string(ev.Event))
	s.Equal("Game not found.", ev.Message)
	s.Equal(0, s.lobbyCount())
}

// Factory construction tests

type FactorySuite struct {
	suite.Suite
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactorySuite))
}

func (s *FactorySuite) TestDefaultsToMemory() {
	app, err := New(Config{})
	s.Require().NoError(err)
	defer app.Close()

	_, ok := app.Storage.(*memory.Storage)
	s.True(ok)
	s.NotNil(app.Registry)
	s.NotNil(app.WebsocketHandler)
}

func (s *FactorySuite) TestInvalidStorageType() {
	_, err := New(Config{StorageType: "mongo"})
	s.Error(err)
}

func (s *FactorySuite) TestRedisRequiresConfig() {
	_, err := New(Config{StorageType: StorageTypeRedis})
	s.Error(err)
}

func (s *FactorySuite) TestRedisStorage() {
	mini := miniredis.RunT(s.T())
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mini.Addr()

	app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	s.Require().NoError(err)
	defer app.Close()

	_, ok := app.Storage.(*redisstorage.Storage)
	s.True(ok)

	// A dictionary loaded from file is shared through redis
	path := filepath.Join(s.T().TempDir(), "words.txt")
	s.Require().NoError(os.WriteFile(path, []byte("spark\nstork\n"), 0o600))
	s.Require().NoError(app.DictionaryService.LoadFromFile(context.Background(), path))

	other, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	s.Require().NoError(err)
	defer other.Close()

	s.Require().NoError(other.DictionaryService.LoadFromStorage(context.Background()))
	s.True(other.DictionaryService.Contains("stork"))
}

func (s *FactorySuite) TestLoadsDictionaryPath() {
	path := filepath.Join(s.T().TempDir(), "words.txt")
	s.Require().NoError(os.WriteFile(path, []byte("spark\nstork\n"), 0o600))

	app, err := New(Config{DictionaryPath: path})
	s.Require().NoError(err)
	defer app.Close()

	s.True(app.DictionaryService.IsLoaded())
	s.Equal(2, app.DictionaryService.WordCount())
	s.True(app.DictionaryService.Contains("spark"))
}

func (s *FactorySuite) TestMissingDictionaryPathFallsBackToStorage() {
	mini := miniredis.RunT(s.T())
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mini.Addr()

	path := filepath.Join(s.T().TempDir(), "words.txt")
	s.Require().NoError(os.WriteFile(path, []byte("spark\nstork\n"), 0o600))

	first, err := New(Config{DictionaryPath: path, StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	s.Require().NoError(err)
	defer first.Close()
	s.True(first.DictionaryService.IsLoaded())

	second, err := New(Config{
		DictionaryPath: filepath.Join(s.T().TempDir(), "missing.txt"),
		StorageType:    StorageTypeRedis,
		RedisConfig:    &redisCfg,
	})
	s.Require().NoError(err)
	defer second.Close()

	s.True(second.DictionaryService.IsLoaded())
	s.True(second.DictionaryService.Contains("stork"))
}

func (s *FactorySuite) TestUnreadableDictionaryStillStarts() {
	app, err := New(Config{DictionaryPath: filepath.Join(s.T().TempDir(), "missing.txt")})
	s.Require().NoError(err)
	defer app.Close()

	s.False(app.DictionaryService.IsLoaded())
	s.Equal(0, app.DictionaryService.WordCount())
}

func (s *FactorySuite) TestRedisUnreachable() {
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://127.0.0.1:1"

	_, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	s.Error(err)
}
