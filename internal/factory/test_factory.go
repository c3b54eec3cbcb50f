package factory

import (
	"time"

	"github.com/mcoot/wordlobby/internal/dependencies/mocks"
	"github.com/mcoot/wordlobby/internal/services/lobby"
	"github.com/mcoot/wordlobby/internal/storage"
	"github.com/mcoot/wordlobby/internal/storage/memory"
	"github.com/mcoot/wordlobby/internal/testutil"
	"github.com/mcoot/wordlobby/internal/transport/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.MockIDGenerator
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New(), lobby.Config{})
}

// NewTestAppWithStorage creates a test App over the given storage backend
func NewTestAppWithStorage(store storage.Storage, lobbyCfg lobby.Config) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDGenerator()

	app := newWithDependencies(store, mockClock, mockRandom, mockIDs, lobbyCfg, ws.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockIDs:    mockIDs,
	}
}

// TestWords is a small dictionary covering common two-letter constraints
var TestWords = []string{
	"about", "above", "across", "again", "apple", "ask",
	"back", "black", "book", "brick", "bank",
	"cheek", "clock", "crack", "cat",
	"desk", "dark", "drink", "duck",
	"flask", "folk", "fork",
	"hook", "hulk",
	"kiosk", "knack",
	"look", "luck",
	"mask", "milk", "monk",
	"neck", "nook",
	"park", "pink", "pork",
	"rack", "rink", "rock",
	"shark", "sick", "silk", "smoke", "snack", "spark", "speak", "stork", "stuck",
	"task", "thick", "trek", "truck",
	"walk", "work",
}

// LoadTestDictionary loads a small dictionary for testing
func (t *TestApp) LoadTestDictionary() error {
	return t.DictionaryService.LoadWords(TestWords)
}
