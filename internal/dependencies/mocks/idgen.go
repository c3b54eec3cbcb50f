package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/wordlobby/internal/dependencies/idgen"
)

// MockIDGenerator is a mock implementation of Generator for testing
type MockIDGenerator struct {
	mu      sync.Mutex
	queue   []string
	counter int
}

// Ensure MockIDGenerator implements Generator
var _ idgen.Generator = (*MockIDGenerator)(nil)

// NewMockIDGenerator creates a new MockIDGenerator
func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

// NewID returns the next queued ID, or a sequential "id-N" once the queue is empty
func (g *MockIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) > 0 {
		id := g.queue[0]
		g.queue = g.queue[1:]
		return id
	}
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}

// QueueIDs adds values to the ID queue
func (g *MockIDGenerator) QueueIDs(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue = append(g.queue, ids...)
}
