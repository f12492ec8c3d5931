package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out submission IDs of the form "<prefix>-0001",
// "<prefix>-0002", and so on. It satisfies store.IDGenerator.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs returns a generator for prefix. An empty prefix becomes
// "test-sub".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "test-sub"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
