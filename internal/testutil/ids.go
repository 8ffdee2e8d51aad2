package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates readable, ordered IDs: "<prefix>-0001",
// "<prefix>-0002", ...
//
// Golden output that prints IDs stays byte-identical across runs.
//
// Thread-safety: NewID is safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix becomes "id".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDs{prefix: prefix}
}

// NewID returns the next ID.
func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
