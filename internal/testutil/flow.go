package testutil

import (
	"fmt"
	"sync"
)

// SeqIDGenerator produces sequential event IDs ("evt-000001",
// "evt-000002", ...) instead of random UUIDs.
//
// This enables deterministic test execution and golden trace
// comparison. The same scenario with the same SeqIDGenerator produces
// byte-identical event traces.
type SeqIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSeqIDGenerator creates a generator with the given ID prefix.
// An empty prefix defaults to "evt".
func NewSeqIDGenerator(prefix string) *SeqIDGenerator {
	if prefix == "" {
		prefix = "evt"
	}
	return &SeqIDGenerator{prefix: prefix}
}

// Generate returns the next sequential ID.
func (g *SeqIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}

// Reset restarts numbering for test reuse.
func (g *SeqIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
