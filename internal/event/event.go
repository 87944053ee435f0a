// Package event carries change notifications from the progress manager
// to the external synchronization engine.
//
// Every successful local mutation publishes one Event holding the full
// updated ProgressRecord. The sync engine is solely responsible for
// reconciling these with server state; this core never pushes progress
// over the network itself.
package event

import (
	"github.com/google/uuid"

	"github.com/kitab-io/kitab/internal/reading"
)

// Operations that can produce an event.
const (
	OpProgress = "progress" // last-position update
	OpBookmark = "bookmark" // bookmark toggle
)

// Event is one change notification. Events for the same identity are
// published in write order; events for different identities carry no
// ordering guarantee beyond their Seq stamps.
type Event struct {
	ID       string                  `json:"id"`  // UUIDv7, time-sortable
	Seq      int64                   `json:"seq"` // monotonic per client
	Op       string                  `json:"op"`  // OpProgress or OpBookmark
	Identity string                  `json:"identity"`
	Record   *reading.ProgressRecord `json:"record"`
}

// CanonicalJSON returns the deterministic wire form of the event payload
// consumed by the sync engine. ID and Seq are client-local and excluded,
// so two clients holding the same record produce identical bytes.
func (e Event) CanonicalJSON() ([]byte, error) {
	return reading.MarshalCanonical(map[string]any{
		"identity": e.Identity,
		"record":   reading.CanonicalRecord(e.Record),
	})
}

// IDGenerator produces event IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 event IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, making IDs
// sortable by creation time, which helps when inspecting sync traffic.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined IDs for deterministic tests and
// golden trace comparison.
type FixedGenerator struct {
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
// Generate panics once all tokens are exhausted.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedGenerator) Generate() string {
	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
