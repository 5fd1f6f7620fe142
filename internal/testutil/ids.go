package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator hands out predictable run IDs: "run-1", "run-2", ...
// or a caller-supplied sequence.
//
// Deterministic IDs keep journal rows and golden traces identical between
// runs. Safe for concurrent use.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	n   int
}

// NewFixedIDGenerator creates a generator returning ids in order and
// continuing with "run-N" once they are used up.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.n <= len(g.ids) {
		return g.ids[g.n-1]
	}
	return fmt.Sprintf("run-%d", g.n)
}
