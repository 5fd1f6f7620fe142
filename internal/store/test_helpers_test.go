package store

import (
	"path/filepath"
	"testing"
	"time"
)

// testEpoch anchors run timestamps in tests.
var testEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id, journey string, startedAt time.Time) Run {
	return Run{
		ID:        id,
		Journey:   journey,
		AfterTest: "STAY_IN_APP",
		Window:    6 * time.Second,
		Leeway:    3 * time.Second,
		HasNext:   true,
		StartedAt: startedAt,
	}
}
