package report

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares the recorded trace against
// testdata/golden/{name}.golden in the calling package.
//
// To regenerate golden files, run the tests with -update.
func AssertGolden(t *testing.T, name string, r *Recorder) {
	t.Helper()

	data, err := r.Snapshot(name)
	if err != nil {
		t.Fatalf("snapshot trace: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
