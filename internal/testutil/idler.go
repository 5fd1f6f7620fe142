package testutil

import (
	"context"
	"sync"
	"time"

	clocktesting "k8s.io/utils/clock/testing"
)

// Idle phases recorded by RecordingIdler.
const (
	PhaseBeforeTeardown     = "before_teardown"
	PhaseBeforeNextScenario = "before_next_scenario"
)

// IdleCall is one recorded idle request.
type IdleCall struct {
	Phase    string
	Duration time.Duration
}

// RecordingIdler records idle requests instead of waiting.
//
// With a fake clock attached each request also advances that clock by the
// requested duration, so later arithmetic sees the time as spent.
// Safe for concurrent use.
type RecordingIdler struct {
	mu    sync.Mutex
	clock *clocktesting.FakeClock
	calls []IdleCall
}

// NewRecordingIdler creates a recorder. fc may be nil.
func NewRecordingIdler(fc *clocktesting.FakeClock) *RecordingIdler {
	return &RecordingIdler{clock: fc}
}

func (r *RecordingIdler) IdleBeforeTeardown(_ context.Context, d time.Duration) {
	r.record(PhaseBeforeTeardown, d)
}

func (r *RecordingIdler) IdleBeforeNextScenario(_ context.Context, d time.Duration) {
	r.record(PhaseBeforeNextScenario, d)
}

func (r *RecordingIdler) record(phase string, d time.Duration) {
	r.mu.Lock()
	r.calls = append(r.calls, IdleCall{Phase: phase, Duration: d})
	r.mu.Unlock()
	if r.clock != nil {
		r.clock.Step(d)
	}
}

// Calls returns all recorded requests in order.
func (r *RecordingIdler) Calls() []IdleCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]IdleCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// BeforeTeardown returns the durations requested before teardown.
func (r *RecordingIdler) BeforeTeardown() []time.Duration {
	return r.durations(PhaseBeforeTeardown)
}

// BeforeNextScenario returns the durations requested before the next scenario.
func (r *RecordingIdler) BeforeNextScenario() []time.Duration {
	return r.durations(PhaseBeforeNextScenario)
}

func (r *RecordingIdler) durations(phase string) []time.Duration {
	var out []time.Duration
	for _, c := range r.Calls() {
		if c.Phase == phase {
			out = append(out, c.Duration)
		}
	}
	return out
}
