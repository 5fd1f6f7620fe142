package report

import (
	"encoding/json"
	"sync"

	"github.com/roach88/longevity/internal/runner"
	"github.com/roach88/longevity/internal/store"
)

// Trace event types.
const (
	TypeStarted  = "started"
	TypeFailure  = "failure"
	TypeIgnored  = "ignored"
	TypeFinished = "finished"
)

// TraceEvent is one recorded notification.
type TraceEvent struct {
	Type      string `json:"type"`
	Journey   string `json:"journey"`
	Message   string `json:"message,omitempty"`
	TimeoutMS int64  `json:"timeout_ms,omitempty"`
	Seq       int64  `json:"seq"`
}

// Recorder is an in-memory Notifier. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	events   []TraceEvent
	failures []runner.Failure
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{events: []TraceEvent{}}
}

func (r *Recorder) TestStarted(d runner.Description) {
	r.add(TraceEvent{Type: TypeStarted, Journey: d.Journey})
}

func (r *Recorder) TestFailure(f runner.Failure) {
	ev := TraceEvent{Type: TypeFailure, Journey: f.Description.Journey, Message: f.Message()}
	if te, ok := timedOut(f.Err); ok {
		ev.TimeoutMS = te.Timeout.Milliseconds()
	}
	r.mu.Lock()
	r.failures = append(r.failures, f)
	r.mu.Unlock()
	r.add(ev)
}

func (r *Recorder) TestIgnored(d runner.Description) {
	r.add(TraceEvent{Type: TypeIgnored, Journey: d.Journey})
}

func (r *Recorder) TestFinished(d runner.Description) {
	r.add(TraceEvent{Type: TypeFinished, Journey: d.Journey})
}

func (r *Recorder) add(ev TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Seq = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
}

// Events returns the trace so far.
func (r *Recorder) Events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Failures returns every failure reported, with the original errors.
func (r *Recorder) Failures() []runner.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]runner.Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Count returns how many events of type typ were recorded.
func (r *Recorder) Count(typ string) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

// Types returns the event types in order.
func (r *Recorder) Types() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

// Passed reports whether the run was started and finished without failure.
func (r *Recorder) Passed() bool {
	return r.Count(TypeStarted) == 1 && r.Count(TypeFinished) == 1 && r.Count(TypeFailure) == 0
}

// Status folds the recorded notifications into a journal status.
// It is store.StatusRunning until the run finishes or is ignored.
func (r *Recorder) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tracker statusTracker
	for _, f := range r.failures {
		tracker.failure(f.Err)
	}
	for _, ev := range r.events {
		switch ev.Type {
		case TypeIgnored:
			return store.StatusIgnored
		case TypeFinished:
			return tracker.final()
		}
	}
	return store.StatusRunning
}

// TraceSnapshot is the serialized form of a recorded run.
type TraceSnapshot struct {
	Name  string       `json:"name"`
	Trace []TraceEvent `json:"trace"`
}

// Snapshot returns the trace as indented JSON under name.
func (r *Recorder) Snapshot(name string) ([]byte, error) {
	data, err := json.MarshalIndent(TraceSnapshot{Name: name, Trace: r.Events()}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
