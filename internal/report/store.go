package report

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/roach88/longevity/internal/runner"
	"github.com/roach88/longevity/internal/store"
)

// RunInfo is the budget of the run being journaled.
type RunInfo struct {
	Window  time.Duration
	Leeway  time.Duration
	HasNext bool
}

// StoreNotifier journals one run to a store.
//
// The run row is created on TestStarted or TestIgnored and closed on
// TestFinished or TestIgnored. A notifier cannot fail its caller, so write
// errors are logged and kept for Err.
type StoreNotifier struct {
	store  *store.Store
	info   RunInfo
	ids    IDGenerator
	clock  clock.PassiveClock
	logger *slog.Logger

	mu      sync.Mutex
	runID   string
	tracker statusTracker
	err     error
}

// StoreOption configures a StoreNotifier.
type StoreOption func(*StoreNotifier)

// WithIDGenerator replaces the UUIDv7 run IDs.
func WithIDGenerator(g IDGenerator) StoreOption {
	return func(n *StoreNotifier) { n.ids = g }
}

// WithStoreClock sets the clock used for journal timestamps.
func WithStoreClock(c clock.PassiveClock) StoreOption {
	return func(n *StoreNotifier) { n.clock = c }
}

// WithStoreLogger sets where write errors are logged.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(n *StoreNotifier) { n.logger = l }
}

// NewStoreNotifier creates a notifier journaling to s.
func NewStoreNotifier(s *store.Store, info RunInfo, opts ...StoreOption) *StoreNotifier {
	n := &StoreNotifier{store: s, info: info}
	for _, opt := range opts {
		opt(n)
	}
	if n.ids == nil {
		n.ids = UUIDv7Generator{}
	}
	if n.clock == nil {
		n.clock = clock.RealClock{}
	}
	if n.logger == nil {
		n.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return n
}

// RunID returns the journal ID of the run, or "" before it began.
func (n *StoreNotifier) RunID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.runID
}

// Err returns the first write error.
func (n *StoreNotifier) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

func (n *StoreNotifier) TestStarted(d runner.Description) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.begin(d)
	n.append(store.EventStarted, "", 0)
}

func (n *StoreNotifier) TestFailure(f runner.Failure) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.begin(f.Description)
	n.tracker.failure(f.Err)
	var timeout time.Duration
	if te, ok := timedOut(f.Err); ok {
		timeout = te.Timeout
	}
	n.append(store.EventFailure, f.Message(), timeout)
}

func (n *StoreNotifier) TestIgnored(d runner.Description) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.begin(d)
	n.append(store.EventIgnored, "", 0)
	n.finish(store.StatusIgnored)
}

func (n *StoreNotifier) TestFinished(d runner.Description) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.begin(d)
	n.append(store.EventFinished, "", 0)
	n.finish(n.tracker.final())
}

// begin creates the run row once. Callers hold mu.
func (n *StoreNotifier) begin(d runner.Description) {
	if n.runID != "" {
		return
	}
	n.runID = n.ids.Generate()
	n.record(n.store.BeginRun(context.Background(), store.Run{
		ID:          n.runID,
		Journey:     d.Journey,
		ScheduledAt: d.At,
		AfterTest:   string(d.AfterTest),
		Window:      n.info.Window,
		Leeway:      n.info.Leeway,
		HasNext:     n.info.HasNext,
		StartedAt:   n.clock.Now(),
	}))
}

func (n *StoreNotifier) append(kind, message string, timeout time.Duration) {
	_, err := n.store.AppendEvent(context.Background(), store.Event{
		RunID:      n.runID,
		Kind:       kind,
		Message:    message,
		Timeout:    timeout,
		RecordedAt: n.clock.Now(),
	})
	n.record(err)
}

func (n *StoreNotifier) finish(status string) {
	n.record(n.store.FinishRun(context.Background(), n.runID, status, n.clock.Now()))
}

func (n *StoreNotifier) record(err error) {
	if err == nil {
		return
	}
	n.logger.Error("journal write failed", "run_id", n.runID, "error", err)
	if n.err == nil {
		n.err = err
	}
}
