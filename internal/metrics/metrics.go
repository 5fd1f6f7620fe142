// Package metrics provides Prometheus metrics for scenario runs.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"k8s.io/utils/clock"

	"github.com/roach88/longevity/internal/runner"
)

// Outcome label values.
const (
	OutcomePassed   = "passed"
	OutcomeFailed   = "failed"
	OutcomeTimedOut = "timed_out"
	OutcomeIgnored  = "ignored"
)

// Idle phase label values.
const (
	PhaseBeforeTeardown     = "before_teardown"
	PhaseBeforeNextScenario = "before_next_scenario"
)

// Metrics holds the runner's Prometheus metrics.
type Metrics struct {
	// Run metrics
	OutcomesTotal   *prometheus.CounterVec
	JourneyDuration *prometheus.HistogramVec
	RunsInProgress  prometheus.Gauge

	// Idle metrics
	IdleSeconds *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
// A nil reg registers with the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		OutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "longevity_scenario_outcomes_total",
				Help: "Scenario runs by journey and outcome",
			},
			[]string{"journey", "outcome"},
		),
		JourneyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "longevity_journey_duration_seconds",
				Help:    "Time from test start to test finish, teardown included",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"journey"},
		),
		RunsInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "longevity_runs_in_progress",
				Help: "Scenarios started and not yet finished",
			},
		),
		IdleSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "longevity_idle_seconds",
				Help:    "Requested idle durations by phase",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
			},
			[]string{"phase"},
		),
	}
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// Notifier records outcomes and journey durations.
// Safe for concurrent use.
type Notifier struct {
	m     *Metrics
	clock clock.PassiveClock

	mu      sync.Mutex
	started map[string]time.Time
	outcome map[string]string
}

// NewNotifier creates a notifier timing journeys on c, or the real clock if nil.
func NewNotifier(m *Metrics, c clock.PassiveClock) *Notifier {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Notifier{
		m:       m,
		clock:   c,
		started: make(map[string]time.Time),
		outcome: make(map[string]string),
	}
}

func (n *Notifier) TestStarted(d runner.Description) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started[d.Journey] = n.clock.Now()
	n.outcome[d.Journey] = OutcomePassed
	n.m.RunsInProgress.Inc()
}

func (n *Notifier) TestFailure(f runner.Failure) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case runner.IsDeadlineExceeded(f.Err) && n.outcome[f.Description.Journey] != OutcomeFailed:
		n.outcome[f.Description.Journey] = OutcomeTimedOut
	case n.outcome[f.Description.Journey] == OutcomePassed:
		n.outcome[f.Description.Journey] = OutcomeFailed
	}
}

func (n *Notifier) TestIgnored(d runner.Description) {
	n.m.OutcomesTotal.WithLabelValues(d.Journey, OutcomeIgnored).Inc()
}

func (n *Notifier) TestFinished(d runner.Description) {
	n.mu.Lock()
	defer n.mu.Unlock()
	outcome, ok := n.outcome[d.Journey]
	if !ok {
		return
	}
	n.m.OutcomesTotal.WithLabelValues(d.Journey, outcome).Inc()
	n.m.JourneyDuration.WithLabelValues(d.Journey).Observe(n.clock.Since(n.started[d.Journey]).Seconds())
	n.m.RunsInProgress.Dec()
	delete(n.started, d.Journey)
	delete(n.outcome, d.Journey)
}

// Idler observes idle durations and forwards to next.
type Idler struct {
	m    *Metrics
	next runner.Idler
}

// NewIdler wraps next.
func NewIdler(m *Metrics, next runner.Idler) *Idler {
	return &Idler{m: m, next: next}
}

func (i *Idler) IdleBeforeTeardown(ctx context.Context, d time.Duration) {
	i.m.IdleSeconds.WithLabelValues(PhaseBeforeTeardown).Observe(d.Seconds())
	i.next.IdleBeforeTeardown(ctx, d)
}

func (i *Idler) IdleBeforeNextScenario(ctx context.Context, d time.Duration) {
	i.m.IdleSeconds.WithLabelValues(PhaseBeforeNextScenario).Observe(d.Seconds())
	i.next.IdleBeforeNextScenario(ctx, d)
}
