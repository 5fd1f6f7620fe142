package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/roach88/longevity/internal/args"
	"github.com/roach88/longevity/internal/journey"
	"github.com/roach88/longevity/internal/scenario"
	"github.com/roach88/longevity/internal/waiter"
)

// DefaultTeardownLeeway is the teardown budget when no override is set.
const DefaultTeardownLeeway = 3 * time.Second

// TeardownLeewayOption is the argument key overriding the teardown leeway,
// in whole milliseconds.
const TeardownLeewayOption = "teardown-leeway"

// Config describes the scenario a Runner executes.
type Config struct {
	// Journey is the journey identifier. Empty means Scenario.Journey.
	Journey string

	// Scenario is the immutable descriptor.
	Scenario scenario.Descriptor

	// Window is the time from the start of Run until the next scenario must
	// begin. Window must be at least the teardown leeway.
	Window time.Duration

	// HasNext is false for the last scenario of a sequence.
	HasNext bool

	// Overrides is consulted before the shared arguments when reading
	// TeardownLeewayOption and FilterOption. Optional.
	Overrides *args.Bundle
}

// Runner executes one scenario. Build one per scenario with New.
type Runner struct {
	journeyName string
	journey     journey.Journey
	scenario    scenario.Descriptor
	window      time.Duration
	hasNext     bool
	overrides   *args.Bundle

	leeway  time.Duration
	ignored bool

	arguments *args.Bundle
	clock     clock.WithTicker
	idler     Idler
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithArguments sets the shared argument bundle the scenario's extras are
// merged into. Defaults to a fresh empty bundle.
func WithArguments(b *args.Bundle) Option {
	return func(r *Runner) {
		r.arguments = b
	}
}

// WithClock sets the clock used for elapsed time, deadlines and, unless
// WithIdler is given, the default idler's waits.
func WithClock(c clock.WithTicker) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithIdler replaces the default waiter-backed idler.
func WithIdler(i Idler) Option {
	return func(r *Runner) {
		r.idler = i
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New resolves the journey and reads the leeway and exclusion options.
//
// Returns *InitializationError if the journey is not registered or the
// leeway override is not a non-negative integer.
func New(reg *journey.Registry, cfg Config, opts ...Option) (*Runner, error) {
	r := &Runner{
		scenario:  cfg.Scenario,
		window:    cfg.Window,
		hasNext:   cfg.HasNext,
		overrides: cfg.Overrides,
		leeway:    DefaultTeardownLeeway,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.arguments == nil {
		r.arguments = args.New()
	}
	if r.clock == nil {
		r.clock = clock.RealClock{}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.idler == nil {
		r.idler = NewWaiterIdler(waiter.New(waiter.WithClock(r.clock), waiter.WithLogger(r.logger)))
	}

	id := cfg.Journey
	if id == "" {
		id = cfg.Scenario.Journey
	}
	if reg == nil {
		return nil, &InitializationError{Journey: id, Err: fmt.Errorf("no journey registry")}
	}
	name, j, err := reg.Resolve(id)
	if err != nil {
		return nil, &InitializationError{Journey: id, Err: err}
	}
	r.journeyName = name
	r.journey = j

	if v, ok := r.option(TeardownLeewayOption); ok {
		leeway, err := parseLeeway(v)
		if err != nil {
			return nil, &InitializationError{Journey: name, Err: err}
		}
		r.leeway = leeway
	}

	if v, ok := r.option(FilterOption); ok {
		r.ignored = Excluded(v, name)
	}

	return r, nil
}

func parseLeeway(v string) (time.Duration, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", TeardownLeewayOption, v, err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", TeardownLeewayOption, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// option looks key up in the overrides, then in the shared arguments.
func (r *Runner) option(key string) (string, bool) {
	if r.overrides != nil {
		if v, ok := r.overrides.Get(key); ok {
			return v, true
		}
	}
	return r.arguments.Get(key)
}

// TeardownLeeway returns the leeway fixed at construction.
func (r *Runner) TeardownLeeway() time.Duration {
	return r.leeway
}

// Ignored reports whether the exclusion list names this journey.
func (r *Runner) Ignored() bool {
	return r.ignored
}

// Description returns the description passed to the notifier.
func (r *Runner) Description() Description {
	return Description{
		Journey:   r.journeyName,
		At:        r.scenario.At,
		AfterTest: r.scenario.Policy(),
	}
}

// status is the outcome of one run.
type status string

const (
	statusPassed   status = "passed"
	statusFailed   status = "failed"
	statusTimedOut status = "timed_out"
	statusIgnored  status = "ignored"
)

// outcome is computed once per run and discarded after logging.
type outcome struct {
	status         status
	elapsed        time.Duration
	idleBeforeTear time.Duration
	idleBeforeNext time.Duration
}

// Run executes the scenario and reports through n.
//
// Run returns once the window is used up, or earlier when there is no next
// scenario. Cancelling ctx abandons the journey and cuts idling short;
// teardown still runs and the arguments are still restored.
func (r *Runner) Run(ctx context.Context, n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	start := r.clock.Now()
	desc := r.Description()

	tok := r.arguments.Override(r.scenario.ExtraPairs())
	defer func() {
		if err := r.arguments.Restore(tok); err != nil {
			r.logger.Error("restore arguments", "journey", desc.Journey, "error", err)
		}
	}()

	var out outcome
	if r.ignored {
		n.TestIgnored(desc)
		out.status = statusIgnored
	} else {
		out = r.execute(ctx, n, desc, start)
	}

	if r.hasNext {
		out.idleBeforeNext = r.remaining(start)
		if out.idleBeforeNext > 0 {
			r.idler.IdleBeforeNextScenario(ctx, out.idleBeforeNext)
		}
	}

	r.logger.Info("scenario done",
		"journey", desc.Journey,
		"status", string(out.status),
		"elapsed", out.elapsed,
		"idle_before_teardown", clampZero(out.idleBeforeTear),
		"idle_before_next", clampZero(out.idleBeforeNext),
	)
}

// execute runs the non-skipped path up to and including TestFinished.
func (r *Runner) execute(ctx context.Context, n Notifier, desc Description, start time.Time) outcome {
	n.TestStarted(desc)
	r.logger.Debug("journey started", "journey", desc.Journey, "deadline", r.window-r.leeway)

	out := outcome{status: statusPassed}
	err := enforce(ctx, r.clock, r.window-r.leeway, PhaseTest, func(jctx context.Context) error {
		if err := r.journey.Setup(jctx, r.arguments); err != nil {
			return err
		}
		return r.journey.Test(jctx, r.arguments)
	})
	out.elapsed = r.clock.Since(start)
	if err != nil {
		out.status = statusFailed
		if IsDeadlineExceeded(err) {
			out.status = statusTimedOut
		}
		n.TestFailure(Failure{Description: desc, Err: err})
	}

	if r.scenario.Policy() == scenario.StayInApp && r.hasNext && out.status != statusTimedOut {
		out.idleBeforeTear = r.remaining(start) - 2*r.leeway
		if out.idleBeforeTear > 0 {
			r.idler.IdleBeforeTeardown(ctx, out.idleBeforeTear)
		}
	}

	if err := r.teardown(ctx); err != nil {
		if out.status == statusPassed {
			out.status = statusFailed
		}
		n.TestFailure(Failure{Description: desc, Err: err})
	}

	n.TestFinished(desc)
	return out
}

// teardown runs Teardown bounded by the leeway, even after ctx is cancelled.
func (r *Runner) teardown(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	fn := func(tctx context.Context) error {
		return r.journey.Teardown(tctx, r.arguments)
	}
	if r.leeway == 0 {
		return protect(ctx, PhaseTeardown, fn)
	}
	return enforce(ctx, r.clock, r.leeway, PhaseTeardown, fn)
}

// remaining is what is left of the window.
func (r *Runner) remaining(start time.Time) time.Duration {
	return r.window - r.clock.Since(start)
}

func clampZero(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
