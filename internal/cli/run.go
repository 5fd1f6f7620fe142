package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/roach88/longevity/internal/args"
	"github.com/roach88/longevity/internal/journey"
	"github.com/roach88/longevity/internal/metrics"
	"github.com/roach88/longevity/internal/report"
	"github.com/roach88/longevity/internal/runner"
	"github.com/roach88/longevity/internal/scenario"
	"github.com/roach88/longevity/internal/store"
	"github.com/roach88/longevity/internal/waiter"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Window         time.Duration
	HasNext        bool
	Args           []string
	Exclude        []string
	TeardownLeeway int64
	Database       string
	MetricsFile    string
}

// RunSummary is the outcome of one run.
type RunSummary struct {
	Journey  string   `json:"journey"`
	At       string   `json:"at,omitempty"`
	Status   string   `json:"status"`
	Failures []string `json:"failures,omitempty"`
	RunID    string   `json:"run_id,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario-file>",
		Short: "Run one scenario inside its time window",
		Long: `Run the journey named by a scenario file inside a fixed time window.

The journey's setup and test get the window minus the teardown leeway. With
--has-next the command idles until the window is used up, so a wrapper can
start the next scenario on schedule.

Example:
  longevity run --window 6s ./scenarios/browse.yaml
  longevity run --window 1m --has-next --db ./longevity.db --arg account=qa ./scenarios/browse.toml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutput(opts.RootOptions, cmd)
			return out.report(runScenario(opts, out, args[0], cmd))
		},
	}

	cmd.Flags().DurationVar(&opts.Window, "window", time.Minute, "time from scenario start until the next scenario begins")
	cmd.Flags().BoolVar(&opts.HasNext, "has-next", false, "another scenario follows; idle out the rest of the window")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "shared argument as key=value (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "journeys to report as ignored (comma-separated or repeated)")
	cmd.Flags().Int64Var(&opts.TeardownLeeway, "teardown-leeway-ms", runner.DefaultTeardownLeeway.Milliseconds(), "teardown budget in milliseconds")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (optional)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile when done")

	return cmd
}

func runScenario(opts *RunOptions, out *output, path string, cmd *cobra.Command) error {
	logger := opts.newLogger(cmd.ErrOrStderr())

	d, err := scenario.LoadFile(path)
	if err != nil {
		return commandError(loadErrorCode(err), "failed to load scenario", err)
	}

	shared, err := parseArgs(opts.Args)
	if err != nil {
		return commandError(ErrCodeUsage, "invalid --arg", err)
	}

	overrides := args.New()
	if len(opts.Exclude) > 0 {
		overrides.Set(runner.FilterOption, strings.Join(opts.Exclude, ","))
	}
	if cmd.Flags().Changed("teardown-leeway-ms") {
		overrides.Set(runner.TeardownLeewayOption, strconv.FormatInt(opts.TeardownLeeway, 10))
	}

	reg, err := opts.registry()
	if err != nil {
		return commandError(ErrCodeUnknownJourney, "failed to build journey registry", err)
	}

	var (
		m        *metrics.Metrics
		registry *prometheus.Registry
	)
	var idler runner.Idler = runner.NewWaiterIdler(waiter.New(waiter.WithLogger(logger)))
	if opts.MetricsFile != "" {
		registry = prometheus.NewRegistry()
		m = metrics.New(registry)
		idler = metrics.NewIdler(m, idler)
	}

	r, err := runner.New(reg, runner.Config{
		Scenario:  *d,
		Window:    opts.Window,
		HasNext:   opts.HasNext,
		Overrides: overrides,
	},
		runner.WithArguments(shared),
		runner.WithIdler(idler),
		runner.WithLogger(logger),
	)
	if err != nil {
		code := ErrCodeUsage
		if errors.Is(err, journey.ErrUnknownJourney) {
			code = ErrCodeUnknownJourney
		}
		return commandError(code, "failed to initialize scenario", err)
	}
	if opts.Window < r.TeardownLeeway() {
		return commandError(ErrCodeUsage,
			fmt.Sprintf("--window %s is shorter than the teardown leeway %s", opts.Window, r.TeardownLeeway()), nil)
	}

	recorder := report.NewRecorder()
	notifiers := []runner.Notifier{report.NewLogNotifier(logger), recorder}

	var journal *report.StoreNotifier
	if opts.Database != "" {
		out.debugf("Opening journal %s", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return commandError(ErrCodeJournal, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		storeOpts := []report.StoreOption{report.WithStoreLogger(logger)}
		if opts.IDGenerator != nil {
			storeOpts = append(storeOpts, report.WithIDGenerator(opts.IDGenerator))
		}
		journal = report.NewStoreNotifier(st, report.RunInfo{
			Window:  opts.Window,
			Leeway:  r.TeardownLeeway(),
			HasNext: opts.HasNext,
		}, storeOpts...)
		notifiers = append(notifiers, journal)
	}
	if m != nil {
		notifiers = append(notifiers, metrics.NewNotifier(m, clock.RealClock{}))
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	r.Run(ctx, report.Multi(notifiers...))

	if registry != nil {
		if err := metrics.WriteTextfile(opts.MetricsFile, registry); err != nil {
			return commandError(ErrCodeMetrics, "failed to write metrics", err)
		}
		out.debugf("Wrote metrics to %s", opts.MetricsFile)
	}

	summary := RunSummary{
		Journey: r.Description().Journey,
		At:      d.At,
		Status:  recorder.Status(),
	}
	for _, f := range recorder.Failures() {
		summary.Failures = append(summary.Failures, f.Message())
	}
	if journal != nil {
		summary.RunID = journal.RunID()
		if err := journal.Err(); err != nil {
			return commandError(ErrCodeJournal, "failed to journal run", err)
		}
	}

	if err := out.result(summary, summary.writeText); err != nil {
		return err
	}

	switch summary.Status {
	case store.StatusFailed, store.StatusTimedOut:
		return outcomeError(fmt.Sprintf("journey %s %s", summary.Journey, strings.ReplaceAll(summary.Status, "_", " ")))
	}
	return nil
}

func (s RunSummary) writeText(w io.Writer) {
	fmt.Fprintf(w, "%s: %s\n", s.Journey, s.Status)
	for _, msg := range s.Failures {
		fmt.Fprintf(w, "  failure: %s\n", msg)
	}
	if s.RunID != "" {
		fmt.Fprintf(w, "  run id: %s\n", s.RunID)
	}
}

// parseArgs turns key=value flags into a bundle. Later keys win.
func parseArgs(pairs []string) (*args.Bundle, error) {
	b := args.New()
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		b.Set(key, value)
	}
	return b, nil
}
