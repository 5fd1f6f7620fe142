package cli

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/longevity/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Journey  string
	Status   string
	Limit    int
	Events   bool
}

// HistoryRun is one journal entry as printed.
type HistoryRun struct {
	ID          string        `json:"id"`
	Journey     string        `json:"journey"`
	ScheduledAt string        `json:"scheduled_at,omitempty"`
	AfterTest   string        `json:"after_test"`
	Status      string        `json:"status"`
	WindowMS    int64         `json:"window_ms"`
	LeewayMS    int64         `json:"leeway_ms"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
	Events      []HistoryEvent `json:"events,omitempty"`
}

// HistoryEvent is one notifier event of a journaled run.
type HistoryEvent struct {
	Seq       int64  `json:"seq"`
	Kind      string `json:"kind"`
	Message   string `json:"message,omitempty"`
	TimeoutMS int64  `json:"timeout_ms,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled scenario runs",
		Long: `List runs recorded by "longevity run --db", newest first.

Example:
  longevity history --db ./longevity.db
  longevity history --db ./longevity.db --journey sample.Passing --limit 5 --events
  longevity history --db ./longevity.db --status timed_out`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutput(opts.RootOptions, cmd)
			return out.report(runHistory(opts, out, cmd))
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	cmd.Flags().StringVar(&opts.Journey, "journey", "", "only show runs of this journey")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only show runs that ended with this status")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs (0 for all)")
	cmd.Flags().BoolVar(&opts.Events, "events", false, "include each run's notifier events")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// runStatuses are the values --status accepts.
var runStatuses = []string{
	store.StatusRunning, store.StatusPassed, store.StatusFailed, store.StatusTimedOut, store.StatusIgnored,
}

func runHistory(opts *HistoryOptions, out *output, cmd *cobra.Command) error {
	if opts.Status != "" && !slices.Contains(runStatuses, opts.Status) {
		return commandError(ErrCodeUsage, fmt.Sprintf("invalid --status %q: must be one of %v", opts.Status, runStatuses), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return commandError(ErrCodeJournal, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	runs, err := st.ListRuns(ctx, store.RunFilter{Journey: opts.Journey, Status: opts.Status, Limit: opts.Limit})
	if err != nil {
		return commandError(ErrCodeJournal, "failed to read journal", err)
	}
	out.debugf("Found %d run(s) in %s", len(runs), opts.Database)

	history := make([]HistoryRun, 0, len(runs))
	for _, r := range runs {
		h := HistoryRun{
			ID:          r.ID,
			Journey:     r.Journey,
			ScheduledAt: r.ScheduledAt,
			AfterTest:   r.AfterTest,
			Status:      r.Status,
			WindowMS:    r.Window.Milliseconds(),
			LeewayMS:    r.Leeway.Milliseconds(),
			StartedAt:   r.StartedAt,
		}
		if !r.FinishedAt.IsZero() {
			finished := r.FinishedAt
			h.FinishedAt = &finished
		}
		if opts.Events {
			events, err := st.RunEvents(ctx, r.ID)
			if err != nil {
				return commandError(ErrCodeJournal, "failed to read journal", err)
			}
			for _, ev := range events {
				h.Events = append(h.Events, HistoryEvent{
					Seq:       ev.Seq,
					Kind:      ev.Kind,
					Message:   ev.Message,
					TimeoutMS: ev.Timeout.Milliseconds(),
				})
			}
		}
		history = append(history, h)
	}

	return out.result(map[string]any{"runs": history}, func(w io.Writer) {
		writeHistoryText(w, history)
	})
}

func writeHistoryText(w io.Writer, history []HistoryRun) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}
	for _, h := range history {
		fmt.Fprintf(w, "%s  %-10s %s  window=%dms leeway=%dms  %s\n",
			h.StartedAt.Format(time.RFC3339), h.Status, h.Journey, h.WindowMS, h.LeewayMS, h.ID)
		for _, ev := range h.Events {
			if ev.Message != "" {
				fmt.Fprintf(w, "  [%d] %s: %s\n", ev.Seq, ev.Kind, ev.Message)
			} else {
				fmt.Fprintf(w, "  [%d] %s\n", ev.Seq, ev.Kind)
			}
		}
	}
}
