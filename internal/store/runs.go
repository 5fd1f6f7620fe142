package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound is returned when a run ID is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// Run statuses. A run stays StatusRunning until FinishRun closes it.
const (
	StatusRunning  = "running"
	StatusPassed   = "passed"
	StatusFailed   = "failed"
	StatusTimedOut = "timed_out"
	StatusIgnored  = "ignored"
)

// Event kinds, one per notifier call.
const (
	EventStarted  = "started"
	EventFailure  = "failure"
	EventIgnored  = "ignored"
	EventFinished = "finished"
)

// Run is one executed scenario.
type Run struct {
	ID          string
	Journey     string
	ScheduledAt string
	AfterTest   string
	Window      time.Duration
	Leeway      time.Duration
	HasNext     bool
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
	Status      string
}

// Event is one notifier call recorded against a run.
type Event struct {
	RunID      string
	Seq        int64
	Kind       string
	Message    string
	Timeout    time.Duration // set for timeout failures
	RecordedAt time.Time
}

// RunFilter narrows ListRuns. Zero values match everything.
type RunFilter struct {
	Journey string
	Status  string
	Limit   int
}

const runColumns = `id, journey, scheduled_at, after_test, window_ms, leeway_ms, has_next, started_at, finished_at, status`

const (
	beginRunSQL = `
		INSERT INTO runs
		(id, journey, scheduled_at, after_test, window_ms, leeway_ms, has_next, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	nextSeqSQL  = `SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE run_id = ?`
	addEventSQL = `
		INSERT INTO events (run_id, seq, kind, message, timeout_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	finishRunSQL = `UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`
	getRunSQL    = `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	runEventsSQL = `
		SELECT run_id, seq, kind, message, timeout_ms, recorded_at
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC`
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// BeginRun inserts a run in StatusRunning.
// Uses ON CONFLICT(id) DO NOTHING, so beginning the same run twice is a no-op.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("begin run: empty id")
	}
	hasNext := 0
	if run.HasNext {
		hasNext = 1
	}
	_, err := s.beginRun.ExecContext(ctx,
		run.ID,
		run.Journey,
		run.ScheduledAt,
		run.AfterTest,
		run.Window.Milliseconds(),
		run.Leeway.Milliseconds(),
		hasNext,
		formatTime(run.StartedAt),
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// AppendEvent records ev against its run and returns the assigned seq.
// ev.Seq is ignored; seq values start at 1 and increase per run.
func (s *Store) AppendEvent(ctx context.Context, ev Event) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.StmtContext(ctx, s.nextSeq).QueryRowContext(ctx, ev.RunID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("append event: next seq: %w", err)
	}

	_, err = tx.StmtContext(ctx, s.addEvent).ExecContext(ctx,
		ev.RunID,
		seq,
		ev.Kind,
		ev.Message,
		ev.Timeout.Milliseconds(),
		formatTime(ev.RecordedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append event: commit: %w", err)
	}
	return seq, nil
}

// FinishRun closes a run with its final status.
func (s *Store) FinishRun(ctx context.Context, id, status string, finishedAt time.Time) error {
	res, err := s.finishRun.ExecContext(ctx, status, formatTime(finishedAt), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// GetRun returns a single run.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	run, err := scanRun(s.getRun.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	var (
		where []string
		args  []any
	)
	if filter.Journey != "" {
		where = append(where, "journey = ?")
		args = append(args, filter.Journey)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id COLLATE BINARY DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RunEvents returns the events of a run in seq order.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) RunEvents(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.runEvents.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			ev         Event
			timeoutMS  int64
			recordedAt string
		)
		if err := rows.Scan(&ev.RunID, &ev.Seq, &ev.Kind, &ev.Message, &timeoutMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Timeout = time.Duration(timeoutMS) * time.Millisecond
		if ev.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		windowMS   int64
		leewayMS   int64
		hasNext    int
		startedAt  string
		finishedAt sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.Journey,
		&run.ScheduledAt,
		&run.AfterTest,
		&windowMS,
		&leewayMS,
		&hasNext,
		&startedAt,
		&finishedAt,
		&run.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Window = time.Duration(windowMS) * time.Millisecond
	run.Leeway = time.Duration(leewayMS) * time.Millisecond
	run.HasNext = hasNext != 0
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if finishedAt.Valid {
		if run.FinishedAt, err = parseTime(finishedAt.String); err != nil {
			return Run{}, fmt.Errorf("scan run: %w", err)
		}
	}
	return run, nil
}
