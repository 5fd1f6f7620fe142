package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.BeginRun(ctx, createTestRun("run-1", "sample.Passing", testEpoch)))
	_, err = s.AppendEvent(ctx, Event{RunID: "run-1", Kind: EventStarted, RecordedAt: testEpoch})
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, "run-1", StatusPassed, testEpoch))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, run.Status)

	seq, err := s.AppendEvent(ctx, Event{RunID: "run-1", Kind: EventFinished, RecordedAt: testEpoch})
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq, "seq continues across reopen")
}

func TestOpen_MissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "journal.db"))
	assert.Error(t, err)
}

func TestClose_StatementsUnusable(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	require.NoError(t, s.BeginRun(context.Background(), createTestRun("run-1", "a", testEpoch)))
	require.NoError(t, s.Close())

	_, err = s.GetRun(context.Background(), "run-1")
	assert.Error(t, err)
}

func TestJournal_OrphanEventRejected(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.AppendEvent(ctx, Event{RunID: "missing", Kind: EventStarted, RecordedAt: testEpoch})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY")

	// The rejected insert leaves nothing behind for a run that begins later.
	require.NoError(t, s.BeginRun(ctx, createTestRun("missing", "a", testEpoch)))
	seq, err := s.AppendEvent(ctx, Event{RunID: "missing", Kind: EventStarted, RecordedAt: testEpoch})
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}

func TestJournal_ConcurrentAppendEvent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginRun(ctx, createTestRun("run-1", "a", testEpoch)))

	const writers, perWriter = 8, 10
	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := s.AppendEvent(ctx, Event{
					RunID:      "run-1",
					Kind:       EventFailure,
					Message:    fmt.Sprintf("writer %d failure %d", w, i),
					RecordedAt: testEpoch,
				})
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	events, err := s.RunEvents(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, writers*perWriter)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
}

func TestJournal_ReaderSnapshotDoesNotBlockWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	writer, err := Open(path)
	require.NoError(t, err)
	defer writer.Close()
	reader, err := Open(path)
	require.NoError(t, err)
	defer reader.Close()

	require.NoError(t, writer.BeginRun(ctx, createTestRun("run-1", "a", testEpoch)))

	tx, err := reader.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	var before int
	require.NoError(t, tx.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&before))
	assert.Equal(t, 1, before)

	// A rollback journal would hold the writer on the reader's shared lock.
	require.NoError(t, writer.BeginRun(ctx, createTestRun("run-2", "a", testEpoch)))

	var during int
	require.NoError(t, tx.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&during))
	assert.Equal(t, 1, during, "reader keeps its snapshot")
	require.NoError(t, tx.Rollback())

	runs, err := reader.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, []string{
		"id", "journey", "scheduled_at", "after_test", "window_ms",
		"leeway_ms", "has_next", "started_at", "finished_at", "status",
	}, tableColumns(t, s.db, "runs"))
	assert.Equal(t, []string{
		"run_id", "seq", "kind", "message", "timeout_ms", "recorded_at",
	}, tableColumns(t, s.db, "events"))
}

func TestMigrate_FreshJournalAtLatestVersion(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, schemaVersion(), userVersion(t, s.db))
	assert.Subset(t, tableIndexes(t, s.db, "runs"),
		[]string{"idx_runs_journey_started", "idx_runs_status_started"})
}

func TestMigrate_UpgradeKeepsRuns(t *testing.T) {
	tests := []struct {
		name string
		from int
	}{
		{"from v0", 0},
		{"from v1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "journal.db")
			writeOldJournal(t, path, tt.from)

			s, err := Open(path)
			require.NoError(t, err)
			defer s.Close()

			assert.Equal(t, schemaVersion(), userVersion(t, s.db))
			assert.Contains(t, tableIndexes(t, s.db, "runs"), "idx_runs_status_started")

			runs, err := s.ListRuns(context.Background(), RunFilter{Status: StatusPassed})
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, "old-run", runs[0].ID)
		})
	}
}

func TestMigrate_NewerJournalRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	writeOldJournal(t, path, schemaVersion()+1)

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

// writeOldJournal lays down the version 0 tables plus migrations up to
// version, with one finished run, as an earlier release would have.
func writeOldJournal(t *testing.T, path string, version int) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	for _, m := range migrations {
		if m.version <= version {
			_, err = db.Exec(m.stmt)
			require.NoError(t, err)
		}
	}
	_, err = db.Exec(`
		INSERT INTO runs (id, journey, after_test, window_ms, leeway_ms, started_at, finished_at, status)
		VALUES ('old-run', 'sample.Passing', 'STAY_IN_APP', 6000, 3000, ?, ?, 'passed')
	`, formatTime(testEpoch), formatTime(testEpoch))
	require.NoError(t, err)
	_, err = db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version))
	require.NoError(t, err)
}

func userVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var v int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&v))
	return v
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()
	return scanNames(t, rows)
}

func tableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
	require.NoError(t, err)
	defer rows.Close()
	return scanNames(t, rows)
}

func scanNames(t *testing.T, rows *sql.Rows) []string {
	t.Helper()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}
