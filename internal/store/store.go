package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// connParams are applied by the driver to every connection it opens, so the
// journal settings survive the pool recycling a connection.
const connParams = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

// migration moves the journal from version-1 to version. schema.sql is
// version 0; released steps are never edited, only appended to.
type migration struct {
	version int
	name    string
	stmt    string
}

var migrations = []migration{
	{1, "history lookup by journey", `CREATE INDEX IF NOT EXISTS idx_runs_journey_started ON runs(journey, started_at)`},
	{2, "history lookup by status", `CREATE INDEX IF NOT EXISTS idx_runs_status_started ON runs(status, started_at)`},
}

func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Store is the run journal.
type Store struct {
	db *sql.DB

	beginRun  *sql.Stmt
	nextSeq   *sql.Stmt
	addEvent  *sql.Stmt
	finishRun *sql.Stmt
	getRun    *sql.Stmt
	runEvents *sql.Stmt
}

// Open creates or opens the journal at path, brings its schema up to date
// and prepares the statements the run lifecycle uses.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	// One scenario writes at a time; a single connection also keeps
	// AppendEvent's seq read and insert on the same snapshot.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.prepare(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the prepared statements and the connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	var errs []error
	for _, stmt := range s.statements() {
		if *stmt != nil {
			errs = append(errs, (*stmt).Close())
		}
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

func (s *Store) statements() []**sql.Stmt {
	return []**sql.Stmt{&s.beginRun, &s.nextSeq, &s.addEvent, &s.finishRun, &s.getRun, &s.runEvents}
}

func (s *Store) prepare() error {
	queries := []string{beginRunSQL, nextSeqSQL, addEventSQL, finishRunSQL, getRunSQL, runEventsSQL}
	for i, stmt := range s.statements() {
		prepared, err := s.db.Prepare(queries[i])
		if err != nil {
			return fmt.Errorf("prepare journal statement %d: %w", i, err)
		}
		*stmt = prepared
	}
	return nil
}

// migrate creates the version 0 tables and applies every migration above
// the journal's user_version, each in its own transaction.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion() {
		return fmt.Errorf("journal schema version %d is newer than supported %d", version, schemaVersion())
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.stmt); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}
