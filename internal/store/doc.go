// Package store provides a SQLite-backed journal of scenario runs.
//
// The journal is append-only apart from closing a run:
//   - Runs: one row per executed scenario, with its timing budget and final status
//   - Events: the notifier calls a run produced, in order
//
// Events are ordered by a per-run seq INTEGER assigned on insert. Timestamps
// are informational only and are stored as RFC 3339 text in UTC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The settings are DSN parameters, so they hold on every pooled connection.
// The schema version lives in PRAGMA user_version; Open applies any missing
// migrations and refuses a journal written by a newer release.
package store
