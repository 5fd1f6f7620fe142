// Package report provides runner.Notifier implementations.
//
//   - Recorder keeps the notification trace in memory for assertions and
//     golden comparison.
//   - LogNotifier writes each notification to a slog.Logger.
//   - StoreNotifier journals the run to SQLite.
//   - Multi fans out to several notifiers.
package report
