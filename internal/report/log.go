package report

import (
	"log/slog"

	"github.com/roach88/longevity/internal/runner"
)

// LogNotifier logs each notification.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier logging to logger, or slog.Default if nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) TestStarted(d runner.Description) {
	l.logger.Info("test started", "journey", d.Journey, "at", d.At, "after_test", string(d.AfterTest))
}

func (l *LogNotifier) TestFailure(f runner.Failure) {
	attrs := []any{"journey", f.Description.Journey, "error", f.Message()}
	if te, ok := timedOut(f.Err); ok {
		attrs = append(attrs, "timeout", te.Timeout, "phase", string(te.Phase))
	}
	l.logger.Error("test failed", attrs...)
}

func (l *LogNotifier) TestIgnored(d runner.Description) {
	l.logger.Info("test ignored", "journey", d.Journey)
}

func (l *LogNotifier) TestFinished(d runner.Description) {
	l.logger.Info("test finished", "journey", d.Journey)
}
