// Package waiter blocks for a duration in a way that survives the device
// suspending mid-wait.
//
// Timers in Go run on the monotonic clock, which stops while the machine is
// suspended: a five minute timer armed before an hour-long suspend still has
// its remaining minutes to go after resume. A Waiter therefore races its timer
// against an Alarm that watches wall-clock time, and returns on whichever
// fires first. Under normal operation the timer wins and the wait is accurate
// to well within half a second.
package waiter

import (
	"context"
	"io"
	"log/slog"
	"time"

	"k8s.io/utils/clock"
)

// Wake tells why a wait returned.
type Wake int

const (
	// WakeImmediate means the requested duration was not positive.
	WakeImmediate Wake = iota
	// WakeTimer means the timed block elapsed.
	WakeTimer
	// WakeAlarm means the wall-clock alarm fired first.
	WakeAlarm
	// WakeCancelled means the context was cancelled.
	WakeCancelled
)

func (w Wake) String() string {
	switch w {
	case WakeImmediate:
		return "immediate"
	case WakeTimer:
		return "timer"
	case WakeAlarm:
		return "alarm"
	case WakeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Alarm is a wake source that keeps working across a suspend.
//
// WakeAt returns a channel that is closed at or after wall time at, and a
// cancel function releasing the alarm. Cancel must be safe to call more than
// once and after the alarm fired.
type Alarm interface {
	WakeAt(at time.Time) (<-chan struct{}, func())
}

// Waiter is a suspension-aware sleep.
type Waiter struct {
	clock  clock.WithTicker
	alarm  Alarm
	logger *slog.Logger
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithClock sets the clock timers and the default alarm run on.
func WithClock(c clock.WithTicker) Option {
	return func(w *Waiter) { w.clock = c }
}

// WithAlarm replaces the default WallClockAlarm.
func WithAlarm(a Alarm) Option {
	return func(w *Waiter) { w.alarm = a }
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(w *Waiter) { w.logger = l }
}

// New creates a Waiter. Without options it uses the real clock and a
// WallClockAlarm polling every DefaultPollInterval.
func New(opts ...Option) *Waiter {
	w := &Waiter{}
	for _, opt := range opts {
		opt(w)
	}
	if w.clock == nil {
		w.clock = clock.RealClock{}
	}
	if w.alarm == nil {
		w.alarm = NewWallClockAlarm(w.clock, DefaultPollInterval)
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w
}

// Wait blocks for about d.
func (w *Waiter) Wait(ctx context.Context, d time.Duration) Wake {
	return w.WaitUpTo(ctx, d, d)
}

// WaitUpTo arms an alarm d from now and blocks until it fires, until
// maxAlarmWait elapses on the timer, or until ctx is done. A maxAlarmWait of
// zero or less means d.
func (w *Waiter) WaitUpTo(ctx context.Context, d, maxAlarmWait time.Duration) Wake {
	if d <= 0 {
		return WakeImmediate
	}
	if maxAlarmWait <= 0 {
		maxAlarmWait = d
	}

	start := w.clock.Now()
	wake, cancel := w.alarm.WakeAt(start.Round(0).Add(d))
	defer cancel()

	timer := w.clock.NewTimer(maxAlarmWait)
	defer timer.Stop()

	var reason Wake
	select {
	case <-wake:
		reason = WakeAlarm
	case <-timer.C():
		reason = WakeTimer
	case <-ctx.Done():
		reason = WakeCancelled
	}

	w.logger.Debug("wait finished",
		"requested", d,
		"max_alarm_wait", maxAlarmWait,
		"slept", w.clock.Since(start),
		"wake", reason.String(),
	)
	return reason
}
