package runner

import (
	"context"
	"runtime/debug"
	"time"

	"k8s.io/utils/clock"
)

// enforce runs fn on its own goroutine and waits at most deadline on clk.
//
// At the deadline the context passed to fn is cancelled and a *TimedOutError
// is returned at once. fn keeps running until it notices the cancellation;
// its eventual result is dropped. A non-positive deadline times out without
// calling fn.
func enforce(ctx context.Context, clk clock.Clock, deadline time.Duration, phase Phase, fn func(context.Context) error) error {
	if deadline <= 0 {
		return &TimedOutError{Timeout: deadline, Phase: phase}
	}

	jctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- protect(jctx, phase, fn)
	}()

	timer := clk.NewTimer(deadline)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C():
		return &TimedOutError{Timeout: deadline, Phase: phase}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// protect calls fn and turns a panic into a *PanicError.
func protect(ctx context.Context, phase Phase, fn func(context.Context) error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Phase: phase, Value: v, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}
