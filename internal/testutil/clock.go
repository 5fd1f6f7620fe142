package testutil

import (
	"time"

	clocktesting "k8s.io/utils/clock/testing"
)

// Epoch is the start time of every fake clock handed out by NewFakeClock.
// A fixed start keeps recorded timestamps identical across runs.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewFakeClock creates a fake clock set to Epoch.
func NewFakeClock() *clocktesting.FakeClock {
	return clocktesting.NewFakeClock(Epoch)
}

// StepWhenWaiting advances fc by d as soon as something is blocked on one of
// its timers or tickers.
//
// Typical use is from the test goroutine while the code under test runs in
// another one and is about to arm a timer.
func StepWhenWaiting(fc *clocktesting.FakeClock, d time.Duration) {
	for !fc.HasWaiters() {
		time.Sleep(time.Millisecond)
	}
	fc.Step(d)
}
