package waiter

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultPollInterval is how often a WallClockAlarm checks the wall clock.
const DefaultPollInterval = 250 * time.Millisecond

// WallClockAlarm fires once the wall clock reaches the requested time.
//
// It polls on a ticker and compares wall readings only, with the monotonic
// reading stripped. After a suspend the wall clock has jumped forward, so the
// first tick after resume fires any alarm that came due while suspended.
type WallClockAlarm struct {
	clock clock.WithTicker
	poll  time.Duration
}

// NewWallClockAlarm creates an alarm polling c every poll.
// A non-positive poll uses DefaultPollInterval.
func NewWallClockAlarm(c clock.WithTicker, poll time.Duration) *WallClockAlarm {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &WallClockAlarm{clock: c, poll: poll}
}

// WakeAt implements Alarm.
func (a *WallClockAlarm) WakeAt(at time.Time) (<-chan struct{}, func()) {
	at = at.Round(0)
	wake := make(chan struct{})
	if a.due(at) {
		close(wake)
		return wake, func() {}
	}

	stop := make(chan struct{})
	ticker := a.clock.NewTicker(a.poll)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				if a.due(at) {
					close(wake)
					return
				}
			}
		}
	}()

	var once sync.Once
	return wake, func() { once.Do(func() { close(stop) }) }
}

func (a *WallClockAlarm) due(at time.Time) bool {
	return !a.clock.Now().Round(0).Before(at)
}
