package testutil

import (
	"sync"
	"time"
)

// ManualAlarm is an alarm the test fires by hand. It stands in for a wake
// source that fires while the monotonic clock is stopped, which is what a
// device suspend looks like to a sleeping process.
type ManualAlarm struct {
	mu        sync.Mutex
	scheduled []time.Time
	current   chan struct{}
	fired     bool
	cancels   int
	armed     chan struct{}
}

// NewManualAlarm creates an alarm that never fires on its own.
func NewManualAlarm() *ManualAlarm {
	return &ManualAlarm{armed: make(chan struct{}, 16)}
}

// WakeAt records at and returns a channel closed by Fire.
func (a *ManualAlarm) WakeAt(at time.Time) (<-chan struct{}, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.scheduled = append(a.scheduled, at)
	a.current = make(chan struct{})
	a.fired = false
	select {
	case a.armed <- struct{}{}:
	default:
	}

	var once sync.Once
	return a.current, func() {
		once.Do(func() {
			a.mu.Lock()
			a.cancels++
			a.mu.Unlock()
		})
	}
}

// Armed receives once per WakeAt call.
func (a *ManualAlarm) Armed() <-chan struct{} {
	return a.armed
}

// Fire wakes the most recently armed waiter. Firing twice is a no-op.
func (a *ManualAlarm) Fire() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || a.fired {
		return
	}
	a.fired = true
	close(a.current)
}

// Scheduled returns every wake time requested so far.
func (a *ManualAlarm) Scheduled() []time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]time.Time, len(a.scheduled))
	copy(out, a.scheduled)
	return out
}

// Cancels returns how many armed alarms were released.
func (a *ManualAlarm) Cancels() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancels
}
