package runner

import (
	"context"
	"time"

	"github.com/roach88/longevity/internal/waiter"
)

// Idler performs the two idle steps of a run. Durations are always positive.
type Idler interface {
	IdleBeforeTeardown(ctx context.Context, d time.Duration)
	IdleBeforeNextScenario(ctx context.Context, d time.Duration)
}

// WaiterIdler idles with a suspension-aware waiter.
type WaiterIdler struct {
	waiter *waiter.Waiter
}

// NewWaiterIdler creates an idler backed by w.
func NewWaiterIdler(w *waiter.Waiter) *WaiterIdler {
	return &WaiterIdler{waiter: w}
}

func (i *WaiterIdler) IdleBeforeTeardown(ctx context.Context, d time.Duration) {
	i.waiter.Wait(ctx, d)
}

func (i *WaiterIdler) IdleBeforeNextScenario(ctx context.Context, d time.Duration) {
	i.waiter.Wait(ctx, d)
}
