package journey

import (
	"context"

	"github.com/roach88/longevity/internal/args"
)

// Sample journey names. They exercise the runner's timing paths without a
// device attached.
const (
	SamplePassing       = "sample.Passing"
	SampleLongIdle      = "sample.LongIdle"
	SampleFailing       = "sample.Failing"
	SamplePanicking     = "sample.Panicking"
	SampleArgumentCheck = "sample.ArgumentCheck"
)

// ArgumentCheck reads this key during Setup and fails unless it holds
// ArgumentCheckOverride.
const (
	ArgumentCheckKey      = "test-arg-test-only"
	ArgumentCheckDefault  = "default"
	ArgumentCheckOverride = "not default"
)

// SampleFailureMessage is the assertion message of sample.Failing and of a
// failed sample.ArgumentCheck.
const SampleFailureMessage = "Test assertion failed"

// RegisterSamples adds the sample journeys to r.
func RegisterSamples(r *Registry) error {
	samples := map[string]Factory{
		SamplePassing:       func() Journey { return passing{} },
		SampleLongIdle:      func() Journey { return longIdle{} },
		SampleFailing:       func() Journey { return failing{} },
		SamplePanicking:     func() Journey { return panicking{} },
		SampleArgumentCheck: func() Journey { return argumentCheck{} },
	}
	for name, f := range samples {
		if err := r.Register(name, f); err != nil {
			return err
		}
	}
	return nil
}

// passing returns immediately.
type passing struct{ Base }

func (passing) Test(context.Context, *args.Bundle) error { return nil }

// longIdle idles until its deadline cancels it.
type longIdle struct{ Base }

func (longIdle) Test(ctx context.Context, _ *args.Bundle) error {
	<-ctx.Done()
	return ctx.Err()
}

type failing struct{ Base }

func (failing) Test(context.Context, *args.Bundle) error {
	return Failf(SampleFailureMessage)
}

type panicking struct{ Base }

func (panicking) Test(context.Context, *args.Bundle) error {
	panic("sample journey panicked")
}

// argumentCheck verifies scenario extras are visible where journeys parse
// their arguments.
type argumentCheck struct{ Base }

func (argumentCheck) Setup(_ context.Context, arguments *args.Bundle) error {
	got := arguments.GetString(ArgumentCheckKey, ArgumentCheckDefault)
	if got != ArgumentCheckOverride {
		return Failf("%s: %s = %q, want %q", SampleFailureMessage, ArgumentCheckKey, got, ArgumentCheckOverride)
	}
	return nil
}

func (argumentCheck) Test(context.Context, *args.Bundle) error { return nil }
