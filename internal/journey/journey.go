// Package journey defines the executable test unit a scenario runs, and the
// registry that resolves scenario journey identifiers to it.
package journey

import (
	"context"
	"fmt"

	"github.com/roach88/longevity/internal/args"
)

// Journey is one executable user journey.
//
// Setup and Test run under the scenario's effective deadline; ctx is cancelled
// when the deadline passes and implementations must return promptly once it
// is. Teardown runs after the test regardless of its outcome, bounded by the
// teardown leeway.
//
// Arguments gives read access to the shared argument store, including the
// scenario's extra arguments for the duration of the run.
type Journey interface {
	Setup(ctx context.Context, arguments *args.Bundle) error
	Test(ctx context.Context, arguments *args.Bundle) error
	Teardown(ctx context.Context, arguments *args.Bundle) error
}

// Base provides no-op Setup and Teardown for embedding.
type Base struct{}

func (Base) Setup(context.Context, *args.Bundle) error { return nil }

func (Base) Teardown(context.Context, *args.Bundle) error { return nil }

// Func adapts a test function into a Journey with no setup or teardown.
type Func func(ctx context.Context, arguments *args.Bundle) error

func (Func) Setup(context.Context, *args.Bundle) error { return nil }

func (f Func) Test(ctx context.Context, arguments *args.Bundle) error { return f(ctx, arguments) }

func (Func) Teardown(context.Context, *args.Bundle) error { return nil }

// AssertionError is a journey check that did not hold.
// It is reported as a failure verbatim, never as a timeout.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return "assertion failed: " + e.Message
}

// Failf builds an AssertionError.
func Failf(format string, a ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, a...)}
}
