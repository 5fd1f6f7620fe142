package runner

import (
	"errors"
	"fmt"
	"time"
)

// Phase names the part of a run an error happened in.
type Phase string

const (
	// PhaseTest covers Setup and Test.
	PhaseTest Phase = "test"
	// PhaseTeardown covers Teardown.
	PhaseTeardown Phase = "teardown"
)

// TimedOutError reports a journey cancelled at its deadline.
//
// Timeout is the effective deadline: the window minus the teardown leeway for
// PhaseTest, the leeway itself for PhaseTeardown. It is never the nominal
// window.
type TimedOutError struct {
	Timeout time.Duration
	Phase   Phase
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("%s timed out after %d milliseconds", e.Phase, e.Timeout.Milliseconds())
}

// IsTimeout returns true if err is or wraps a *TimedOutError.
func IsTimeout(err error) bool {
	var te *TimedOutError
	return errors.As(err, &te)
}

// IsDeadlineExceeded reports whether err is the journey missing its own
// deadline, a *TimedOutError in PhaseTest. A teardown that overruns the
// leeway is a failure, not a missed deadline.
func IsDeadlineExceeded(err error) bool {
	var te *TimedOutError
	return errors.As(err, &te) && te.Phase == PhaseTest
}

// PanicError is a panic recovered from journey code.
type PanicError struct {
	Phase Phase
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic during %s: %v", e.Phase, e.Value)
}

// IsPanic returns true if err is or wraps a *PanicError.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}

// InitializationError is returned by New when a runner cannot be built.
// Nothing has been timed or overridden when it is returned.
type InitializationError struct {
	Journey string
	Err     error
}

func (e *InitializationError) Error() string {
	if e.Journey == "" {
		return fmt.Sprintf("initialization failed: %v", e.Err)
	}
	return fmt.Sprintf("initialization failed for journey %q: %v", e.Journey, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// IsInitializationError returns true if err is or wraps an
// *InitializationError.
func IsInitializationError(err error) bool {
	var ie *InitializationError
	return errors.As(err, &ie)
}
