package runner

import (
	"fmt"

	"github.com/roach88/longevity/internal/scenario"
)

// Description identifies the scenario a notification is about.
type Description struct {
	// Journey is the canonical journey name.
	Journey string `json:"journey"`

	// At is the scheduled start as written in the scenario. Display only.
	At string `json:"at,omitempty"`

	// AfterTest is the effective after-test policy.
	AfterTest scenario.AfterTest `json:"after_test"`
}

func (d Description) String() string {
	if d.At == "" {
		return d.Journey
	}
	return fmt.Sprintf("%s@%s", d.Journey, d.At)
}

// Failure pairs a description with the error that failed it.
//
// Err is the journey's error as returned, a *PanicError, or a *TimedOutError
// whose Timeout is the effective deadline the journey was held to.
type Failure struct {
	Description Description
	Err         error
}

// Message returns the failure text.
func (f Failure) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// Notifier receives the results of a run.
//
// For a scenario that runs, Run calls TestStarted, then TestFailure zero or
// more times, then TestFinished. For an excluded scenario it calls
// TestIgnored exactly once and nothing else.
type Notifier interface {
	TestStarted(Description)
	TestFailure(Failure)
	TestIgnored(Description)
	TestFinished(Description)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) TestStarted(Description)  {}
func (NopNotifier) TestFailure(Failure)      {}
func (NopNotifier) TestIgnored(Description)  {}
func (NopNotifier) TestFinished(Description) {}
