package scenario

import (
	"fmt"

	"github.com/roach88/longevity/internal/args"
)

// AfterTest is the policy applied once the journey's test step returns.
type AfterTest string

const (
	// StayInApp idles inside the journey before teardown for whatever time the
	// window leaves over.
	StayInApp AfterTest = "STAY_IN_APP"

	// Exit tears the journey down right away.
	Exit AfterTest = "EXIT"
)

// Valid reports whether p is a known policy. The empty policy is valid and
// means StayInApp.
func (p AfterTest) Valid() bool {
	switch p {
	case "", StayInApp, Exit:
		return true
	}
	return false
}

// Descriptor describes one scheduled journey execution.
// It is read-only once loaded.
type Descriptor struct {
	// At is the scheduled start time. Display only; no scheduling arithmetic
	// is done with it.
	At string `json:"at" yaml:"at" toml:"at"`

	// Journey identifies the executable journey in a journey.Registry.
	Journey string `json:"journey" yaml:"journey" toml:"journey"`

	// AfterTest selects the post-test idle policy. Empty means StayInApp.
	AfterTest AfterTest `json:"after_test,omitempty" yaml:"after_test,omitempty" toml:"after_test,omitempty"`

	// Extras are injected into the shared argument store for the run.
	Extras []args.Pair `json:"extras,omitempty" yaml:"extras,omitempty" toml:"extras,omitempty"`
}

// Policy returns the effective after-test policy.
func (d Descriptor) Policy() AfterTest {
	if d.AfterTest == "" {
		return StayInApp
	}
	return d.AfterTest
}

// ExtraPairs returns a copy of the extra arguments in declaration order.
func (d Descriptor) ExtraPairs() []args.Pair {
	out := make([]args.Pair, len(d.Extras))
	copy(out, d.Extras)
	return out
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s@%s(%s)", d.Journey, d.At, d.Policy())
}
