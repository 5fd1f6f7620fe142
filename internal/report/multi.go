package report

import "github.com/roach88/longevity/internal/runner"

type multi []runner.Notifier

// Multi returns a notifier forwarding to each of ns in order.
// Nil entries are skipped.
func Multi(ns ...runner.Notifier) runner.Notifier {
	var m multi
	for _, n := range ns {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

func (m multi) TestStarted(d runner.Description) {
	for _, n := range m {
		n.TestStarted(d)
	}
}

func (m multi) TestFailure(f runner.Failure) {
	for _, n := range m {
		n.TestFailure(f)
	}
}

func (m multi) TestIgnored(d runner.Description) {
	for _, n := range m {
		n.TestIgnored(d)
	}
}

func (m multi) TestFinished(d runner.Description) {
	for _, n := range m {
		n.TestFinished(d)
	}
}
