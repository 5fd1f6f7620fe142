package report

import (
	"errors"

	"github.com/roach88/longevity/internal/runner"
	"github.com/roach88/longevity/internal/store"
)

func timedOut(err error) (*runner.TimedOutError, bool) {
	var te *runner.TimedOutError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// statusTracker folds notifications into a final journal status.
type statusTracker struct {
	status string
}

func (s *statusTracker) failure(err error) {
	switch {
	case runner.IsDeadlineExceeded(err) && s.status != store.StatusFailed:
		s.status = store.StatusTimedOut
	case s.status == "" || s.status == store.StatusPassed:
		s.status = store.StatusFailed
	}
}

func (s *statusTracker) final() string {
	if s.status == "" {
		return store.StatusPassed
	}
	return s.status
}
