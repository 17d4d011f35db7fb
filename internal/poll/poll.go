// Package poll provides the single bounded wait used by both dashboard
// element waits and download-directory waits.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the predicate never held within the timeout
var ErrTimeout = errors.New("poll: timed out")

// Predicate reports whether the awaited condition holds.
// A returned error counts as "not yet" unless it was wrapped with Stop.
type Predicate func(ctx context.Context) (bool, error)

type stopError struct{ err error }

func (s *stopError) Error() string { return s.err.Error() }
func (s *stopError) Unwrap() error { return s.err }

// Stop marks a predicate error as fatal for the wait
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// Until evaluates predicate immediately and then every interval until it
// returns true, the timeout elapses, or ctx is done.
func Until(ctx context.Context, interval, timeout time.Duration, predicate Predicate) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := predicate(ctx)
		if err != nil {
			var stop *stopError
			if errors.As(err, &stop) {
				return stop.err
			}
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrTimeout
		case <-ticker.C:
		}
	}
}
