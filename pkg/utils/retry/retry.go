// Package retry polls a function until it settles.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetry is returned by polled functions which are not settled yet.
var ErrRetry = errors.New("retry")

// Backoff blocks until the next attempt.
//
// It returns ctx.Err() when ctx is done before that.
type Backoff func(context.Context) error

// Static returns a Backoff waiting interval for each attempt.
func Static(interval time.Duration) Backoff {
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// Poll calls f until it returns nil or an error other than ErrRetry.
//
// The first call is made at once, then b is waited before each next call.
//
// # Returns
//
// - T: last return value of f
//
// - error: error returned by f, or by b when ctx is done while waiting.
func Poll[T any](ctx context.Context, b Backoff, f func() (T, error)) (T, error) {
	for {
		last, err := f()
		if !errors.Is(err, ErrRetry) {
			return last, err
		}
		if err := b(ctx); err != nil {
			return last, err
		}
	}
}
