package context

import (
	"context"
	"testing"
	"time"
)

// For returns a context for the test.
//
// It is done 1 second before the deadline of the test, to leave time for clean-up,
// and when the test ends.
func For(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	if deadline, ok := t.Deadline(); ok {
		ctx, cancel = context.WithDeadline(context.Background(), deadline.Add(-time.Second))
	}
	t.Cleanup(cancel)
	return ctx
}
