package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/retry"
)

func TestPoll(t *testing.T) {
	errBroken := errors.New("broken")

	type When struct {
		// results of f, in order. The last one repeats.
		results []error
		timeout time.Duration
	}
	type Then struct {
		calls int
		err   error
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), when.timeout)
			defer cancel()

			calls := 0
			got, err := retry.Poll(ctx, retry.Static(10*time.Millisecond), func() (int, error) {
				calls += 1
				return calls, when.results[min(calls, len(when.results))-1]
			})
			if !errors.Is(err, then.err) {
				t.Errorf("unexpected error: %v", err)
			}
			if got != calls {
				t.Errorf("last value is not returned: %d, called %d times", got, calls)
			}
			if then.calls != 0 && calls != then.calls {
				t.Errorf("called %d times, expected %d", calls, then.calls)
			}
		}
	}

	t.Run("settled at once", theory(
		When{results: []error{nil}, timeout: time.Second},
		Then{calls: 1},
	))
	t.Run("settled after retries", theory(
		When{results: []error{retry.ErrRetry, retry.ErrRetry, nil}, timeout: 5 * time.Second},
		Then{calls: 3},
	))
	t.Run("other errors stop polling", theory(
		When{results: []error{retry.ErrRetry, errBroken}, timeout: 5 * time.Second},
		Then{calls: 2, err: errBroken},
	))
	t.Run("context ends waiting", theory(
		When{results: []error{retry.ErrRetry}, timeout: 50 * time.Millisecond},
		Then{err: context.DeadlineExceeded},
	))
}

func TestStatic(t *testing.T) {
	t.Run("it waits the interval", func(t *testing.T) {
		b := retry.Static(30 * time.Millisecond)
		before := time.Now()
		if err := b(context.Background()); err != nil {
			t.Fatal(err)
		}
		if d := time.Since(before); d < 30*time.Millisecond {
			t.Errorf("returned too early: %s", d)
		}
	})

	t.Run("it returns when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := retry.Static(time.Hour)(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
