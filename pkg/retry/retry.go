// Package retry runs flaky operations (page navigation, mostly) a bounded
// number of times with a growing pause in between.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how often an operation is attempted and how long to wait
// between attempts.
type Policy struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int
	// Backoff builds a fresh backoff schedule for one Do call.
	Backoff func() backoff.BackOff
}

// Navigation is the policy used for page loads: three attempts, waiting
// 1.5s after the first failure and 3s after the second.
var Navigation = Policy{
	Attempts: 3,
	Backoff:  func() backoff.BackOff { return Linear(1500 * time.Millisecond) },
}

// LinearBackOff waits Step, 2*Step, 3*Step, ...
type LinearBackOff struct {
	Step time.Duration
	n    int
}

func Linear(step time.Duration) *LinearBackOff {
	return &LinearBackOff{Step: step}
}

func (b *LinearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.Step * time.Duration(b.n)
}

func (b *LinearBackOff) Reset() { b.n = 0 }

// Do calls fn until it succeeds, the attempts are used up or ctx is done.
// The error of the last attempt is returned unchanged. Wrap an error with
// backoff.Permanent to stop retrying early.
func Do[T any](ctx context.Context, p Policy, name string, fn func(context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if p.Backoff != nil {
		b = p.Backoff()
	}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	var result T
	attempt := 0
	op := func() error {
		attempt++
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("attempt failed, retrying",
			slog.String("op", name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("wait", wait),
			slog.Any("err", err),
		)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, name string, fn func(context.Context) error) error {
	_, err := Do(ctx, p, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
