package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		Attempts: attempts,
		Backoff:  func() backoff.BackOff { return Linear(time.Millisecond) },
	}
}

func TestLinearBackOff(t *testing.T) {
	b := Linear(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 3*time.Second, b.NextBackOff())
	assert.Equal(t, 4500*time.Millisecond, b.NextBackOff())
	b.Reset()
	assert.Equal(t, 1500*time.Millisecond, b.NextBackOff())
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), "nav", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("net::ERR_TIMED_OUT")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastErrorAfterAttempts(t *testing.T) {
	calls := 0
	errLast := errors.New("attempt 3")
	err := Run(context.Background(), fastPolicy(3), "nav", func(context.Context) error {
		calls++
		if calls == 3 {
			return errLast
		}
		return errors.New("earlier")
	})

	assert.ErrorIs(t, err, errLast)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsEarly(t *testing.T) {
	calls := 0
	errBad := errors.New("bad url")
	err := Run(context.Background(), fastPolicy(5), "nav", func(context.Context) error {
		calls++
		return backoff.Permanent(errBad)
	})

	assert.ErrorIs(t, err, errBad)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Run(ctx, Policy{Attempts: 3, Backoff: func() backoff.BackOff { return Linear(time.Hour) }}, "nav", func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Run(context.Background(), Policy{}, "nav", func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	assert.Equal(t, 1, calls)
}
