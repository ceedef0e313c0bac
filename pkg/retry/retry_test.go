package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, Linear: true}

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, Linear: true}
	cause := errors.New("permanent")

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return cause
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
}

func TestDo_OnRetryObservesEachFailure(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, Linear: true}

	var seen []uint
	cfg.OnRetry = func(n uint, err error) {
		seen = append(seen, n)
	}

	Do(context.Background(), cfg, func() error {
		return errors.New("always")
	})
	// Every failed attempt is observed, the last one included.
	assert.Equal(t, []uint{0, 1, 2}, seen)
}

func TestDo_ContextCancellationStopsRetrying(t *testing.T) {
	cfg := Config{MaxAttempts: 100, InitialDelay: 50 * time.Millisecond, Linear: true}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, cfg, func() error {
		calls++
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.Less(t, calls, 100)
}

func TestDoWithResult(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, Linear: true}

	calls := 0
	result, err := DoWithResult(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", result)
}
