package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Linear switches from exponential backoff to attempt*InitialDelay.
	Linear bool
	// OnRetry is invoked after each failed attempt, before the delay.
	// n is zero-based (first failure is n=0).
	OnRetry func(n uint, err error)
}

// DefaultConfig returns default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Do executes a function with backoff retry
func Do(ctx context.Context, cfg Config, fn func() error) error {
	delayType := retry.DelayType(retry.BackOffDelay)
	if cfg.Linear {
		delayType = retry.DelayType(func(n uint, _ error, config *retry.Config) time.Duration {
			d := time.Duration(n+1) * cfg.InitialDelay
			if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
				d = cfg.MaxDelay
			}
			return d
		})
	}

	onRetry := cfg.OnRetry
	if onRetry == nil {
		onRetry = func(n uint, err error) {}
	}

	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxAttempts),
		retry.Delay(cfg.InitialDelay),
		retry.MaxDelay(cfg.MaxDelay),
		delayType,
		retry.LastErrorOnly(true),
		retry.OnRetry(onRetry),
	)
}

// DoWithResult executes a function with backoff retry and returns a result
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
