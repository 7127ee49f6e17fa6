// Package retry runs operations with exponential backoff.
// Used when opening network-backed stores (PostgreSQL, Redis).
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the number of tries including the first one.
	MaxAttempts int

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the wait between tries.
	MaxDelay time.Duration

	// Multiplier grows the wait after each try.
	Multiplier float64

	// JitterFactor randomises each wait by +/- this fraction.
	JitterFactor float64

	// OnRetry is called before each retry with the failed attempt number.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns the defaults used for store connections.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Option configures a retry run.
type Option func(*Config)

// WithMaxAttempts sets the number of tries.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithInitialDelay sets the first wait.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.InitialDelay = d
		}
	}
}

// WithMaxDelay caps the wait between tries.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithOnRetry sets a callback invoked before each retry.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// Permanent marks err as not worth retrying. Do returns the unwrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a Permanent error, the attempts run
// out or ctx is done.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	_, err := DoWithData(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = cfg.JitterFactor

	attempt := 0
	notify := func(err error, d time.Duration) {
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, d)
		}
	}

	res, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		return op(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithNotify(notify),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return res, perm.Unwrap()
	}
	return res, err
}
