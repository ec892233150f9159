package http

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls the retry loop around provider calls.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig returns the standard retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     16 * time.Second,
		Multiplier:     2.0,
	}
}

// Backoff computes the wait before the given attempt:
// min(initial * multiplier^attempt, max) with ±25% jitter.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	wait := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	if wait > float64(cfg.MaxBackoff) {
		wait = float64(cfg.MaxBackoff)
	}

	jitter := (rand.Float64() - 0.5) * 0.5 * wait
	wait += jitter

	if wait > float64(cfg.MaxBackoff) {
		wait = float64(cfg.MaxBackoff)
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// Retryable reports whether the error warrants another attempt. Only
// typed errors marked retryable qualify.
func Retryable(err error) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.IsRetryable()
	}
	return false
}

// Operation is one attempt of a provider call.
type Operation func(ctx context.Context) error

// Do runs the operation with exponential backoff, stopping early on
// non-retryable errors or context cancellation.
func Do(ctx context.Context, op Operation, cfg RetryConfig) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !Retryable(err) || attempt >= cfg.MaxRetries {
			return err
		}

		select {
		case <-time.After(Backoff(attempt, cfg)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}
