package opensky

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialDelay is the initial backoff delay (default: 5 seconds)
	InitialDelay time.Duration

	// MaxDelay is the maximum backoff delay (default: 2 minutes)
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (default: 2.0 for exponential)
	Multiplier float64

	// RespectRetryAfter uses the server's retry hint if available (default: true)
	RespectRetryAfter bool
}

// DefaultRetryConfig returns sensible defaults for polling OpenSky.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      5 * time.Second,
		MaxDelay:          2 * time.Minute,
		Multiplier:        2.0,
		RespectRetryAfter: true,
	}
}

// RetryWithBackoff executes fn with exponential backoff. Rate limit errors
// use the server's retry hint as the next delay.
//
// Example usage:
//
//	err := RetryWithBackoff(ctx, DefaultRetryConfig(), func() error {
//	    _, err := client.GetStates(ctx)
//	    return err
//	})
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := RetryWithBackoffResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithBackoffResult executes a function with exponential backoff and returns its result.
//
// Example usage:
//
//	states, err := RetryWithBackoffResult(ctx, DefaultRetryConfig(), func() (*StatesResponse, error) {
//	    return client.GetStates(ctx)
//	})
func RetryWithBackoffResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		// First attempt (no delay)
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}
		result = res
		lastErr = err

		// Last attempt - don't calculate next delay
		if attempt == cfg.MaxRetries {
			break
		}

		delay = backoff(cfg, attempt)
		if rle, ok := IsRateLimitError(err); ok {
			if cfg.RespectRetryAfter && rle.RetryAfter > 0 {
				delay = rle.RetryAfter
			}
			if rle.Headers.Remaining >= 0 {
				log.Printf("Rate limit hit: %d credits remaining, retrying in %v", rle.Headers.Remaining, delay)
			}
		}
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

// backoff returns min(InitialDelay * Multiplier^attempt, MaxDelay).
func backoff(cfg RetryConfig, attempt int) time.Duration {
	next := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}
