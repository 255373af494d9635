package opensky

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      5 * time.Millisecond,
		MaxDelay:          20 * time.Millisecond,
		Multiplier:        2.0,
		RespectRetryAfter: true,
	}
}

// TestRetryWithBackoff tests basic retry logic.
func TestRetryWithBackoff(t *testing.T) {
	t.Run("Success on first attempt", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), fastRetryConfig(), func() error {
			attempts++
			return nil
		})

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("Success after retries", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), fastRetryConfig(), func() error {
			attempts++
			if attempts < 3 {
				return errors.New("temporary error")
			}
			return nil
		})

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if attempts != 3 {
			t.Errorf("Expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("Max retries exceeded", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), fastRetryConfig(), func() error {
			attempts++
			return errors.New("persistent error")
		})

		if err == nil {
			t.Error("Expected error after max retries")
		}
		// Should attempt: initial + 3 retries = 4 total
		if attempts != 4 {
			t.Errorf("Expected 4 attempts (initial + 3 retries), got %d", attempts)
		}
	})

	t.Run("Context cancellation", func(t *testing.T) {
		attempts := 0
		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		err := RetryWithBackoff(ctx, DefaultRetryConfig(), func() error {
			attempts++
			return errors.New("error")
		})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled error, got: %v", err)
		}
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("Rate limit hint overrides backoff", func(t *testing.T) {
		attempts := 0
		cfg := fastRetryConfig()
		cfg.InitialDelay = time.Hour
		cfg.MaxDelay = time.Hour

		start := time.Now()
		err := RetryWithBackoff(context.Background(), cfg, func() error {
			attempts++
			if attempts == 1 {
				return &RateLimitError{StatusCode: 429, RetryAfter: 10 * time.Millisecond, Headers: RateLimitHeaders{Remaining: 0}}
			}
			return nil
		})

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("Retry hint ignored, waited %v", elapsed)
		}
	})
}

// TestRetryWithBackoffResult tests retry with return values.
func TestRetryWithBackoffResult(t *testing.T) {
	attempts := 0
	result, err := RetryWithBackoffResult(context.Background(), fastRetryConfig(), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("temporary error")
		}
		return 42, nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if result != 42 {
		t.Errorf("Expected result 42, got %d", result)
	}
}

// TestRetryPreservesError tests that the last error is wrapped.
func TestRetryPreservesError(t *testing.T) {
	sentinel := errors.New("sentinel")
	cfg := fastRetryConfig()
	cfg.MaxRetries = 1

	err := RetryWithBackoff(context.Background(), cfg, func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected wrapped sentinel, got: %v", err)
	}
}

// TestBackoff tests the delay schedule.
func TestBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for attempt, w := range want {
		if got := backoff(cfg, attempt); got != w {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, w)
		}
	}
}
