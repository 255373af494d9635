package opensky

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError represents an HTTP 429 rate limit error with retry information.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Headers    RateLimitHeaders
}

// RateLimitHeaders contains the rate limit headers returned by the API.
// Remaining is -1 when the header is absent.
type RateLimitHeaders struct {
	Remaining int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (HTTP %d, retry after %v)", e.Message, e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// IsRateLimitError checks if an error is, or wraps, a rate limit error.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// parseRetryAfter reads X-Rate-Limit-Retry-After-Seconds, falling back to
// the standard Retry-After header (seconds or HTTP-date).
func parseRetryAfter(headers http.Header) time.Duration {
	if v := headers.Get("X-Rate-Limit-Retry-After-Seconds"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(retryTime); d > 0 {
			return d
		}
	}
	return 0
}

func extractRateLimitHeaders(headers http.Header) RateLimitHeaders {
	rlh := RateLimitHeaders{Remaining: -1}
	if v := headers.Get("X-Rate-Limit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rlh.Remaining = n
		}
	}
	return rlh
}
