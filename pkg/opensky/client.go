// Package opensky provides a client for the OpenSky Network REST API.
//
// Only the /states/all endpoint is used: each call returns a snapshot of all
// state vectors currently tracked by the network, which the collector samples
// into a flight dataset.
//
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
// Rate Limits: anonymous users get 400 credits/day at 10 s resolution,
// registered users 4000 credits/day at 5 s resolution.
package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the OpenSky REST API root
	BaseURL = "https://opensky-network.org/api"

	// DefaultTimeout for API requests
	DefaultTimeout = 30 * time.Second
)

// Config contains configuration for the OpenSky client.
type Config struct {
	BaseURL  string
	Username string
	Password string

	// RequestsPerMinute limits API calls; 0 disables limiting
	RequestsPerMinute float64

	Timeout time.Duration
}

// Client represents an OpenSky API client.
type Client struct {
	baseURL     string
	username    string
	password    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a new OpenSky client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), 1)
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: limiter,
	}
}

// Authenticated reports whether requests carry basic auth credentials.
func (c *Client) Authenticated() bool {
	return c.username != "" && c.password != ""
}

// GetStates fetches all current state vectors.
func (c *Client) GetStates(ctx context.Context) (*StatesResponse, error) {
	// Wait for rate limiter
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/states/all", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Authenticated() {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch states: %w", err)
	}
	defer resp.Body.Close()

	// Check for rate limit (HTTP 429)
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "Rate limit exceeded",
			Headers:    extractRateLimitHeaders(resp.Header),
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var states StatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}
	return &states, nil
}
