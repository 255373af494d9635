package db

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/unklstewy/flightmap/pkg/config"
)

// ReconnectWithRetry attempts to connect to the database with exponential backoff.
// This provides resilience against temporary database outages.
//
// Parameters:
//   - ctx: Cancels the wait between attempts
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = until ctx is done)
//   - initialDelay: Initial wait time between retries
//
// Returns: Connected database or error if all retries exhausted
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration) (*DB, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++
		log.Printf("Database connection attempt %d...", attempt)

		db, err := Connect(cfg)
		if err == nil {
			log.Println("✓ Database connected")
			return db, nil
		}

		// Check if we've exceeded max retries
		if maxRetries > 0 && attempt >= maxRetries {
			log.Printf("✗ Failed to connect after %d attempts", attempt)
			return nil, err
		}

		log.Printf("Connection failed: %v (retry in %v)", err, delay)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("reconnect cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		// Exponential backoff with cap at 60 seconds
		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// EnsureConnection checks if the database connection is alive and reconnects if needed.
// Returns the original connection when healthy, otherwise a new one.
func EnsureConnection(ctx context.Context, db *DB, cfg config.DatabaseConfig) (*DB, error) {
	if db == nil {
		log.Println("Database connection is nil, attempting to reconnect...")
		return ReconnectWithRetry(ctx, cfg, 3, time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		log.Printf("Database connection lost: %v", err)
		log.Println("Attempting to reconnect...")
		db.Close()
		return ReconnectWithRetry(ctx, cfg, 3, time.Second)
	}

	return db, nil
}

// HealthCheck returns true if the database answers a trivial query.
func HealthCheck(ctx context.Context, db *DB) bool {
	if db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		log.Printf("Health check failed - query error: %v", err)
		return false
	}
	if result != 1 {
		log.Printf("Health check failed - unexpected result: %d", result)
		return false
	}
	return true
}

// transientErrors are substrings of errors worth retrying.
var transientErrors = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"eof",
	"timeout",
	"database is locked",
}

// IsTransient reports whether err looks like a connection or lock failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WithRetry executes a database operation, retrying transient failures with
// a linear backoff. Other errors are returned immediately.
func WithRetry(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt+1) * time.Second
			log.Printf("Database operation failed (attempt %d/%d): %v (retry in %v)",
				attempt+1, maxRetries+1, err, waitTime)
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(waitTime):
			}
		}
	}

	return lastErr
}
