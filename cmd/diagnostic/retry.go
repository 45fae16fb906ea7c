// File: cmd/diagnostic/retry.go
package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig defines simple retry behavior
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryConfig gives a running server time to release the database.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
	}
}

// RetryWithBackoff executes fn until it succeeds, the attempts run out or ctx ends.
func RetryWithBackoff(ctx context.Context, config *RetryConfig, fn func(ctx context.Context) error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't wait after last attempt
		if attempt < attempts-1 {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("audit attempt failed, retrying")
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(config.Delay * time.Duration(attempt+1)):
			}
		}
	}
	return lastErr
}
