package bookingapi

import "time"

// RetryConfig controls transport-level retries of idempotent requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff is the pause before the next attempt.
	Backoff time.Duration
}

// DefaultRetryConfig allows a single retry.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 2,
		Backoff:     250 * time.Millisecond,
	}
}
