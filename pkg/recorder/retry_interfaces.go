package recorder

import "time"

// ErrorClassifier determines whether an error is transient (retryable) or permanent.
type ErrorClassifier interface {
	// IsTransient returns true if the error is temporary and the operation should be retried.
	IsTransient(err error) bool
}

// BackoffStrategy calculates the delay before the next attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait before the next attempt.
	// retry is zero-indexed (0 = wait before the second attempt, 1 = before the third, etc.)
	NextDelay(retry int) time.Duration

	// MaxAttempts returns the total number of attempts allowed, including the first (-1 = unlimited).
	MaxAttempts() int
}
