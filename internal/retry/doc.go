// Package retry provides automatic retry logic with exponential backoff
// for transient database connectivity failures.
//
// The package supports pluggable error classification and backoff strategies,
// making the retry policy a first-class value that can be tested on its own.
//
// # Example Usage
//
//	executor := retry.NewExecutor(
//	    retry.NewConnectivityClassifier(),
//	    retry.NewExponentialBackoff(3),
//	)
//
//	rows, err := retry.Do(ctx, executor, func(ctx context.Context) ([]recorder.Row, error) {
//	    return runQuery(ctx)
//	})
//
// # Error Classification
//
// The ErrorClassifier interface determines which errors are transient (retryable)
// versus permanent. ConnectivityClassifier recognizes connection reset, refused,
// host not found, timeouts, and connections lost mid-protocol. Everything else
// is returned to the caller on first occurrence.
//
// # Backoff Strategies
//
// ExponentialBackoff waits initialDelay * multiplier^n before retry n. The
// defaults give 2s before the second attempt and 4s before the third.
//
// # Attempt Ceiling
//
// MaxAttempts counts every attempt, including the first. When the ceiling is
// reached the error of the final attempt is returned unchanged.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() and
// WithSleeper() to derive independent configurations.
package retry
