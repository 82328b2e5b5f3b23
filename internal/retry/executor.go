package retry

import (
	"context"
	"time"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// Attempt describes a failed attempt that is about to be retried.
type Attempt struct {
	// Number is the 1-based attempt that just failed.
	Number int
	// Max is the configured attempt ceiling (-1 = unlimited).
	Max int
	// Err is the error the attempt returned.
	Err error
	// Delay is how long the executor waits before the next attempt.
	Delay time.Duration
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Executor orchestrates retry attempts with backoff and error classification.
//
// Thread Safety:
// The Executor holds no per-call state and is safe for concurrent use.
// WithOnRetry() and WithSleeper() return a NEW instance; the original
// Executor remains unchanged.
type Executor struct {
	classifier recorder.ErrorClassifier
	strategy   recorder.BackoffStrategy
	onRetry    func(Attempt)
	sleep      Sleeper
}

// NewExecutor creates a new retry executor with the given configuration.
// Panics if classifier or strategy is nil.
func NewExecutor(
	classifier recorder.ErrorClassifier,
	strategy recorder.BackoffStrategy,
) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}

	return &Executor{
		classifier: classifier,
		strategy:   strategy,
		sleep:      timerSleep,
	}
}

// NewDefaultExecutor retries connectivity faults up to DefaultRetryMaxAttempts
// times with 2s, 4s, ... backoff.
func NewDefaultExecutor() *Executor {
	return NewExecutor(
		NewConnectivityClassifier(),
		NewExponentialBackoff(recorder.DefaultRetryMaxAttempts),
	)
}

// WithOnRetry returns a new Executor with the specified retry callback.
//
// This method does NOT modify the receiver; it returns a new instance.
//
// Example:
//
//	executor := retry.NewDefaultExecutor()
//	logged := executor.WithOnRetry(func(a retry.Attempt) {
//	    logger.Error("attempt %d/%d failed: %v", a.Number, a.Max, a.Err)
//	})
func (e *Executor) WithOnRetry(callback func(Attempt)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithSleeper returns a new Executor that waits using sleep instead of a timer.
func (e *Executor) WithSleeper(sleep Sleeper) *Executor {
	clone := *e
	clone.sleep = sleep
	return &clone
}

// MaxAttempts returns the attempt ceiling of the underlying strategy.
func (e *Executor) MaxAttempts() int {
	return e.strategy.MaxAttempts()
}

// Do runs operation until it succeeds, fails permanently, or the attempt
// ceiling is reached. The returned error is always the one produced by the
// last attempt (or ctx.Err() if the caller gave up while waiting).
func Do[T any](ctx context.Context, e *Executor, operation func(ctx context.Context) (T, error)) (T, error) {
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 1; ; attempt++ {
		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}

		if maxAttempts >= 0 && attempt >= maxAttempts {
			return result, err
		}
		if !e.classifier.IsTransient(err) {
			return result, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, err
		}

		delay := e.strategy.NextDelay(attempt - 1)

		if e.onRetry != nil {
			e.onRetry(Attempt{Number: attempt, Max: maxAttempts, Err: err, Delay: delay})
		}

		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			var zero T
			return zero, sleepErr
		}
	}
}

// timerSleep waits for d, respecting context cancellation.
func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
