package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// maxDelayNanos bounds a computed delay (~146 years) so it always fits in a time.Duration.
const maxDelayNanos = float64(1 << 62)

// ExponentialBackoff implements exponential backoff with optional jitter.
//
// The wait before retry n (zero-indexed) is initialDelay * multiplier^n, so
// with the defaults the second attempt waits 2s, the third 4s, and so on.
type ExponentialBackoff struct {
	// initialDelay is the delay before the first retry
	initialDelay time.Duration
	// maxDelay caps a single delay (0 = uncapped)
	maxDelay time.Duration
	// multiplier is the factor by which delay increases (typically 2.0)
	multiplier float64
	// maxAttempts is the total number of attempts including the first (-1 = unlimited)
	maxAttempts int
	// jitter adds randomness to spread out retries (0.0-1.0, 0 = deterministic)
	// Jitter of 0.1 means +/- 10% randomness
	jitter float64
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay caps the delay between attempts. Zero disables the cap.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.maxDelay = d
	}
}

// WithMultiplier sets the factor by which delay increases between attempts.
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.multiplier = m
	}
}

// WithJitter sets the jitter factor (0.0-1.0) to add randomness to delays.
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = j
	}
}

// NewExponentialBackoff creates a backoff strategy allowing maxAttempts total
// attempts. Without options it waits DefaultRetryInitialDelay before the second
// attempt and doubles the wait each time, uncapped and without jitter.
//
// Example:
//
//	backoff := retry.NewExponentialBackoff(5,
//	    retry.WithInitialDelay(500 * time.Millisecond),
//	    retry.WithMaxDelay(30 * time.Second),
//	    retry.WithJitter(0.2),
//	)
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: recorder.DefaultRetryInitialDelay,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NextDelay calculates the delay before the given zero-indexed retry.
func (b *ExponentialBackoff) NextDelay(retry int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(retry))

	if b.maxDelay > 0 && delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}
	// Keep the conversion below from overflowing for absurd retry counts.
	if delay > maxDelayNanos {
		delay = maxDelayNanos
	}

	if b.jitter > 0 {
		// Map [0,1) to [-1,1) and scale: jitter=0.1, random=0.7 => delay * 1.04
		randomOffset := (rand.Float64() - 0.5) * 2.0
		delay *= 1.0 + (b.jitter * randomOffset)
	}

	return time.Duration(delay)
}

// MaxAttempts returns the total number of attempts allowed.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}

var _ recorder.BackoffStrategy = (*ExponentialBackoff)(nil)
