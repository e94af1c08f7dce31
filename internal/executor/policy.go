package executor

import (
	"math"
	"time"
)

// RetryPolicy bounds the executor's retry behavior. Attempt delays grow
// exponentially: BaseDelay * BackoffFactor^(attempt-1) after attempt N.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 1s base
// delay, doubling between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		BaseDelay:     1000 * time.Millisecond,
		BackoffFactor: 2,
	}
}

// DelayFor returns the backoff delay after the given attempt (1-based).
// For the default policy the sequence between attempts is 1s, 2s.
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := math.Pow(p.BackoffFactor, float64(attempt-1))
	return time.Duration(float64(p.BaseDelay) * multiplier)
}
