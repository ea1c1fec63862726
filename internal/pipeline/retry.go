package pipeline

import (
	"math"
	"math/rand"
	"time"
)

// RetryConfig bounds stage retries and paces them with exponential
// backoff. The ceiling applies to the job's lifetime attempt counter,
// which never resets.
type RetryConfig struct {
	MaxAttempts       int           `json:"max_attempts"`
	InitialDelay      time.Duration `json:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
	Jitter            bool          `json:"jitter"`
}

// DefaultRetryConfig matches the recommended ceiling of three attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay computes the pause before the given retry attempt (1-based).
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := time.Duration(float64(c.InitialDelay) * math.Pow(c.BackoffMultiplier, float64(attempt-1)))
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if c.Jitter {
		// Up to ±10% keeps retry bursts from aligning across jobs.
		delay += time.Duration((rand.Float64() - 0.5) * 0.2 * float64(delay))
	}
	return delay
}
