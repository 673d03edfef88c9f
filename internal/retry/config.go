// Package retry retries model calls that fail with transient errors, using
// exponential backoff and honoring server Retry-After hints.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts counts every call, the first one included.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Jitter scales each delay by a random factor in [1-Jitter, 1+Jitter].
	Jitter float64
}

// Default retry budget for a model call. An agent step blocks on its model
// call, so the budget stays small.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultMaxDelay     = 8 * time.Second
)

// DefaultConfig returns the retry budget used for model calls.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   2,
		Jitter:       0.2,
	}
}

// Disabled returns a configuration that makes a single attempt.
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Delay returns the wait after the given 0-based retry:
// min(MaxDelay, InitialDelay * Multiplier^retry), then jittered.
func (c Config) Delay(retry int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(max(retry, 0)))
	d = min(d, float64(c.MaxDelay))
	if c.Jitter > 0 {
		d *= 1 + c.Jitter*(2*rand.Float64()-1)
	}
	return time.Duration(d)
}
