package retry

import (
	"context"
	"time"

	ai "github.com/spetersoncode/mcpagent"
)

// Failure describes one failed attempt.
type Failure struct {
	// Attempt is the 1-based number of the failed call.
	Attempt int
	// Attempts is the configured maximum.
	Attempts int
	Err      error
	// Retryable is false when Err is not transient.
	Retryable bool
	// Wait is the pause before the next call. It is zero when no call follows.
	Wait time.Duration
}

// Final reports whether no further attempt follows this failure.
func (f Failure) Final() bool {
	return !f.Retryable || f.Attempt >= f.Attempts
}

// waitFor returns the backoff for a failed attempt, stretched to the
// server's Retry-After hint when that is longer.
func waitFor(cfg Config, attempt int, err error) time.Duration {
	wait := cfg.Delay(attempt)
	if hint := ai.RetryAfterOf(err); hint > wait {
		return hint
	}
	return wait
}

// Do calls fn until it succeeds, fails with a non-transient error, or the
// attempts run out, and returns the last error in that case. A done ctx
// interrupts the wait between attempts.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoNotify(ctx, cfg, nil, fn)
}

// DoNotify is Do with a hook called synchronously after every failed
// attempt, before any wait. notify may be nil.
func DoNotify[T any](ctx context.Context, cfg Config, notify func(Failure), fn func() (T, error)) (T, error) {
	var zero T

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		f := Failure{
			Attempt:   attempt,
			Attempts:  attempts,
			Err:       err,
			Retryable: IsTransient(err),
		}
		if !f.Final() {
			f.Wait = waitFor(cfg, attempt-1, err)
		}
		if notify != nil {
			notify(f)
		}
		if f.Final() {
			return zero, err
		}

		timer := time.NewTimer(f.Wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
