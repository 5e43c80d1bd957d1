package executor

import (
	"math"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// retryAfterJitter is the randomization factor applied to a Retry-After
// floor, matching newRetryBackoff's own ±20%.
const retryAfterJitter = 0.2

// newRetryBackoff builds the exponential backoff sequence from §4.E:
// base=100ms, factor=2, jitter=±20%, uncapped here — the caller clamps
// each sleep to the remaining cost/deadline budget. MaxInterval must stay
// far above InitialInterval: cenkalti/backoff caps currentInterval at
// MaxInterval once currentInterval >= MaxInterval/Multiplier, so a zero
// MaxInterval collapses every interval after the first back to zero
// instead of growing it.
func newRetryBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.Multiplier = 2
	b.RandomizationFactor = retryAfterJitter
	b.MaxInterval = time.Duration(math.MaxInt64) // uncapped; budget clamping happens at the call site
	b.Reset()
	return b
}

// clampSleep bounds a backoff interval to whatever wall-clock budget
// remains before the job deadline, per §4.E's "cap=cost-budget-remaining
// and deadline".
func clampSleep(d, remaining time.Duration) time.Duration {
	if remaining <= 0 {
		return 0
	}
	if d > remaining {
		return remaining
	}
	return d
}

// jitterDuration adds the library's randomization manually for the
// retry_after floor case, where backoff.ExponentialBackOff isn't driving
// the interval. Used by dispatchOne when a 429's Retry-After header
// exceeds the computed backoff sleep.
func jitterDuration(base time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return base
	}
	delta := float64(base) * factor
	min := float64(base) - delta
	max := float64(base) + delta
	return time.Duration(min + rand.Float64()*(max-min))
}
