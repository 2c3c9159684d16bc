package research

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nikhilbhutani/newscast/internal/metrics"
)

// RetryPolicy is an exponential schedule expressed in research time units:
// the wait before retry n (from 1) is Multiplier*2^(n-1), clamped to
// [Min, Max].
type RetryPolicy struct {
	Attempts   int
	Multiplier float64
	Min        float64
	Max        float64
}

var (
	NewsRetry  = RetryPolicy{Attempts: 3, Multiplier: 1, Min: 2, Max: 10}
	ForumRetry = RetryPolicy{Attempts: 3, Multiplier: 1, Min: 15, Max: 60}
)

type exponential struct {
	policy RetryPolicy
	unit   time.Duration
	n      int
}

func (e *exponential) NextBackOff() time.Duration {
	wait := e.policy.Multiplier * math.Pow(2, float64(e.n))
	e.n++
	wait = math.Max(e.policy.Min, math.Min(wait, e.policy.Max))
	return time.Duration(wait * float64(e.unit))
}

func (e *exponential) Reset() { e.n = 0 }

// Delay returns the wait before the given retry (1-based).
func (p RetryPolicy) Delay(retry int, unit time.Duration) time.Duration {
	e := &exponential{policy: p, unit: unit, n: retry - 1}
	return e.NextBackOff()
}

// run calls op until it succeeds, returns a backoff.Permanent error, or the
// policy runs out of attempts. The last error is returned unchanged.
func (p RetryPolicy) run(ctx context.Context, unit time.Duration, pipeline string, op func() error) error {
	var b backoff.BackOff = &exponential{policy: p, unit: unit}
	if p.Attempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.Attempts-1))
	}
	b = backoff.WithContext(b, ctx)

	attempt := 1
	return backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		metrics.RecordRetry(pipeline)
		slog.Warn("retrying after error",
			"pipeline", pipeline,
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
		attempt++
	})
}
