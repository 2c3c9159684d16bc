package research

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/nikhilbhutani/newscast/internal/metrics"
)

// Limiter blocks until the caller may start a throttled call.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Limiters are the process-wide permit pools. Build them once and share
// them across every pipeline run so concurrent requests contend for the
// same budget.
type Limiters struct {
	News  *rate.Limiter
	Forum *rate.Limiter
}

// NewLimiters spaces news fetches at five per unit and forum agent runs at
// one per fifteen units. A burst of one keeps any rolling window of one
// unit at or below five news starts.
func NewLimiters(unit time.Duration) Limiters {
	return Limiters{
		News:  rate.NewLimiter(rate.Every(unit/5), 1),
		Forum: rate.NewLimiter(rate.Every(15*unit), 1),
	}
}

func acquire(ctx context.Context, l Limiter, pipeline string) error {
	start := time.Now()
	err := l.Wait(ctx)
	metrics.ObserveLimiterWait(pipeline, time.Since(start))
	return err
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
