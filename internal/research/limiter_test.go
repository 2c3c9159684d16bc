package research

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsLimiterWindow(t *testing.T) {
	const unit = 100 * time.Millisecond
	l := NewLimiters(unit).News
	ctx := context.Background()

	var starts []time.Time
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(ctx))
		starts = append(starts, time.Now())
	}

	// Timer wake-ups may be late but never grouped more than 5 to a window.
	slack := unit / 10
	for i := 0; i+5 < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i+5].Sub(starts[i]), unit-slack)
	}
}

func TestForumLimiterSpacing(t *testing.T) {
	const unit = 2 * time.Millisecond
	l := NewLimiters(unit).Forum
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 15*unit-unit)
}

func TestLimitersAreShared(t *testing.T) {
	const unit = 2 * time.Millisecond
	limiters := NewLimiters(unit)
	ctx := context.Background()

	// Two pipelines built from the same pool contend for one budget.
	a := NewForumPipeline(nil, nil, limiters.Forum, unit, 14)
	b := NewForumPipeline(nil, nil, limiters.Forum, unit, 14)

	require.NoError(t, a.limiter.Wait(ctx))
	start := time.Now()
	require.NoError(t, b.limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 15*unit-unit)
}

func TestPause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pause(ctx, time.Hour), context.Canceled)
	assert.NoError(t, pause(context.Background(), 0))
}
