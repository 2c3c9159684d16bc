package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const testUnit = time.Millisecond

func unlimited() *rate.Limiter { return rate.NewLimiter(rate.Inf, 1) }

const twoBlocks = `<html><body>
<div>Rates hold steady</div><div>Reuters</div><a>More</a>
<div>Jobs beat forecast</div><div>AP</div><a>More</a>
</body></html>`

type stubFetcher struct {
	mu     sync.Mutex
	fail   map[string]error // keyed by substring of the URL
	calls  map[string]int
	starts []time.Time
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{fail: map[string]error{}, calls: map[string]int{}}
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, time.Now())
	f.calls[url]++
	for substr, err := range f.fail {
		if strings.Contains(url, "q="+substr+"&") {
			return "", err
		}
	}
	return twoBlocks, nil
}

type stubSummarizer struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (s *stubSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if s.reply != "" {
		return s.reply, nil
	}
	return fmt.Sprintf("summary #%d", len(s.prompts)), nil
}

// flakyLimiter fails the calls listed in failOn (1-based) and succeeds otherwise.
type flakyLimiter struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]bool
	always bool
}

var errLimiter = errors.New("limiter backend unavailable")

func (l *flakyLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.always || l.failOn[l.calls] {
		return errLimiter
	}
	return ctx.Err()
}
