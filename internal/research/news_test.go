package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/news"
)

func TestNewsPipelineOneOutcomePerTopic(t *testing.T) {
	tests := []struct {
		name   string
		topics []string
		fail   []string
	}{
		{name: "single", topics: []string{"economy"}},
		{name: "several", topics: []string{"economy", "sports", "tech"}, fail: []string{"sports"}},
		{name: "all failing", topics: []string{"a", "b"}, fail: []string{"a", "b"}},
		{name: "duplicates", topics: []string{"a", "b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newStubFetcher()
			for _, f := range tt.fail {
				fetcher.fail[f] = apperr.E(apperr.Fetch, errors.New("BrightData error: 502 Bad Gateway"))
			}
			p := NewNewsPipeline(fetcher, &stubSummarizer{}, unlimited(), testUnit)

			res, err := p.Run(context.Background(), tt.topics)
			require.NoError(t, err)

			assert.Equal(t, "news_analysis", res.Key)
			require.Len(t, res.Outcomes, len(tt.topics))
			for i, o := range res.Outcomes {
				assert.Equal(t, tt.topics[i], o.Topic)
				assert.NotEmpty(t, o.Text())
			}
		})
	}
}

func TestNewsPipelineDoesNotRetryTopicErrors(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.fail["a"] = apperr.E(apperr.Fetch, errors.New("BrightData error: connection refused"))
	summarizer := &stubSummarizer{reply: "normal summary"}
	p := NewNewsPipeline(fetcher, summarizer, unlimited(), testUnit)

	res, err := p.Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a": "Error: BrightData error: connection refused",
		"b": "normal summary",
	}, res.Analysis())
	assert.Equal(t, 1, fetcher.calls[news.SearchURL("a")])
	assert.Equal(t, 1, fetcher.calls[news.SearchURL("b")])
	assert.Len(t, summarizer.prompts, 1)
}

func TestNewsPipelineSummarizationFailureIsAnOutcome(t *testing.T) {
	summarizer := &stubSummarizer{err: apperr.Op(apperr.Summarization, "summarize", errors.New("quota exceeded"))}
	p := NewNewsPipeline(newStubFetcher(), summarizer, unlimited(), testUnit)

	res, err := p.Run(context.Background(), []string{"economy"})
	require.NoError(t, err)
	assert.Equal(t, "Error: summarize: quota exceeded", res.Analysis()["economy"])
}

func TestNewsPipelinePrompt(t *testing.T) {
	summarizer := &stubSummarizer{}
	p := NewNewsPipeline(newStubFetcher(), summarizer, unlimited(), testUnit)

	_, err := p.Run(context.Background(), []string{"economy"})
	require.NoError(t, err)

	require.Len(t, summarizer.prompts, 1)
	assert.Equal(t,
		"Summarize the news headlines below for topic: economy\n\nHeadlines:\nRates hold steady\nJobs beat forecast",
		summarizer.prompts[0])
}

func TestNewsPipelineRetryResumesAtFailedTopic(t *testing.T) {
	fetcher := newStubFetcher()
	limiter := &flakyLimiter{failOn: map[int]bool{2: true}}
	p := NewNewsPipeline(fetcher, &stubSummarizer{}, limiter, testUnit)

	start := time.Now()
	res, err := p.Run(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 3)
	for _, o := range res.Outcomes {
		assert.NoError(t, o.Err)
	}
	assert.Equal(t, 1, fetcher.calls[news.SearchURL("a")])
	assert.Equal(t, 1, fetcher.calls[news.SearchURL("b")])
	assert.Equal(t, 4, limiter.calls)
	assert.GreaterOrEqual(t, time.Since(start), 2*testUnit)
}

func TestNewsPipelineGivesUpAfterThreeAttempts(t *testing.T) {
	limiter := &flakyLimiter{always: true}
	p := NewNewsPipeline(newStubFetcher(), &stubSummarizer{}, limiter, testUnit)

	res, err := p.Run(context.Background(), []string{"a", "b"})
	require.ErrorIs(t, err, errLimiter)
	assert.Empty(t, res.Outcomes)
	assert.Equal(t, 3, limiter.calls)
}

func TestNewsPipelineStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	limiter := &flakyLimiter{}
	p := NewNewsPipeline(newStubFetcher(), &stubSummarizer{}, limiter, testUnit)

	_, err := p.Run(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, limiter.calls)
}

func TestNewsPipelineRateLimit(t *testing.T) {
	const unit = 20 * time.Millisecond
	fetcher := newStubFetcher()
	p := NewNewsPipeline(fetcher, &stubSummarizer{}, NewLimiters(unit).News, unit)

	topics := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"}
	_, err := p.Run(context.Background(), topics)
	require.NoError(t, err)

	require.Len(t, fetcher.starts, 10)
	for i := 0; i+5 < len(fetcher.starts); i++ {
		assert.GreaterOrEqual(t, fetcher.starts[i+5].Sub(fetcher.starts[i]), unit,
			"more than 5 fetches started within one unit at index %d", i)
	}
}
