package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nikhilbhutani/newscast/internal/metrics"
	"github.com/nikhilbhutani/newscast/internal/news"
	"github.com/nikhilbhutani/newscast/internal/prompt"
)

const newsPipeline = "news"

// NewsPipeline summarizes the search headlines of each topic.
type NewsPipeline struct {
	fetcher    Fetcher
	summarizer Summarizer
	limiter    Limiter
	unit       time.Duration
	retry      RetryPolicy
}

func NewNewsPipeline(fetcher Fetcher, summarizer Summarizer, limiter Limiter, unit time.Duration) *NewsPipeline {
	return &NewsPipeline{
		fetcher:    fetcher,
		summarizer: summarizer,
		limiter:    limiter,
		unit:       unit,
		retry:      NewsRetry,
	}
}

func (p *NewsPipeline) Name() string { return newsPipeline }

// Run processes topics in order, one at a time. Topic failures become error
// outcomes. Only an error outside topic processing (a limiter failure)
// retries the loop, which then resumes at the topic it stopped on. The
// partial result is returned alongside an unrecovered error.
func (p *NewsPipeline) Run(ctx context.Context, topics []string) (PipelineResult, error) {
	start := time.Now()
	defer func() { metrics.ObservePipeline(newsPipeline, time.Since(start)) }()

	result := PipelineResult{Key: newsKey, Outcomes: make([]Outcome, 0, len(topics))}
	next := 0

	err := p.retry.run(ctx, p.unit, newsPipeline, func() error {
		for next < len(topics) {
			topic := topics[next]
			if err := acquire(ctx, p.limiter, newsPipeline); err != nil {
				return escaping(ctx, fmt.Errorf("news limiter: %w", err))
			}

			outcome := p.processTopic(ctx, topic)
			result.Outcomes = append(result.Outcomes, outcome)
			next++
			metrics.RecordTopic(newsPipeline, outcome.Err)
			if outcome.Err != nil {
				slog.Warn("news topic failed", "topic", topic, "error", outcome.Err)
			}

			if err := pause(ctx, p.unit); err != nil {
				return backoff.Permanent(err)
			}
		}
		return nil
	})
	return result, err
}

func (p *NewsPipeline) processTopic(ctx context.Context, topic string) Outcome {
	markup, err := p.fetcher.Fetch(ctx, news.SearchURL(topic))
	if err != nil {
		return Outcome{Topic: topic, Err: err}
	}

	headlines, err := news.Headlines(markup)
	if err != nil {
		return Outcome{Topic: topic, Err: err}
	}

	summary, err := p.summarizer.Summarize(ctx, prompt.MustRender(prompt.NewsHeadlines, map[string]string{
		"topic":     topic,
		"headlines": strings.Join(headlines, "\n"),
	}))
	if err != nil {
		return Outcome{Topic: topic, Err: err}
	}

	slog.Debug("news topic summarized", "topic", topic, "headlines", len(headlines))
	return Outcome{Topic: topic, Summary: summary}
}

// escaping marks cancellation as final so the retry wrapper gives up.
func escaping(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return backoff.Permanent(err)
	}
	return err
}
