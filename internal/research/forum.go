package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/metrics"
	"github.com/nikhilbhutani/newscast/internal/prompt"
)

const forumPipeline = "reddit"

// Analyst finds and summarizes forum discussion of a topic newer than since.
type Analyst interface {
	Analyze(ctx context.Context, topic string, since time.Time) (string, error)
}

// AnalystSession is an Analyst bound to resources released by Close.
type AnalystSession interface {
	Analyst
	Close() error
}

// AnalystFactory opens one session per pipeline run.
type AnalystFactory interface {
	Open(ctx context.Context) (AnalystSession, error)
}

// ForumPipeline summarizes forum discussion of each topic through a
// tool-using analyst.
type ForumPipeline struct {
	factory      AnalystFactory
	summarizer   Summarizer
	limiter      Limiter
	unit         time.Duration
	lookbackDays int
	retry        RetryPolicy
	now          func() time.Time
}

func NewForumPipeline(factory AnalystFactory, summarizer Summarizer, limiter Limiter, unit time.Duration, lookbackDays int) *ForumPipeline {
	return &ForumPipeline{
		factory:      factory,
		summarizer:   summarizer,
		limiter:      limiter,
		unit:         unit,
		lookbackDays: lookbackDays,
		retry:        ForumRetry,
		now:          time.Now,
	}
}

func (p *ForumPipeline) Name() string { return forumPipeline }

// Cutoff is the oldest post date considered for a run starting at now.
func (p *ForumPipeline) Cutoff(now time.Time) time.Time {
	y, m, d := now.AddDate(0, 0, -p.lookbackDays).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// Run opens one analyst session and processes topics in order. A topic that
// still fails after ProcessTopic's retries becomes an error outcome.
func (p *ForumPipeline) Run(ctx context.Context, topics []string) (PipelineResult, error) {
	start := time.Now()
	defer func() { metrics.ObservePipeline(forumPipeline, time.Since(start)) }()

	result := PipelineResult{Key: redditKey, Outcomes: make([]Outcome, 0, len(topics))}
	since := p.Cutoff(p.now())

	session, err := p.factory.Open(ctx)
	if err != nil {
		return result, fmt.Errorf("open forum analyst: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("close forum analyst", "error", err)
		}
	}()

	for _, topic := range topics {
		summary, err := p.ProcessTopic(ctx, session, topic, since)
		result.Outcomes = append(result.Outcomes, Outcome{Topic: topic, Summary: summary, Err: err})
		metrics.RecordTopic(forumPipeline, err)
		if err != nil {
			slog.Warn("forum topic failed", "topic", topic, "error", err)
		}

		if err := pause(ctx, 5*p.unit); err != nil {
			return result, err
		}
	}
	return result, nil
}

// ProcessTopic asks the analyst about one topic and condenses its answer.
// Each attempt waits for a forum permit. Only overload errors are retried;
// anything else, and the last overload after the final attempt, is
// returned unchanged.
func (p *ForumPipeline) ProcessTopic(ctx context.Context, analyst Analyst, topic string, since time.Time) (string, error) {
	var summary string
	err := p.retry.run(ctx, p.unit, forumPipeline, func() error {
		if err := acquire(ctx, p.limiter, forumPipeline); err != nil {
			return backoff.Permanent(fmt.Errorf("forum limiter: %w", err))
		}

		findings, err := analyst.Analyze(ctx, topic, since)
		if err != nil {
			return retryableOnly(err)
		}

		summary, err = p.summarizer.Summarize(ctx, prompt.MustRender(prompt.ForumCompress, map[string]string{
			"analysis": findings,
		}))
		return retryableOnly(err)
	})
	if err != nil {
		return "", err
	}
	return summary, nil
}

func retryableOnly(err error) error {
	if err == nil || apperr.IsRetryable(err) {
		return err
	}
	return backoff.Permanent(err)
}
