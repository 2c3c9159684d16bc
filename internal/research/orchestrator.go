package research

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Pipeline turns a topic list into per-topic outcomes.
type Pipeline interface {
	Name() string
	Run(ctx context.Context, topics []string) (PipelineResult, error)
}

// Orchestrator runs the selected pipelines one after another.
type Orchestrator struct {
	news  Pipeline
	forum Pipeline
}

func NewOrchestrator(news, forum Pipeline) *Orchestrator {
	return &Orchestrator{news: news, forum: forum}
}

var errNotConfigured = errors.New("pipeline not configured")

// Research returns one outcome per topic for every selected pipeline. A
// pipeline that fails outright still yields an error outcome for each topic
// it did not reach; only cancellation of ctx fails the call.
func (o *Orchestrator) Research(ctx context.Context, topics []string, sel Selector) (*Aggregate, error) {
	agg := &Aggregate{}

	if sel.News() {
		res, err := o.run(ctx, o.news, newsKey, topics)
		if err != nil {
			return nil, err
		}
		agg.News = res
	}

	if sel.Reddit() {
		res, err := o.run(ctx, o.forum, redditKey, topics)
		if err != nil {
			return nil, err
		}
		agg.Reddit = res
	}

	return agg, nil
}

func (o *Orchestrator) run(ctx context.Context, p Pipeline, key string, topics []string) (*PipelineResult, error) {
	if p == nil {
		res := &PipelineResult{Key: key}
		res.fill(topics, errNotConfigured)
		return res, nil
	}

	start := time.Now()
	res, err := p.Run(ctx, topics)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	res.Key = key
	if err != nil {
		slog.Error("pipeline failed", "pipeline", p.Name(), "completed", len(res.Outcomes), "error", err)
		res.fill(topics, err)
	}

	slog.Info("pipeline finished",
		"pipeline", p.Name(),
		"topics", len(topics),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &res, nil
}
