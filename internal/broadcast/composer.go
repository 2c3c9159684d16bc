// Package broadcast writes the spoken script for a finished research run.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nikhilbhutani/newscast/internal/prompt"
	"github.com/nikhilbhutani/newscast/internal/research"
)

type Composer struct {
	summarizer research.Summarizer
}

func NewComposer(s research.Summarizer) *Composer {
	return &Composer{summarizer: s}
}

// Prompt renders the composer prompt. Pipelines that did not run appear as
// an empty object.
func Prompt(topics []string, agg *research.Aggregate) (string, error) {
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return "", fmt.Errorf("marshal topics: %w", err)
	}
	newsJSON, err := section(agg.News)
	if err != nil {
		return "", err
	}
	redditJSON, err := section(agg.Reddit)
	if err != nil {
		return "", err
	}
	return prompt.Render(prompt.Broadcast, map[string]string{
		"topics": string(topicsJSON),
		"news":   newsJSON,
		"reddit": redditJSON,
	})
}

func section(r *research.PipelineResult) (string, error) {
	if r == nil {
		return "{}", nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", r.Key, err)
	}
	return string(data), nil
}

// Compose issues one summarization call and returns the script. Failures are
// not retried.
func (c *Composer) Compose(ctx context.Context, topics []string, agg *research.Aggregate) (string, error) {
	p, err := Prompt(topics, agg)
	if err != nil {
		return "", err
	}
	script, err := c.summarizer.Summarize(ctx, p)
	if err != nil {
		return "", fmt.Errorf("compose broadcast: %w", err)
	}
	return script, nil
}
