// Package research runs topic lists through the news and forum pipelines
// and merges their per-topic outcomes.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nikhilbhutani/newscast/internal/apperr"
)

// Selector chooses which pipelines run for a request.
type Selector string

const (
	SelectNews   Selector = "news"
	SelectReddit Selector = "reddit"
	SelectBoth   Selector = "both"
)

func ParseSelector(s string) (Selector, error) {
	switch sel := Selector(strings.ToLower(strings.TrimSpace(s))); sel {
	case SelectNews, SelectReddit, SelectBoth:
		return sel, nil
	}
	return "", apperr.New(apperr.Validation, fmt.Sprintf("source_type must be one of news, reddit, both; got %q", s))
}

func (s Selector) News() bool   { return s == SelectNews || s == SelectBoth }
func (s Selector) Reddit() bool { return s == SelectReddit || s == SelectBoth }

// Fetcher returns the raw markup behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Summarizer turns a prompt into generated text.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Outcome is the result of one topic through one pipeline. A failed topic
// carries its error instead of a summary.
type Outcome struct {
	Topic   string
	Summary string
	Err     error
}

// Text renders the outcome the way it is handed to the composer.
func (o Outcome) Text() string {
	if o.Err != nil {
		return "Error: " + o.Err.Error()
	}
	return o.Summary
}

const (
	newsKey   = "news_analysis"
	redditKey = "reddit_analysis"
)

// PipelineResult holds one outcome per input topic, in input order.
type PipelineResult struct {
	Key      string
	Outcomes []Outcome
}

// Analysis is the topic-keyed view. A repeated topic keeps its last outcome.
func (r PipelineResult) Analysis() map[string]string {
	out := make(map[string]string, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out[o.Topic] = o.Text()
	}
	return out
}

func (r PipelineResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]string{r.Key: r.Analysis()})
}

// fill appends an error outcome for every topic the run did not reach.
func (r *PipelineResult) fill(topics []string, err error) {
	for _, t := range topics[min(len(r.Outcomes), len(topics)):] {
		r.Outcomes = append(r.Outcomes, Outcome{Topic: t, Err: err})
	}
}

// Aggregate is the merged research for one request. Only selected
// pipelines are present.
type Aggregate struct {
	News   *PipelineResult `json:"news,omitempty"`
	Reddit *PipelineResult `json:"reddit,omitempty"`
}
