// Package briefing produces one audio briefing from a topic list: research,
// compose, synthesize.
package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/metrics"
	"github.com/nikhilbhutani/newscast/internal/research"
	"github.com/nikhilbhutani/newscast/internal/tts"
)

type Researcher interface {
	Research(ctx context.Context, topics []string, sel research.Selector) (*research.Aggregate, error)
}

type Composer interface {
	Compose(ctx context.Context, topics []string, agg *research.Aggregate) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*tts.Artifact, error)
}

// Request is the body accepted by the generate endpoints.
type Request struct {
	Topics     []string `json:"topics"`
	SourceType string   `json:"source_type"`
}

// Validate trims topics and parses the selector. A missing source_type
// means both pipelines.
func (r Request) Validate() ([]string, research.Selector, error) {
	if len(r.Topics) == 0 {
		return nil, "", apperr.New(apperr.Validation, "topics must contain at least one topic")
	}
	topics := make([]string, len(r.Topics))
	for i, t := range r.Topics {
		if strings.TrimSpace(t) == "" {
			return nil, "", apperr.New(apperr.Validation, fmt.Sprintf("topics[%d] is blank", i))
		}
		topics[i] = t
	}

	source := r.SourceType
	if strings.TrimSpace(source) == "" {
		source = string(research.SelectBoth)
	}
	sel, err := research.ParseSelector(source)
	if err != nil {
		return nil, "", err
	}
	return topics, sel, nil
}

// Result is everything produced for one briefing.
type Result struct {
	ID        string              `json:"id"`
	Topics    []string            `json:"topics"`
	Source    research.Selector   `json:"source_type"`
	Research  *research.Aggregate `json:"research"`
	Script    string              `json:"script"`
	Audio     *tts.Artifact       `json:"audio"`
	ElapsedMs int64               `json:"elapsed_ms"`
}

type Service struct {
	researcher  Researcher
	composer    Composer
	synthesizer Synthesizer
}

func NewService(r Researcher, c Composer, s Synthesizer) *Service {
	return &Service{researcher: r, composer: c, synthesizer: s}
}

// Generate runs one briefing under a fresh id.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	return s.GenerateWithID(ctx, uuid.NewString(), req)
}

// GenerateWithID runs one briefing. Audio is produced only after every
// selected pipeline has drained its topics; any failure after research
// fails the whole briefing.
func (s *Service) GenerateWithID(ctx context.Context, id string, req Request) (res *Result, err error) {
	start := time.Now()
	log := slog.With("briefing_id", id)
	defer func() {
		metrics.RecordBriefing(err)
		if err != nil {
			log.Error("briefing failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		}
	}()

	topics, sel, err := req.Validate()
	if err != nil {
		return nil, err
	}
	log.Info("briefing started", "topics", len(topics), "source_type", sel)

	agg, err := s.researcher.Research(ctx, topics, sel)
	if err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}

	script, err := s.composer.Compose(ctx, topics, agg)
	if err != nil {
		return nil, err
	}

	audio, err := s.synthesizer.Synthesize(ctx, script)
	if err != nil {
		return nil, err
	}

	res = &Result{
		ID:        id,
		Topics:    topics,
		Source:    sel,
		Research:  agg,
		Script:    script,
		Audio:     audio,
		ElapsedMs: time.Since(start).Milliseconds(),
	}
	log.Info("briefing finished", "audio", audio.Path, "elapsed_ms", res.ElapsedMs)
	return res, nil
}
