package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/nikhilbhutani/newscast/internal/apperr"
)

// Summarizer turns a single prompt into generated text through the gateway.
type Summarizer struct {
	gateway  Gateway
	provider string
	model    string
}

func NewSummarizer(gw Gateway, provider, model string) *Summarizer {
	return &Summarizer{gateway: gw, provider: provider, model: model}
}

// Summarize sends prompt as one user turn. Failures carry the Summarization
// kind unless the provider already classified them as overload.
func (s *Summarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := s.gateway.Chat(ctx, ChatRequest{
		Provider: s.provider,
		Model:    s.model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		if apperr.IsRetryable(err) {
			return "", err
		}
		return "", apperr.Op(apperr.Summarization, "summarize", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", apperr.E(apperr.Summarization, errors.New("summarizer returned no text"))
	}
	return text, nil
}
