package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/nikhilbhutani/newscast/internal/apperr"
)

// GeminiProvider calls Gemini through the Gen AI SDK.
type GeminiProvider struct {
	client  *genai.Client
	initErr error
}

// NewGeminiProvider creates a provider. An empty baseURL selects the public API.
func NewGeminiProvider(apiKey, baseURL string) *GeminiProvider {
	if apiKey == "" {
		return &GeminiProvider{initErr: errors.New("gemini API key not configured (set GEMINI_API_KEY)")}
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
		HTTPClient:  &http.Client{Timeout: 60 * time.Second},
	})
	if err != nil {
		return &GeminiProvider{initErr: fmt.Errorf("create gemini client: %w", err)}
	}
	return &GeminiProvider{client: client}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Models() []string {
	return []string{"gemini-2.5-flash", "gemini-2.5-pro"}
}

func (p *GeminiProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.initErr != nil {
		return nil, p.initErr
	}
	start := time.Now()

	systemText, turns := splitSystem(req.Messages)
	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		StopSequences:   req.Stop,
	}
	if systemText != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, classifyGemini(err)
	}

	out := &ChatResponse{
		Provider:  "gemini",
		Model:     req.Model,
		Content:   resp.Text(),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
		out.CostUSD = CalculateCost(req.Model, out.InputTokens, out.OutputTokens)
	}
	return out, nil
}

// classifyGemini marks 503 responses as overload.
func classifyGemini(err error) error {
	code, msg, ok := geminiAPIError(err)
	if !ok {
		return fmt.Errorf("gemini request failed: %w", err)
	}
	wrapped := fmt.Errorf("gemini returned status %d: %s: %w", code, msg, err)
	if code == http.StatusServiceUnavailable {
		return apperr.E(apperr.Overloaded, wrapped)
	}
	return wrapped
}

func geminiAPIError(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, true
	}
	return 0, "", false
}
