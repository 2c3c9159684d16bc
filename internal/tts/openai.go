package tts

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/newscast/internal/apperr"
)

// OpenAIConfig holds configuration for the OpenAI speech backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default: go-openai's public endpoint
}

// OpenAI synthesizes speech using OpenAI's speech endpoint.
type OpenAI struct {
	apiKey string
	client *openai.Client
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{apiKey: cfg.APIKey, client: openai.NewClientWithConfig(clientCfg)}
}

func (o *OpenAI) Name() string { return "openai" }

// Stream always requests MP3. Voice and model fall back to alloy and tts-1.
func (o *OpenAI) Stream(ctx context.Context, req Request) (io.ReadCloser, error) {
	if o.apiKey == "" {
		return nil, apperr.E(apperr.Synthesis, errors.New("missing OpenAI API key"))
	}

	voice := openai.VoiceAlloy
	if req.Voice != "" {
		voice = openai.SpeechVoice(req.Voice)
	}
	model := openai.TTSModel1
	if req.Model != "" {
		model = openai.SpeechModel(req.Model)
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, apperr.Op(apperr.Synthesis, "openai tts", err)
	}
	return resp, nil
}
