package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/config"
)

const (
	MediaType        = "audio/mpeg"
	DownloadFilename = "news-summary.mp3"
)

// Artifact is a synthesized broadcast on disk.
type Artifact struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	MediaType string `json:"media_type"`
	Filename  string `json:"filename"`
}

// Bytes reads the audio back from disk.
func (a *Artifact) Bytes() ([]byte, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, apperr.Op(apperr.Synthesis, "read audio", err)
	}
	return data, nil
}

// Synthesizer writes provider audio to timestamped files in one directory.
type Synthesizer struct {
	provider Provider
	voice    string
	model    string
	format   string
	dir      string
	now      func() time.Time
}

func NewSynthesizer(p Provider, voice, model, format, dir string) *Synthesizer {
	return &Synthesizer{provider: p, voice: voice, model: model, format: format, dir: dir, now: time.Now}
}

// New picks the backend named by cfg.Backend. The OpenAI backend uses
// its own default voice and model since the configured ids are ElevenLabs
// ones.
func New(cfg config.TTSConfig) (*Synthesizer, error) {
	switch cfg.Backend {
	case "", "elevenlabs":
		p := NewElevenLabs(ElevenLabsConfig{APIKey: cfg.ElevenLabsKey})
		return NewSynthesizer(p, cfg.VoiceID, cfg.ModelID, cfg.OutputFormat, cfg.OutputDir), nil
	case "openai":
		p := NewOpenAI(OpenAIConfig{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL})
		return NewSynthesizer(p, "", "", "mp3", cfg.OutputDir), nil
	default:
		return nil, fmt.Errorf("unknown TTS_BACKEND %q", cfg.Backend)
	}
}

// Synthesize streams text through the provider into
// <dir>/tts_<YYYYMMDD_HHMMSS>.mp3. An empty stream is a failure and leaves
// no file behind.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*Artifact, error) {
	stream, err := s.provider.Stream(ctx, Request{Text: text, Voice: s.voice, Model: s.model, Format: s.format})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, apperr.Op(apperr.Synthesis, "create output dir", err)
	}
	f, err := s.create()
	if err != nil {
		return nil, apperr.Op(apperr.Synthesis, "create audio file", err)
	}
	path := f.Name()

	n, copyErr := io.Copy(f, stream)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, apperr.Op(apperr.Synthesis, "write audio", err)
	}
	if n == 0 {
		_ = os.Remove(path)
		return nil, apperr.New(apperr.Synthesis, "audio generation failed: empty audio stream")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, apperr.Op(apperr.Synthesis, "audio generation failed", err)
	}

	slog.Info("audio written", "path", path, "bytes", n, "provider", s.provider.Name())
	return &Artifact{Path: path, Size: info.Size(), MediaType: MediaType, Filename: DownloadFilename}, nil
}

// create opens a new file named after the current second, adding a counter
// when a file for that second already exists.
func (s *Synthesizer) create() (*os.File, error) {
	base := "tts_" + s.now().Format("20060102_150405")
	for i := 0; ; i++ {
		name := base + ".mp3"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.mp3", base, i)
		}
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) && i < 100 {
			continue
		}
		return f, err
	}
}
