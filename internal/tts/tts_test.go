package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/config"
)

type stubProvider struct {
	audio string
	err   error
	got   Request
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Stream(_ context.Context, req Request) (io.ReadCloser, error) {
	p.got = req
	if p.err != nil {
		return nil, p.err
	}
	return io.NopCloser(strings.NewReader(p.audio)), nil
}

func fixedClock() time.Time { return time.Date(2026, 10, 14, 9, 30, 5, 0, time.UTC) }

func TestSynthesizeWritesTimestampedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	p := &stubProvider{audio: "ID3fake-mp3"}
	s := NewSynthesizer(p, "JBFqnCBsd6RMkjVDRZzb", "eleven_multilingual_v2", "mp3_44100_128", dir)
	s.now = fixedClock

	art, err := s.Synthesize(context.Background(), "Good evening.")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tts_20261014_093005.mp3"), art.Path)
	assert.Equal(t, int64(len("ID3fake-mp3")), art.Size)
	assert.Equal(t, "audio/mpeg", art.MediaType)
	assert.Equal(t, "news-summary.mp3", art.Filename)
	assert.Equal(t, Request{Text: "Good evening.", Voice: "JBFqnCBsd6RMkjVDRZzb", Model: "eleven_multilingual_v2", Format: "mp3_44100_128"}, p.got)

	data, err := art.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "ID3fake-mp3", string(data))

	second, err := s.Synthesize(context.Background(), "Again.")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tts_20261014_093005_1.mp3"), second.Path)
}

func TestSynthesizeEmptyStream(t *testing.T) {
	dir := t.TempDir()
	s := NewSynthesizer(&stubProvider{}, "v", "m", "f", dir)

	_, err := s.Synthesize(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, apperr.Synthesis, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "empty audio stream")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSynthesizeProviderError(t *testing.T) {
	s := NewSynthesizer(&stubProvider{err: apperr.New(apperr.Synthesis, "missing ElevenLabs API key")}, "v", "m", "f", t.TempDir())
	_, err := s.Synthesize(context.Background(), "text")
	assert.Equal(t, apperr.Synthesis, apperr.KindOf(err))
}

func TestElevenLabsStream(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/text-to-speech/JBFqnCBsd6RMkjVDRZzb/stream", r.URL.Path)
		assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))
		assert.Equal(t, "key", r.Header.Get("xi-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("chunk1"))
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("chunk2"))
	}))
	defer srv.Close()

	e := NewElevenLabs(ElevenLabsConfig{APIKey: "key", BaseURL: srv.URL})
	stream, err := e.Stream(context.Background(), Request{Text: "hi", Voice: "JBFqnCBsd6RMkjVDRZzb", Model: "eleven_multilingual_v2", Format: "mp3_44100_128"})
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "chunk1chunk2", string(data))
	assert.Equal(t, map[string]string{"text": "hi", "model_id": "eleven_multilingual_v2"}, body)
}

func TestElevenLabsErrors(t *testing.T) {
	_, err := NewElevenLabs(ElevenLabsConfig{}).Stream(context.Background(), Request{})
	assert.Equal(t, apperr.Synthesis, apperr.KindOf(err))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota_exceeded"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err = NewElevenLabs(ElevenLabsConfig{APIKey: "k", BaseURL: srv.URL}).Stream(context.Background(), Request{Voice: "v"})
	require.Error(t, err)
	assert.Equal(t, apperr.Synthesis, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "quota_exceeded")
}

func TestOpenAIStream(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	stream, err := NewOpenAI(OpenAIConfig{APIKey: "sk", BaseURL: srv.URL}).Stream(context.Background(), Request{Text: "hi"})
	require.NoError(t, err)
	defer stream.Close()

	data, _ := io.ReadAll(stream)
	assert.Equal(t, "mp3", string(data))
	assert.Equal(t, "tts-1", body["model"])
	assert.Equal(t, "hi", body["input"])
	assert.Equal(t, "alloy", body["voice"])
	assert.Equal(t, "mp3", body["response_format"])
}

func TestOpenAIStreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(OpenAIConfig{APIKey: "sk", BaseURL: srv.URL}).Stream(context.Background(), Request{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, apperr.Synthesis, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "quota exceeded")

	_, err = NewOpenAI(OpenAIConfig{}).Stream(context.Background(), Request{Text: "hi"})
	assert.Equal(t, apperr.Synthesis, apperr.KindOf(err))
}

func TestNew(t *testing.T) {
	s, err := New(config.TTSConfig{Backend: "elevenlabs", VoiceID: "v", ModelID: "m", OutputFormat: "f", OutputDir: "out"})
	require.NoError(t, err)
	assert.Equal(t, "elevenlabs", s.provider.Name())

	s, err = New(config.TTSConfig{Backend: "openai", VoiceID: "ignored", OutputDir: "out"})
	require.NoError(t, err)
	assert.Equal(t, "openai", s.provider.Name())
	assert.Empty(t, s.voice)

	_, err = New(config.TTSConfig{Backend: "piper"})
	assert.Error(t, err)
}
