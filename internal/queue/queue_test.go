package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/briefing"
	"github.com/nikhilbhutani/newscast/internal/tts"
)

type fakeGenerator struct {
	id  string
	req briefing.Request
	err error
}

func (g *fakeGenerator) GenerateWithID(_ context.Context, id string, req briefing.Request) (*briefing.Result, error) {
	g.id, g.req = id, req
	if g.err != nil {
		return nil, g.err
	}
	return &briefing.Result{
		ID:     id,
		Script: "Good evening.",
		Audio:  &tts.Artifact{Path: "audio/tts_20261014_093005.mp3", Size: 42},
	}, nil
}

func task(t *testing.T, payload BriefingPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TypeBriefingGenerate, data)
}

func TestBriefingWorkerProcessTask(t *testing.T) {
	gen := &fakeGenerator{}
	w := NewBriefingWorker(gen)

	err := w.ProcessTask(context.Background(), task(t, BriefingPayload{Topics: []string{"economy"}, SourceType: "news"}))
	require.NoError(t, err)
	assert.NotEmpty(t, gen.id, "a missing task id falls back to a fresh one")
	assert.Equal(t, []string{"economy"}, gen.req.Topics)
	assert.Equal(t, "news", gen.req.SourceType)
}

func TestBriefingWorkerSkipsRetry(t *testing.T) {
	tests := []struct {
		name      string
		task      *asynq.Task
		err       error
		skipRetry bool
	}{
		{
			name:      "malformed payload",
			task:      asynq.NewTask(TypeBriefingGenerate, []byte("{")),
			skipRetry: true,
		},
		{
			name:      "validation",
			task:      task(t, BriefingPayload{}),
			err:       apperr.New(apperr.Validation, "topics must contain at least one topic"),
			skipRetry: true,
		},
		{
			name: "synthesis failure is retried",
			task: task(t, BriefingPayload{Topics: []string{"a"}}),
			err:  apperr.New(apperr.Synthesis, "audio generation failed"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewBriefingWorker(&fakeGenerator{err: tt.err})
			err := w.ProcessTask(context.Background(), tt.task)
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestStatusOf(t *testing.T) {
	completed := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	s := statusOf(&asynq.TaskInfo{
		ID:          "abc",
		State:       asynq.TaskStateCompleted,
		CompletedAt: completed,
		Result:      []byte(`{"id":"abc","audio_path":"audio/x.mp3"}`),
	})
	assert.Equal(t, "abc", s.ID)
	assert.Equal(t, "completed", s.State)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, completed, *s.CompletedAt)
	assert.JSONEq(t, `{"id":"abc","audio_path":"audio/x.mp3"}`, string(s.Result))

	s = statusOf(&asynq.TaskInfo{ID: "def", State: asynq.TaskStateRetry, Retried: 1, LastErr: "Overloaded"})
	assert.Equal(t, "retry", s.State)
	assert.Equal(t, 1, s.Retried)
	assert.Equal(t, "Overloaded", s.LastError)
	assert.Nil(t, s.CompletedAt)
	assert.Nil(t, s.Result)
}
