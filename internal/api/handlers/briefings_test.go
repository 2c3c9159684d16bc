package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/briefing"
	"github.com/nikhilbhutani/newscast/internal/queue"
	"github.com/nikhilbhutani/newscast/internal/tts"
)

type fakeGenerator struct {
	audio string
	err   error
	req   briefing.Request
	ctx   context.Context
}

func (g *fakeGenerator) Generate(ctx context.Context, req briefing.Request) (*briefing.Result, error) {
	g.ctx = ctx
	g.req = req
	if g.err != nil {
		return nil, g.err
	}
	return &briefing.Result{ID: "b-1", Audio: &tts.Artifact{Path: g.audio}}, nil
}

type fakeQueue struct {
	enqueued []queue.BriefingPayload
	status   *queue.Status
	err      error
}

func (q *fakeQueue) EnqueueBriefing(_ context.Context, p queue.BriefingPayload) (string, error) {
	q.enqueued = append(q.enqueued, p)
	return "task-1", q.err
}

func (q *fakeQueue) Status(_ context.Context, id string) (*queue.Status, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.status, nil
}

func audioFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tts_20261014_093005.mp3")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestGenerateReturnsAudio(t *testing.T) {
	gen := &fakeGenerator{audio: audioFile(t, "ID3-bytes")}
	h := NewBriefingHandler(gen, nil)

	rec := post(h.Generate, `{"topics":["economy"],"source_type":"news"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=news-summary.mp3", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "b-1", rec.Header().Get("X-Briefing-ID"))
	assert.Equal(t, "ID3-bytes", rec.Body.String())
	assert.Equal(t, []string{"economy"}, gen.req.Topics)
}

func TestGenerateOutlivesClientDisconnect(t *testing.T) {
	gen := &fakeGenerator{audio: audioFile(t, "ID3-bytes")}
	h := NewBriefingHandler(gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"topics":["economy"]}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	require.NotNil(t, gen.ctx)
	assert.NoError(t, gen.ctx.Err())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		detail string
	}{
		{name: "synthesis", body: `{"topics":["a"]}`, err: apperr.New(apperr.Synthesis, "audio generation failed: empty audio stream"), status: 500, detail: "audio generation failed: empty audio stream"},
		{name: "validation", body: `{"topics":[]}`, err: apperr.New(apperr.Validation, "topics must contain at least one topic"), status: 422, detail: "topics must contain at least one topic"},
		{name: "malformed", body: `{"topics":`, status: 422, detail: "invalid request body"},
		{name: "unclassified", body: `{"topics":["a"]}`, err: errors.New("boom"), status: 500, detail: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBriefingHandler(&fakeGenerator{err: tt.err}, nil)
			rec := post(h.Generate, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, detail(t, rec), tt.detail)
		})
	}
}

func TestGenerateMissingAudioFile(t *testing.T) {
	gen := &fakeGenerator{audio: filepath.Join(t.TempDir(), "gone.mp3")}
	rec := post(NewBriefingHandler(gen, nil).Generate, `{"topics":["a"]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, detail(t, rec), "audio generation failed")
}

func TestEnqueue(t *testing.T) {
	q := &fakeQueue{}
	h := NewBriefingHandler(&fakeGenerator{}, q)

	rec := post(h.Enqueue, `{"topics":["economy"],"source_type":"both"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"id":"task-1","queue":"default"}`, rec.Body.String())
	require.Len(t, q.enqueued, 1)

	rec = post(h.Enqueue, `{"topics":["economy"],"source_type":"tv"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, q.enqueued, 1, "invalid requests never reach the queue")
}

func TestAsyncEndpointsWithoutQueue(t *testing.T) {
	h := NewBriefingHandler(&fakeGenerator{}, nil)
	rec := post(h.Enqueue, `{"topics":["a"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		q      *fakeQueue
		status int
	}{
		{name: "found", q: &fakeQueue{status: &queue.Status{ID: "task-1", State: "completed"}}, status: http.StatusOK},
		{name: "not found", q: &fakeQueue{err: queue.ErrNotFound}, status: http.StatusNotFound},
		{name: "inspector failure", q: &fakeQueue{err: errors.New("redis down")}, status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/briefings/{id}", NewBriefingHandler(&fakeGenerator{}, tt.q).Status)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/briefings/task-1", nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil).Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Your API is running!"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthHandler(fakePinger{err: errors.New("refused")}).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy: refused")

	rec = httptest.NewRecorder()
	NewHealthHandler(fakePinger{}).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
