package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/briefing"
	"github.com/nikhilbhutani/newscast/internal/queue"
	"github.com/nikhilbhutani/newscast/internal/tts"
)

type Generator interface {
	Generate(ctx context.Context, req briefing.Request) (*briefing.Result, error)
}

// Enqueuer schedules briefings for the worker and reports on them.
type Enqueuer interface {
	EnqueueBriefing(ctx context.Context, payload queue.BriefingPayload) (string, error)
	Status(ctx context.Context, id string) (*queue.Status, error)
}

type BriefingHandler struct {
	service Generator
	queue   Enqueuer
}

// NewBriefingHandler builds the handler. A nil queue disables the async
// endpoints.
func NewBriefingHandler(s Generator, q Enqueuer) *BriefingHandler {
	return &BriefingHandler{service: s, queue: q}
}

// Generate runs a briefing inline and answers with the MP3 bytes.
func (h *BriefingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	// A dropped client does not abort research already in flight.
	res, err := h.service.Generate(context.WithoutCancel(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := res.Audio.Bytes()
	if err != nil {
		writeError(w, apperr.Op(apperr.Synthesis, "audio generation failed", err))
		return
	}

	w.Header().Set("Content-Type", tts.MediaType)
	w.Header().Set("Content-Disposition", "attachment; filename="+tts.DownloadFilename)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Briefing-ID", res.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("write audio response", "briefing_id", res.ID, "error", err)
	}
}

// Enqueue validates the body and hands it to the worker.
func (h *BriefingHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "async briefings unavailable"})
		return
	}
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if _, _, err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.queue.EnqueueBriefing(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "queue": queue.QueueDefault})
}

func (h *BriefingHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "async briefings unavailable"})
		return
	}

	status, err := h.queue.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (briefing.Request, bool) {
	var req briefing.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

// writeError maps validation failures to 422 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if apperr.Is(err, apperr.Validation) {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
