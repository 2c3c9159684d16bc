package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/briefing"
)

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

// Generator is the slice of briefing.Service the worker needs.
type Generator interface {
	GenerateWithID(ctx context.Context, id string, req briefing.Request) (*briefing.Result, error)
}

type BriefingWorker struct {
	service Generator
}

func NewBriefingWorker(s Generator) *BriefingWorker {
	return &BriefingWorker{service: s}
}

// ProcessTask runs one briefing under the task id. Malformed payloads and
// validation failures are not retried.
func (w *BriefingWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload BriefingPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	id, ok := asynq.GetTaskID(ctx)
	if !ok {
		id = uuid.NewString()
	}
	slog.Info("processing briefing task", "briefing_id", id, "topics", len(payload.Topics))

	res, err := w.service.GenerateWithID(ctx, id, payload)
	if err != nil {
		if apperr.Is(err, apperr.Validation) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	out := BriefingResult{
		ID:        res.ID,
		Script:    res.Script,
		Research:  res.Research,
		ElapsedMs: res.ElapsedMs,
	}
	if res.Audio != nil {
		out.AudioPath = res.Audio.Path
		out.AudioSize = res.Audio.Size
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if rw := t.ResultWriter(); rw != nil {
		if _, err := rw.Write(data); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}
