package queue

import (
	"encoding/json"
	"time"

	"github.com/nikhilbhutani/newscast/internal/briefing"
	"github.com/nikhilbhutani/newscast/internal/research"
)

const (
	TypeBriefingGenerate = "briefing:generate"

	QueueDefault = "default"
)

// BriefingPayload is the request body as submitted to POST /briefings.
type BriefingPayload = briefing.Request

// BriefingResult is written through the task result writer once the audio
// file exists.
type BriefingResult struct {
	ID        string              `json:"id"`
	AudioPath string              `json:"audio_path"`
	AudioSize int64               `json:"audio_size"`
	Script    string              `json:"script"`
	Research  *research.Aggregate `json:"research"`
	ElapsedMs int64               `json:"elapsed_ms"`
}

// Status is the public view of a queued briefing.
type Status struct {
	ID          string          `json:"id"`
	State       string          `json:"state"`
	Retried     int             `json:"retried"`
	LastError   string          `json:"last_error,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}
