package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/newscast/internal/config"
)

// ErrNotFound is returned by Status for ids the queue does not know, including
// results whose retention expired.
var ErrNotFound = errors.New("briefing not found")

const (
	briefingRetention = 24 * time.Hour
	briefingTimeout   = 30 * time.Minute
	briefingRetries   = 2
)

type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewClient(cfg config.RedisConfig) *Client {
	opt := redisOpt(cfg)
	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}
}

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// ServerOpt exposes the connection settings for the worker process.
func ServerOpt(cfg config.RedisConfig) asynq.RedisConnOpt { return redisOpt(cfg) }

func (c *Client) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close())
}

// EnqueueBriefing schedules one briefing and returns its id. The id is also
// the briefing id the worker logs under.
func (c *Client) EnqueueBriefing(ctx context.Context, payload BriefingPayload) (string, error) {
	return c.enqueue(ctx, TypeBriefingGenerate, payload,
		asynq.TaskID(uuid.NewString()),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(briefingRetries),
		asynq.Timeout(briefingTimeout),
		asynq.Retention(briefingRetention),
	)
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return info.ID, nil
}

// Status looks up a briefing task in the default queue.
func (c *Client) Status(_ context.Context, id string) (*Status, error) {
	info, err := c.inspector.GetTaskInfo(QueueDefault, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("inspect task %s: %w", id, err)
	}
	return statusOf(info), nil
}

func statusOf(info *asynq.TaskInfo) *Status {
	s := &Status{
		ID:        info.ID,
		State:     info.State.String(),
		Retried:   info.Retried,
		LastError: info.LastErr,
	}
	if !info.CompletedAt.IsZero() {
		completed := info.CompletedAt
		s.CompletedAt = &completed
	}
	if len(info.Result) > 0 && json.Valid(info.Result) {
		s.Result = json.RawMessage(info.Result)
	}
	return s
}
