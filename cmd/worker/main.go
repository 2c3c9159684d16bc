package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/newscast/internal/app"
	"github.com/nikhilbhutani/newscast/internal/config"
	"github.com/nikhilbhutani/newscast/internal/logging"
	"github.com/nikhilbhutani/newscast/internal/queue"
)

// Briefings contend for the same permit pools, so more concurrency only
// adds queueing inside the limiters.
const concurrency = 2

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.Logging.Level))

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to build briefing service", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := asynq.NewServer(
		queue.ServerOpt(cfg.Redis),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				queue.QueueDefault: 1,
			},
			Logger: asynqLogger{},
		},
	)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeBriefingGenerate, asynq.HandlerFunc(queue.NewBriefingWorker(a.Service).ProcessTask))

	slog.Info("starting worker", "concurrency", concurrency)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}

// asynqLogger routes asynq's own logs through the default slog logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { slog.Debug(sprint(args)) }
func (asynqLogger) Info(args ...interface{})  { slog.Info(sprint(args)) }
func (asynqLogger) Warn(args ...interface{})  { slog.Warn(sprint(args)) }
func (asynqLogger) Error(args ...interface{}) { slog.Error(sprint(args)) }
func (asynqLogger) Fatal(args ...interface{}) {
	slog.Error(sprint(args))
	os.Exit(1)
}

func sprint(args []interface{}) string { return fmt.Sprint(args...) }
