package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilbhutani/newscast/internal/api"
	"github.com/nikhilbhutani/newscast/internal/app"
	"github.com/nikhilbhutani/newscast/internal/cache"
	"github.com/nikhilbhutani/newscast/internal/config"
	"github.com/nikhilbhutani/newscast/internal/logging"
	"github.com/nikhilbhutani/newscast/internal/queue"
)

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

	deps := api.Deps{Service: a.Service}
	// Async briefings need Redis; without it only the inline endpoint works.
	if a.Redis != nil {
		q := queue.NewClient(cfg.Redis)
		defer q.Close()
		deps.Queue = q
		deps.Redis = cache.NewCache(a.Redis, "newscast:")
	}

	router := api.NewRouter(deps)
	defer router.Close()

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router.Setup(),
		ReadTimeout: 15 * time.Second,
		// Inline generation waits on every rate-limited topic and TTS streaming.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
