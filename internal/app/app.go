// Package app builds the briefing stack from configuration. Each process
// that calls New gets its own rate limiters.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/newscast/internal/briefing"
	"github.com/nikhilbhutani/newscast/internal/broadcast"
	"github.com/nikhilbhutani/newscast/internal/cache"
	"github.com/nikhilbhutani/newscast/internal/config"
	"github.com/nikhilbhutani/newscast/internal/forum"
	"github.com/nikhilbhutani/newscast/internal/llm"
	"github.com/nikhilbhutani/newscast/internal/research"
	"github.com/nikhilbhutani/newscast/internal/tts"
	"github.com/nikhilbhutani/newscast/internal/unlocker"
)

type App struct {
	Config   *config.Config
	Redis    *redis.Client // nil when Redis did not answer at startup
	Fetcher  research.Fetcher
	Service  *briefing.Service
	Limiters research.Limiters
}

// New wires every collaborator. Redis is optional; without it the fetch
// cache stays off.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		slog.Warn("configuration incomplete", "error", err)
	}

	a := &App{Config: cfg}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
		_ = rdb.Close()
	} else {
		a.Redis = rdb
	}

	gw := llm.NewGateway(cfg.LLM)
	summarizer := llm.NewSummarizer(gw, cfg.LLM.SummaryProvider, cfg.LLM.SummaryModel)

	a.Fetcher = unlocker.NewClient(cfg.Proxy)
	if a.Redis != nil && cfg.Cache.FetchTTL > 0 {
		a.Fetcher = cache.NewCachedFetcher(a.Fetcher, cache.NewCache(a.Redis, "newscast:"), cfg.Cache.FetchTTL)
		slog.Info("fetch cache enabled", "ttl", cfg.Cache.FetchTTL)
	}

	synth, err := tts.New(cfg.TTS)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("speech synthesizer: %w", err)
	}

	unit := cfg.Research.TimeUnit
	a.Limiters = research.NewLimiters(unit)
	orch := research.NewOrchestrator(
		research.NewNewsPipeline(a.Fetcher, summarizer, a.Limiters.News, unit),
		research.NewForumPipeline(
			forum.NewFactory(forum.StdioConnector(cfg.ToolServer), gw, cfg.Agent),
			summarizer, a.Limiters.Forum, unit, cfg.Research.LookbackDays,
		),
	)

	a.Service = briefing.NewService(orch, broadcast.NewComposer(summarizer), synth)
	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Warn("close redis", "error", err)
		}
	}
}
