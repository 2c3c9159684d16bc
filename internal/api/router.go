package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhilbhutani/newscast/internal/api/handlers"
	"github.com/nikhilbhutani/newscast/internal/api/middleware"
)

// Deps are the services behind the HTTP surface. Queue and Redis may be nil.
type Deps struct {
	Service handlers.Generator
	Queue   handlers.Enqueuer
	Redis   handlers.Pinger
}

type Router struct {
	mux     *chi.Mux
	deps    Deps
	limiter *middleware.RateLimiter
}

func NewRouter(deps Deps) *Router {
	return &Router{
		mux:     chi.NewRouter(),
		deps:    deps,
		limiter: middleware.NewRateLimiter(10, 20),
	}
}

// Close stops the rate limiter's background eviction.
func (rt *Router) Close() {
	rt.limiter.Stop()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	health := handlers.NewHealthHandler(rt.deps.Redis)
	r.Get("/", health.Root)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	briefings := handlers.NewBriefingHandler(rt.deps.Service, rt.deps.Queue)
	r.Group(func(r chi.Router) {
		r.Use(rt.limiter.Limit)

		r.Post("/generate-news-audio", briefings.Generate)
		r.Post("/briefings", briefings.Enqueue)
		r.Get("/briefings/{id}", briefings.Status)
	})

	return r
}
