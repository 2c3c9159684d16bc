package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Research metrics
	TopicsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newscast_topics_processed_total",
			Help: "Topics processed per pipeline, by outcome",
		},
		[]string{"pipeline", "outcome"},
	)

	PipelineRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newscast_pipeline_retries_total",
			Help: "Retry attempts scheduled per pipeline",
		},
		[]string{"pipeline"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newscast_pipeline_duration_seconds",
			Help:    "Wall time of one pipeline run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"pipeline"},
	)

	LimiterWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newscast_limiter_wait_seconds",
			Help:    "Time spent waiting for a rate limiter permit",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30},
		},
		[]string{"pipeline"},
	)

	// Proxy metrics
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newscast_fetch_duration_seconds",
			Help:    "Web unlocker request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	FetchCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newscast_fetch_cache_total",
			Help: "Fetch cache lookups by result",
		},
		[]string{"result"},
	)

	// Briefing metrics
	Briefings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newscast_briefings_total",
			Help: "Briefings generated, by status",
		},
		[]string{"status"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func RecordTopic(pipeline string, err error) {
	TopicsProcessed.WithLabelValues(pipeline, status(err)).Inc()
}

func RecordRetry(pipeline string) {
	PipelineRetries.WithLabelValues(pipeline).Inc()
}

func ObservePipeline(pipeline string, d time.Duration) {
	PipelineDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}

func ObserveLimiterWait(pipeline string, d time.Duration) {
	LimiterWait.WithLabelValues(pipeline).Observe(d.Seconds())
}

func ObserveFetch(d time.Duration, err error) {
	FetchDuration.WithLabelValues(status(err)).Observe(d.Seconds())
}

func RecordCacheLookup(hit bool) {
	if hit {
		FetchCacheHits.WithLabelValues("hit").Inc()
		return
	}
	FetchCacheHits.WithLabelValues("miss").Inc()
}

func RecordBriefing(err error) {
	Briefings.WithLabelValues(status(err)).Inc()
}
