// Package metrics holds the prometheus collectors shared by the pipeline,
// the snapshot cache and the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline run outcomes.
const (
	OutcomeReady             = "ready"
	OutcomeEmpty             = "empty"
	OutcomeSourceUnavailable = "source_unavailable"
	OutcomeTableNotFound     = "table_not_found"
)

// Cache events.
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheInvalidate = "invalidate"
	CacheError      = "error"
)

var (
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_pipeline_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"outcome"},
	)
	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskboard_fetch_duration_seconds",
			Help:    "Time spent fetching rows from the source",
			Buckets: prometheus.DefBuckets,
		},
	)
	CellParseFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskboard_cell_parse_failures_total",
			Help: "Date cells nulled because they could not be parsed",
		},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_cache_events_total",
			Help: "Snapshot cache hits, misses and invalidations",
		},
		[]string{"event"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)

func init() {
	prometheus.MustRegister(PipelineRuns)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(CellParseFailures)
	prometheus.MustRegister(CacheEvents)
	prometheus.MustRegister(HTTPRequests)
}
