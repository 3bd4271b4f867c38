// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog client
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieflip_catalog_requests_total",
			Help: "Catalog API calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, error, unauthorized, rejected
	)

	CatalogDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movieflip_catalog_request_duration_seconds",
			Help:    "Catalog API call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movieflip_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieflip_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Swipe queue
	QueueRefills = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieflip_queue_refills_total",
			Help: "Refill batches by outcome",
		},
		[]string{"outcome"}, // ok, error, stale
	)

	QueueRefillJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movieflip_queue_refill_joins_total",
			Help: "Refill requests that joined a batch already in flight",
		},
	)

	QueueBuffered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movieflip_queue_buffered_items",
			Help: "Candidates currently buffered in the swipe queue",
		},
	)

	// Session
	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieflip_decisions_total",
			Help: "Decisions by type (like, dislike, watched, bookmark, skip, back)",
		},
		[]string{"type"},
	)

	RecommendationRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieflip_recommendation_refreshes_total",
			Help: "Recommendation refreshes by outcome",
		},
		[]string{"outcome"}, // ranked, gated, error
	)

	EnrichCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieflip_enrich_cache_total",
			Help: "Enrichment cache lookups",
		},
		[]string{"kind", "result"}, // result: hit, miss
	)

	// HTTP API
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieflip_http_requests_total",
			Help: "HTTP requests by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movieflip_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveCatalog records one catalog call.
func ObserveCatalog(endpoint, outcome string, started time.Time) {
	CatalogRequests.WithLabelValues(endpoint, outcome).Inc()
	CatalogDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}
