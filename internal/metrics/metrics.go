package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rongsox"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Background job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of jobs processed",
		},
		[]string{"type", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Job execution time distribution",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"type"},
	)

	JobsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_in_flight",
			Help:      "Jobs currently being processed",
		},
		[]string{"type"},
	)

	JobRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_retries_total",
			Help:      "Total number of job retry attempts",
		},
		[]string{"type"},
	)
)

// List cache metrics
var (
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_cache_lookups_total",
			Help:      "List cache lookups by entity kind and result",
		},
		[]string{"kind", "result"}, // "hit", "miss", "shared", "error"
	)

	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_cache_invalidations_total",
			Help:      "List cache invalidations by entity kind",
		},
		[]string{"kind"},
	)

	CacheStaleWritesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_cache_stale_writes_skipped_total",
			Help:      "Fetched pages discarded because the kind was invalidated mid-flight",
		},
		[]string{"kind"},
	)
)

// Backend REST metrics
var (
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests sent to the REST backend",
		},
		[]string{"op", "status_code"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "REST backend latency distribution",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	BackendBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_breaker_state",
			Help:      "Backend circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)
)

// Business metrics
var (
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result",
		},
		[]string{"result"},
	)

	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Create, update and status toggle submissions by entity kind and result",
		},
		[]string{"kind", "action", "result"},
	)

	ReceiptsArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_archived_total",
			Help:      "Withdrawal receipts stored before forwarding",
		},
	)
)
