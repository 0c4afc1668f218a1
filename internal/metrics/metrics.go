package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wazuhgate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wazuhgate_http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "endpoint"},
	)

	HTTPSlowRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_http_slow_requests_total",
			Help: "Requests that exceeded the slow-request threshold",
		},
		[]string{"method", "endpoint"},
	)

	HTTPTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_http_timeouts_total",
			Help: "Requests cancelled by the hard request timeout",
		},
		[]string{"method", "endpoint"},
	)

	// Ingest metrics
	IngestEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_ingest_events_total",
			Help: "Total number of events received",
		},
		[]string{"endpoint", "status"}, // status: accepted, rejected
	)

	IngestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wazuhgate_ingest_batch_size",
			Help:    "Size of event batches received",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	IngestValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_ingest_validation_errors_total",
			Help: "Total number of validation errors",
		},
		[]string{"endpoint"},
	)

	// Forwarder metrics
	ForwardTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_forward_total",
			Help: "Total number of events forwarded to the agent socket",
		},
		[]string{"status"}, // status: success, socket_unavailable, message_too_large, transport_error, unexpected
	)

	ForwardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wazuhgate_forward_duration_seconds",
			Help:    "Time taken to deliver one event to the agent socket",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	ForwardBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wazuhgate_forward_bytes_written_total",
			Help: "Total bytes written to the agent socket",
		},
	)

	// Defense metrics
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_auth_failures_total",
			Help: "Total number of rejected authentication attempts",
		},
		[]string{"reason"}, // reason: missing, invalid
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_ratelimit_rejections_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
		[]string{"endpoint"},
	)

	PayloadRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_payload_rejections_total",
			Help: "Requests rejected for exceeding the declared payload ceiling",
		},
		[]string{"endpoint"},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wazuhgate_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
