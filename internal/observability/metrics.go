// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Holdings metrics
	ReconciliationRuns     *prometheus.CounterVec
	ReconciliationDuration prometheus.Histogram
	TransferEventsReplayed prometheus.Counter
	HoldingsPruned         prometheus.Counter

	// Metadata metrics
	MetadataResolutions *prometheus.CounterVec
	GatewayAttempts     *prometheus.CounterVec
	GatewayLatency      *prometheus.HistogramVec

	// Ownership metrics
	OwnershipChecks  *prometheus.CounterVec
	ChainCallLatency *prometheus.HistogramVec

	// Cache metrics
	CacheHits              *prometheus.CounterVec
	CacheMisses            *prometheus.CounterVec
	CacheKeysInvalidated   prometheus.Counter
	InvalidationIncomplete prometheus.Counter

	// Transfer metrics
	TransferTransitions *prometheus.CounterVec

	// Health metrics
	LastSuccessfulReconciliation prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "marketplace"
	}

	return &Metrics{
		// Holdings metrics
		ReconciliationRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holdings",
			Name:      "reconciliation_runs_total",
			Help:      "Total number of holdings reconciliation runs by source",
		}, []string{"source", "status"}),
		ReconciliationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "holdings",
			Name:      "reconciliation_duration_seconds",
			Help:      "Holdings reconciliation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TransferEventsReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holdings",
			Name:      "transfer_events_replayed_total",
			Help:      "Total number of transfer events replayed into holdings",
		}),
		HoldingsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holdings",
			Name:      "pruned_total",
			Help:      "Total number of stale holdings rows pruned",
		}),

		// Metadata metrics
		MetadataResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "resolutions_total",
			Help:      "Total number of metadata resolutions by outcome",
		}, []string{"outcome"}),
		GatewayAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "gateway_attempts_total",
			Help:      "Total number of gateway fetch attempts by gateway and result",
		}, []string{"gateway", "result"}),
		GatewayLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "gateway_latency_seconds",
			Help:      "Gateway fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"gateway"}),

		// Ownership metrics
		OwnershipChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ownership",
			Name:      "checks_total",
			Help:      "Total number of ownership checks by strategy and result",
		}, []string{"strategy", "result"}),
		ChainCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "rpc_call_latency_seconds",
			Help:      "Chain RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by namespace",
		}, []string{"namespace"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses by namespace",
		}, []string{"namespace"}),
		CacheKeysInvalidated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "keys_invalidated_total",
			Help:      "Total number of cache keys deleted by invalidation",
		}),
		InvalidationIncomplete: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidation_incomplete_total",
			Help:      "Total number of invalidation passes that left keys behind",
		}),

		// Transfer metrics
		TransferTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "transitions_total",
			Help:      "Total number of transfer status transitions",
		}, []string{"status"}),

		// Health metrics
		LastSuccessfulReconciliation: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_reconciliation_timestamp",
			Help:      "Unix timestamp of last successful holdings reconciliation",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordReconciliation records one holdings reconciliation run.
func RecordReconciliation(source, status string, durationSeconds float64) {
	DefaultMetrics.ReconciliationRuns.WithLabelValues(source, status).Inc()
	DefaultMetrics.ReconciliationDuration.Observe(durationSeconds)
}

// RecordEventsReplayed adds to the replayed-event counter.
func RecordEventsReplayed(n int) {
	DefaultMetrics.TransferEventsReplayed.Add(float64(n))
}

// RecordMetadataResolution records a metadata resolution outcome.
func RecordMetadataResolution(outcome string) {
	DefaultMetrics.MetadataResolutions.WithLabelValues(outcome).Inc()
}

// RecordGatewayAttempt records one gateway fetch attempt.
func RecordGatewayAttempt(gateway, result string, seconds float64) {
	DefaultMetrics.GatewayAttempts.WithLabelValues(gateway, result).Inc()
	DefaultMetrics.GatewayLatency.WithLabelValues(gateway).Observe(seconds)
}

// RecordOwnershipCheck records one ownership check.
func RecordOwnershipCheck(strategy, result string) {
	DefaultMetrics.OwnershipChecks.WithLabelValues(strategy, result).Inc()
}

// RecordChainCallLatency records chain RPC call latency.
func RecordChainCallLatency(method string, seconds float64) {
	DefaultMetrics.ChainCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordCacheHit increments the cache hit counter for a namespace.
func RecordCacheHit(namespace string) {
	DefaultMetrics.CacheHits.WithLabelValues(namespace).Inc()
}

// RecordCacheMiss increments the cache miss counter for a namespace.
func RecordCacheMiss(namespace string) {
	DefaultMetrics.CacheMisses.WithLabelValues(namespace).Inc()
}

// RecordInvalidation records the result of one invalidation pass.
func RecordInvalidation(deleted int, incomplete bool) {
	DefaultMetrics.CacheKeysInvalidated.Add(float64(deleted))
	if incomplete {
		DefaultMetrics.InvalidationIncomplete.Inc()
	}
}

// RecordTransferTransition records a transfer status transition.
func RecordTransferTransition(status string) {
	DefaultMetrics.TransferTransitions.WithLabelValues(status).Inc()
}
