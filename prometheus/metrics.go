package prometheus

import (
	"time"

	"catalog-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Store operation metrics
	StoreOperationDuration prometheus.HistogramVec

	// Product metrics
	ProductOperationsCounter prometheus.CounterVec

	// Fallback metrics: which store ultimately served each operation
	StoreFallbackCounter prometheus.CounterVec

	// Mirror metrics: best-effort writes to the secondary store that failed
	MirrorFailuresCounter prometheus.CounterVec

	// Fill-on-miss metrics
	CacheFillCounter prometheus.CounterVec

	// Sync metrics
	SyncItemsCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Store operation duration, labeled by store (database/api) and operation
	StoreOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_store_operation_duration_seconds",
			Help:    "Duration of product store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation"},
	)

	// Product metrics
	ProductOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	// Fallback metrics
	StoreFallbackCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_store_served_total",
			Help: "Which store ultimately served each product operation",
		},
		[]string{"operation", "source"},
	)

	// Mirror failure metrics
	MirrorFailuresCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_mirror_failures_total",
			Help: "Best-effort mirror writes to the secondary store that failed",
		},
		[]string{"operation"},
	)

	// Fill-on-miss metrics
	CacheFillCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_cache_fill_total",
			Help: "Primary-store fills triggered by secondary-store reads",
		},
		[]string{"result"},
	)

	// Sync metrics
	SyncItemsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_sync_items_total",
			Help: "Per-item results of bulk synchronization runs",
		},
		[]string{"result"},
	)
}

// TrackStoreOperation returns a function that records the duration of a store operation
func TrackStoreOperation(store, operation string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		StoreOperationDuration.WithLabelValues(store, operation).Observe(duration)
	}
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordStoreServed records which store served an operation
func RecordStoreServed(operation, source string) {
	StoreFallbackCounter.WithLabelValues(operation, source).Inc()
}

// RecordMirrorFailure increments the counter for failed mirror writes
func RecordMirrorFailure(operation string) {
	MirrorFailuresCounter.WithLabelValues(operation).Inc()
}

// RecordCacheFill records the outcome of a fill-on-miss insert
func RecordCacheFill(result string) {
	CacheFillCounter.WithLabelValues(result).Inc()
}

// RecordSyncItem records a per-item sync result
func RecordSyncItem(result string) {
	SyncItemsCounter.WithLabelValues(result).Inc()
}
