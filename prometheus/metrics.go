package prometheus

import (
	"net/http"
	"time"

	"github.com/code/app-dub-agpl/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Workspace metrics
	WorkspaceOperationsCounter prometheus.CounterVec

	// Partner directory metrics
	PartnerSearchCounter prometheus.Counter

	// Asset cleanup metrics
	AssetCleanupQueuedCounter    prometheus.Counter
	AssetCleanupProcessedCounter prometheus.CounterVec
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

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Workspace metrics
	WorkspaceOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of workspace operations",
		},
		[]string{"operation"},
	)

	// Partner directory metrics
	PartnerSearchCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_partner_searches_total",
			Help: "Total number of partner directory searches",
		},
	)

	// Asset cleanup metrics
	AssetCleanupQueuedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_asset_cleanup_queued_total",
			Help: "Total number of asset cleanup tasks queued",
		},
	)

	AssetCleanupProcessedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_asset_cleanup_processed_total",
			Help: "Total number of asset cleanup tasks processed",
		},
		[]string{"status"},
	)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordWorkspaceOperation increments the counter for workspace operations
func RecordWorkspaceOperation(operation string) {
	WorkspaceOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordAssetCleanup increments the processed counter with the task outcome
func RecordAssetCleanup(status string) {
	AssetCleanupProcessedCounter.WithLabelValues(status).Inc()
}
