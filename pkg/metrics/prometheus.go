// Package metrics provides Prometheus metrics for the verdict
// evaluation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the verdict service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Evaluation pipeline metrics
	submissionsCreated   prometheus.Counter
	submissionsFinalized *prometheus.CounterVec
	evaluationLatency    prometheus.Histogram
	manualScores         prometheus.Counter
	fileUploads          prometheus.Counter
	fileRejections       *prometheus.CounterVec

	// Judge engine metrics
	judgeLatency prometheus.Histogram
	judgeErrors  *prometheus.CounterVec

	// Record store metrics
	storeWriteLatency prometheus.Histogram
	totalSubmissions  prometheus.Gauge

	// Leaderboard metrics
	leaderboardAccepts     prometheus.Counter
	snapshotRebuildLatency prometheus.Histogram
	contestFrozen          *prometheus.GaugeVec

	// Realtime fan-out metrics
	broadcasts      prometheus.Counter
	broadcastDrops  prometheus.Counter
	subscriberCount *prometheus.GaugeVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "verdict",
		subsystem:        "evaluation",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Evaluation pipeline metrics
	m.submissionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_created_total",
		Help:      "Total number of submissions recorded",
	})

	m.submissionsFinalized = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_finalized_total",
		Help:      "Total number of submissions reaching a terminal status",
	}, []string{"status"})

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_latency_milliseconds",
		Help:      "Histogram of full evaluation latency in milliseconds, judge round-trip included",
		Buckets:   m.histogramBuckets,
	})

	m.manualScores = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "manual_scores_total",
		Help:      "Total number of manual score assignments by judge actors",
	})

	m.fileUploads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "file_uploads_total",
		Help:      "Total number of accepted file submissions",
	})

	m.fileRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "file_rejections_total",
		Help:      "Total number of rejected file submissions",
	}, []string{"reason"})

	// Judge engine metrics
	m.judgeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "judge_latency_milliseconds",
		Help:      "Histogram of judge engine round-trip latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.judgeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "judge_errors_total",
		Help:      "Total number of judge engine failures",
	}, []string{"kind"})

	// Record store metrics
	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_latency_milliseconds",
		Help:      "Histogram of record store write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.totalSubmissions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_submissions",
		Help:      "Total number of visible submissions in the record store",
	})

	// Leaderboard metrics
	m.leaderboardAccepts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_accepts_total",
		Help:      "Total number of submissions accepted into a leaderboard",
	})

	m.snapshotRebuildLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_rebuild_latency_milliseconds",
		Help:      "Histogram of leaderboard snapshot rebuild latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.contestFrozen = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "contest_frozen",
		Help:      "Whether a contest's leaderboard is currently frozen (1) or live (0)",
	}, []string{"contest"})

	// Realtime fan-out metrics
	m.broadcasts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcasts_total",
		Help:      "Total number of leaderboard snapshots broadcast to viewers",
	})

	m.broadcastDrops = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_drops_total",
		Help:      "Total number of updates dropped on slow subscribers",
	})

	m.subscriberCount = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subscriber_count",
		Help:      "Current number of realtime subscribers per contest",
	}, []string{"contest"})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	// Enhanced Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total number of errors by component",
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Total number of errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total number of errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "error_latency_milliseconds",
		Help:      "Histogram of latency for failed operations in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"component", "error_type"})

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordSubmissionCreated increments the submissions created counter.
func RecordSubmissionCreated() {
	globalManager.submissionsCreated.Inc()
}

// RecordSubmissionFinalized increments the finalized counter for a terminal status.
func RecordSubmissionFinalized(status string) {
	globalManager.submissionsFinalized.WithLabelValues(status).Inc()
}

// RecordEvaluationLatency records full evaluation latency in milliseconds.
func RecordEvaluationLatency(latencyMs float64) {
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordManualScore increments the manual score counter.
func RecordManualScore() {
	globalManager.manualScores.Inc()
}

// RecordFileUpload increments the accepted file submission counter.
func RecordFileUpload() {
	globalManager.fileUploads.Inc()
}

// RecordFileRejected increments the rejected file submission counter.
func RecordFileRejected(reason string) {
	globalManager.fileRejections.WithLabelValues(reason).Inc()
}

// RecordJudgeLatency records judge round-trip latency in milliseconds.
func RecordJudgeLatency(latencyMs float64) {
	globalManager.judgeLatency.Observe(latencyMs)
}

// RecordJudgeError increments the judge failure counter for a kind.
func RecordJudgeError(kind string) {
	globalManager.judgeErrors.WithLabelValues(kind).Inc()
}

// RecordStoreWriteLatency records record store write latency in milliseconds.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// UpdateTotalSubmissions updates the visible submission gauge.
func UpdateTotalSubmissions(count int) {
	globalManager.totalSubmissions.Set(float64(count))
}

// RecordLeaderboardAccept increments the leaderboard accept counter.
func RecordLeaderboardAccept() {
	globalManager.leaderboardAccepts.Inc()
}

// RecordSnapshotRebuildLatency records snapshot rebuild latency in milliseconds.
func RecordSnapshotRebuildLatency(latencyMs float64) {
	globalManager.snapshotRebuildLatency.Observe(latencyMs)
}

// UpdateContestFrozen updates the per-contest freeze gauge.
func UpdateContestFrozen(contestID string, frozen bool) {
	v := 0.0
	if frozen {
		v = 1.0
	}
	globalManager.contestFrozen.WithLabelValues(contestID).Set(v)
}

// RecordBroadcast increments the broadcast counter.
func RecordBroadcast() {
	globalManager.broadcasts.Inc()
}

// RecordBroadcastDrop increments the dropped-update counter.
func RecordBroadcastDrop() {
	globalManager.broadcastDrops.Inc()
}

// UpdateSubscriberCount updates the per-contest subscriber gauge.
func UpdateSubscriberCount(contestID string, count int) {
	globalManager.subscriberCount.WithLabelValues(contestID).Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records latency for a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage updates the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records average GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry for exposition.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
