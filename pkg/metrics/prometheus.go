// Package metrics provides Prometheus metrics for the case distribution service.
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

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - What really matters for case distribution
	casesAssigned   prometheus.Counter
	casesCompleted  prometheus.Counter
	casesPruned     prometheus.Counter
	redistributions prometheus.Counter

	// Sync Cycle Metrics - The upstream polling loop
	syncCycles         prometheus.Counter
	syncErrors         prometheus.Counter
	syncDuration       prometheus.Histogram
	syncLastUnix       prometheus.Gauge
	syncLastDurationMs prometheus.Gauge

	// Snapshot Metrics - Read-side snapshot timings
	snapshotCount          prometheus.Counter
	snapshotErrors         prometheus.Counter
	snapshotDuration       prometheus.Histogram
	snapshotLastUnix       prometheus.Gauge
	snapshotLastDurationMs prometheus.Gauge

	// Operational Health Metrics
	analystsTotal   prometheus.Gauge
	analystsOnline  prometheus.Gauge
	openAssignments prometheus.Gauge
	externalPending prometheus.Gauge

	// Trigger Bus Metrics - Background sync/refresh trigger queue
	triggersEnqueued  prometheus.Counter
	triggersDropped   prometheus.Counter
	triggersProcessed prometheus.Counter
	triggerQueueDepth prometheus.Gauge
	triggerLatency    prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Business Quality Metrics
	loginFailures        prometheus.Counter
	duplicateSubmissions prometheus.Counter

	// Enhanced Error Metrics - Detailed error tracking
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
		namespace:        "fila",
		subsystem:        "distribuidor",
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

	// Core Business Metrics
	m.casesAssigned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cases_assigned_total",
		Help:      "Total number of cases dealt to analysts",
	})

	m.casesCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cases_completed_total",
		Help:      "Total number of cases marked complete by analysts",
	})

	m.casesPruned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cases_pruned_total",
		Help:      "Total number of assignments removed because the case left the upstream queue",
	})

	m.redistributions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "redistributions_total",
		Help:      "Total number of full desk redistributions",
	})

	// Sync Cycle Metrics
	m.syncCycles = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_cycles_total",
		Help:      "Total number of completed upstream sync cycles",
	})

	m.syncErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_errors_total",
		Help:      "Total number of failed category fetches during sync",
	})

	m.syncDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_duration_milliseconds",
		Help:      "Sync cycle duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.syncLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_last_unix",
		Help:      "Unix timestamp of the last completed sync cycle",
	})

	m.syncLastDurationMs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_last_duration_milliseconds",
		Help:      "Last sync cycle duration in milliseconds",
	})

	// Snapshot Metrics
	m.snapshotCount = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_count_total",
		Help:      "Total number of read-side snapshots published",
	})

	m.snapshotErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_errors_total",
		Help:      "Total number of failed snapshot rebuilds",
	})

	m.snapshotDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_rebuild_duration_milliseconds",
		Help:      "Snapshot rebuild duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_last_unix",
		Help:      "Unix timestamp of the last snapshot publish",
	})

	m.snapshotLastDurationMs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_last_duration_milliseconds",
		Help:      "Last snapshot rebuild duration in milliseconds",
	})

	// Operational Health Metrics
	m.analystsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysts_total",
		Help:      "Total number of registered analysts",
	})

	m.analystsOnline = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysts_online",
		Help:      "Number of analysts currently online",
	})

	m.openAssignments = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_assignments",
		Help:      "Number of cases currently sitting on analyst desks",
	})

	m.externalPending = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "external_pending",
		Help:      "Number of pending cases reported by the upstream system",
	})

	// Trigger Bus Metrics
	m.triggersEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triggers_enqueued_total",
		Help:      "Total number of sync/refresh triggers accepted by the trigger queue",
	})

	m.triggersDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triggers_dropped_total",
		Help:      "Total number of triggers dropped because the queue was full or closed",
	})

	m.triggersProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triggers_processed_total",
		Help:      "Total number of triggers drained and executed by the trigger worker",
	})

	m.triggerQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_queue_depth",
		Help:      "Current number of triggers waiting in the queue",
	})

	m.triggerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trigger_latency_milliseconds",
		Help:      "Time from trigger enqueue to the end of its execution",
		Buckets:   m.histogramBuckets,
	})

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Business Quality Metrics
	m.loginFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "login_failures_total",
		Help:      "Total number of rejected login attempts",
	})

	m.duplicateSubmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_submissions_total",
		Help:      "Total number of duplicate one-shot submissions rejected",
	})

	// Enhanced Error Metrics - Detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of errors by type",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of operations that resulted in errors",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

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

// RecordCaseAssigned increments the assigned cases counter.
func RecordCaseAssigned() {
	globalManager.casesAssigned.Inc()
}

// RecordCaseCompleted increments the completed cases counter.
func RecordCaseCompleted() {
	globalManager.casesCompleted.Inc()
}

// RecordCasesPruned adds to the pruned assignments counter.
func RecordCasesPruned(count int) {
	globalManager.casesPruned.Add(float64(count))
}

// RecordRedistribution increments the redistributions counter.
func RecordRedistribution() {
	globalManager.redistributions.Inc()
}

// Sync Cycle Metrics Functions.

// RecordSyncCycle increments the sync cycle counter and stamps the time.
func RecordSyncCycle() {
	globalManager.syncCycles.Inc()
	globalManager.syncLastUnix.Set(float64(time.Now().Unix()))
}

// RecordSyncError increments the sync error counter.
func RecordSyncError() {
	globalManager.syncErrors.Inc()
}

// RecordSyncDuration records a sync cycle duration in milliseconds.
func RecordSyncDuration(durationMs float64) {
	globalManager.syncDuration.Observe(durationMs)
	globalManager.syncLastDurationMs.Set(durationMs)
}

// Snapshot Metrics Functions.

// RecordSnapshotRefresh increments the snapshot counter and stamps the time.
func RecordSnapshotRefresh() {
	globalManager.snapshotCount.Inc()
	globalManager.snapshotLastUnix.Set(float64(time.Now().Unix()))
}

// RecordSnapshotError increments the snapshot error counter.
func RecordSnapshotError() {
	globalManager.snapshotErrors.Inc()
}

// RecordSnapshotDuration records a snapshot rebuild duration in milliseconds.
func RecordSnapshotDuration(durationMs float64) {
	globalManager.snapshotDuration.Observe(durationMs)
	globalManager.snapshotLastDurationMs.Set(durationMs)
}

// Operational Health Metrics Functions.

// UpdateAnalystsTotal sets the registered analyst count.
func UpdateAnalystsTotal(count int) {
	globalManager.analystsTotal.Set(float64(count))
}

// UpdateAnalystsOnline sets the online analyst count.
func UpdateAnalystsOnline(count int) {
	globalManager.analystsOnline.Set(float64(count))
}

// UpdateOpenAssignments sets the open assignment count.
func UpdateOpenAssignments(count int) {
	globalManager.openAssignments.Set(float64(count))
}

// UpdateExternalPending sets the upstream pending case count.
func UpdateExternalPending(count int) {
	globalManager.externalPending.Set(float64(count))
}

// Trigger Bus Metrics Functions.

// RecordTriggerEnqueued increments the accepted trigger counter.
func RecordTriggerEnqueued() {
	globalManager.triggersEnqueued.Inc()
}

// RecordTriggerDropped increments the dropped trigger counter.
func RecordTriggerDropped() {
	globalManager.triggersDropped.Inc()
}

// RecordTriggerProcessed increments the processed trigger counter.
func RecordTriggerProcessed() {
	globalManager.triggersProcessed.Inc()
}

// UpdateTriggerQueueDepth sets the current trigger queue depth.
func UpdateTriggerQueueDepth(depth int) {
	globalManager.triggerQueueDepth.Set(float64(depth))
}

// RecordTriggerLatency records end-to-end trigger latency in milliseconds.
func RecordTriggerLatency(latencyMs float64) {
	globalManager.triggerLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordLoginFailure increments the rejected login counter.
func RecordLoginFailure() {
	globalManager.loginFailures.Inc()
}

// RecordDuplicateSubmission increments the duplicate submission counter.
func RecordDuplicateSubmission() {
	globalManager.duplicateSubmissions.Inc()
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
