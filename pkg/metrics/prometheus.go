// Package metrics provides Prometheus metrics for the skillhub service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the skillhub service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Catalog
	catalogSkills       prometheus.Gauge
	catalogLoadDuration prometheus.Histogram
	catalogOverrides    prometheus.Counter

	// Ratings
	ratingsSubmitted *prometheus.CounterVec
	ratingsReplaced  prometheus.Counter
	tierEvaluations  *prometheus.CounterVec

	// Contributions
	contributionsSubmitted prometheus.Counter
	contributionsDismissed prometheus.Counter

	// Admin gate
	authAttempts *prometheus.CounterVec

	// Key-value store
	kvOperationLatency *prometheus.HistogramVec
	kvErrors           *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillhub",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.catalogSkills = m.gauge("catalog_skills", "Number of skills found in the catalog directory on the last load")
	m.catalogLoadDuration = m.histogram("catalog_load_duration_milliseconds", "Time to read the catalog directory and overlay", m.histogramBuckets)
	m.catalogOverrides = m.counter("catalog_overrides_total", "Admin metadata override saves")

	m.ratingsSubmitted = m.counterVec("ratings_submitted_total", "Ratings accepted by bucket", "bucket")
	m.ratingsReplaced = m.counter("ratings_replaced_total", "Ratings that overwrote an earlier rating by the same reviewer")
	m.tierEvaluations = m.counterVec("tier_evaluations_total", "Tier computed after a rating, by resulting tier", "tier")

	m.contributionsSubmitted = m.counter("contributions_submitted_total", "Pending contributions stored")
	m.contributionsDismissed = m.counter("contributions_dismissed_total", "Contributions dismissed by an admin")

	m.authAttempts = m.counterVec("auth_attempts_total", "Admin authentication attempts by outcome", "outcome")

	m.kvOperationLatency = m.histogramVec("kv_operation_duration_milliseconds", "Key-value store operation latency", "backend", "op")
	m.kvErrors = m.counterVec("kv_errors_total", "Key-value store operation failures", "backend", "op")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP error responses by endpoint and error type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// UpdateCatalogSkills sets the number of skills in the catalog.
func UpdateCatalogSkills(count int) {
	globalManager.catalogSkills.Set(float64(count))
}

// RecordCatalogLoad records how long a catalog load took.
func RecordCatalogLoad(durationMs float64) {
	globalManager.catalogLoadDuration.Observe(durationMs)
}

// RecordCatalogOverride increments the override save counter.
func RecordCatalogOverride() {
	globalManager.catalogOverrides.Inc()
}

// RecordRatingSubmitted increments the rating counter for bucket.
func RecordRatingSubmitted(bucket string) {
	globalManager.ratingsSubmitted.WithLabelValues(bucket).Inc()
}

// RecordRatingReplaced increments the re-rating counter.
func RecordRatingReplaced() {
	globalManager.ratingsReplaced.Inc()
}

// RecordTierEvaluation records the tier computed after a rating ("none" for no tier).
func RecordTierEvaluation(tier string) {
	if tier == "" {
		tier = "none"
	}
	globalManager.tierEvaluations.WithLabelValues(tier).Inc()
}

// RecordContributionSubmitted increments the contribution counter.
func RecordContributionSubmitted() {
	globalManager.contributionsSubmitted.Inc()
}

// RecordContributionDismissed increments the dismissal counter.
func RecordContributionDismissed() {
	globalManager.contributionsDismissed.Inc()
}

// RecordAuthAttempt records an admin authentication outcome.
func RecordAuthAttempt(outcome string) {
	globalManager.authAttempts.WithLabelValues(outcome).Inc()
}

// RecordKVOperation records latency for a key-value store operation.
func RecordKVOperation(backend, op string, latencyMs float64) {
	globalManager.kvOperationLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordKVError increments the failure counter for a key-value store operation.
func RecordKVError(backend, op string) {
	globalManager.kvErrors.WithLabelValues(backend, op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

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
