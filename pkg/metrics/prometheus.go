// Package metrics provides Prometheus metrics for the pump curve service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds; resolutions complete in microseconds.
var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Operating point resolution
	resolutions       *prometheus.CounterVec
	resolutionLatency prometheus.Histogram
	warnings          *prometheus.CounterVec
	rejections        *prometheus.CounterVec

	// Curve repository
	curveCacheHits         prometheus.Counter
	curveCacheMisses       prometheus.Counter
	curveGenerations       *prometheus.CounterVec
	curveGenerationLatency prometheus.Histogram
	curveInvalidations     prometheus.Counter
	catalogSize            prometheus.Gauge
	cachedCurves           prometheus.Gauge

	// Batches
	batches      prometheus.Counter
	batchQueries prometheus.Counter
	batchLatency prometheus.Histogram

	// Exports
	exports *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     prometheus.Counter
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

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
		namespace:        "pumpcurve",
		subsystem:        "core",
		histogramBuckets: defaultBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.resolutions = auto.NewCounterVec(
		m.counterOpts("resolutions_total", "Operating point resolutions by pump and verdict status"),
		[]string{"pump", "status"},
	)
	m.resolutionLatency = auto.NewHistogram(
		m.histogramOpts("resolution_latency_milliseconds", "Time spent resolving one operating point"),
	)
	m.warnings = auto.NewCounterVec(
		m.counterOpts("warnings_total", "Advisories attached to resolved operating points by code"),
		[]string{"code"},
	)
	m.rejections = auto.NewCounterVec(
		m.counterOpts("rejections_total", "Operating point queries refused by reason"),
		[]string{"reason"},
	)

	m.curveCacheHits = auto.NewCounter(
		m.counterOpts("curve_cache_hits_total", "Curve set lookups served from the cache"),
	)
	m.curveCacheMisses = auto.NewCounter(
		m.counterOpts("curve_cache_misses_total", "Curve set lookups that required generation"),
	)
	m.curveGenerations = auto.NewCounterVec(
		m.counterOpts("curve_generations_total", "Curve sets generated by pump"),
		[]string{"pump"},
	)
	m.curveGenerationLatency = auto.NewHistogram(
		m.histogramOpts("curve_generation_latency_milliseconds", "Time spent generating one curve set"),
	)
	m.curveInvalidations = auto.NewCounter(
		m.counterOpts("curve_invalidations_total", "Cached curve sets dropped by invalidation or spec replacement"),
	)
	m.catalogSize = auto.NewGauge(
		m.gaugeOpts("catalog_pumps", "Number of pumps in the catalog"),
	)
	m.cachedCurves = auto.NewGauge(
		m.gaugeOpts("cached_curve_sets", "Number of materialised curve sets in the cache"),
	)

	m.batches = auto.NewCounter(
		m.counterOpts("batches_total", "Batches of operating point queries resolved"),
	)
	m.batchQueries = auto.NewCounter(
		m.counterOpts("batch_queries_total", "Queries resolved as part of a batch"),
	)
	m.batchLatency = auto.NewHistogram(
		m.histogramOpts("batch_latency_milliseconds", "Time spent resolving one batch"),
	)

	m.exports = auto.NewCounterVec(
		m.counterOpts("exports_total", "Documents produced by format"),
		[]string{"format"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRateLimited = auto.NewCounter(
		m.counterOpts("http_rate_limited_total", "HTTP requests refused by the rate limiter"),
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that ended in an error"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_bytes", "Allocated heap bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutines", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause time in milliseconds"),
	)
}

// Resolution Metrics Functions.

// RecordResolution counts a resolution outcome for a pump.
func RecordResolution(pump, status string) {
	globalManager.resolutions.WithLabelValues(pump, status).Inc()
}

// RecordResolutionLatency records resolution latency in milliseconds.
func RecordResolutionLatency(latencyMs float64) {
	globalManager.resolutionLatency.Observe(latencyMs)
}

// RecordWarning counts an advisory by code.
func RecordWarning(code string) {
	globalManager.warnings.WithLabelValues(code).Inc()
}

// RecordRejection counts a refused query by reason.
func RecordRejection(reason string) {
	globalManager.rejections.WithLabelValues(reason).Inc()
}

// Curve Repository Metrics Functions.

// RecordCurveCacheHit counts a lookup served from the cache.
func RecordCurveCacheHit() {
	globalManager.curveCacheHits.Inc()
}

// RecordCurveCacheMiss counts a lookup that needed generation.
func RecordCurveCacheMiss() {
	globalManager.curveCacheMisses.Inc()
}

// RecordCurveGeneration counts a generated curve set and its latency.
func RecordCurveGeneration(pump string, latencyMs float64) {
	globalManager.curveGenerations.WithLabelValues(pump).Inc()
	globalManager.curveGenerationLatency.Observe(latencyMs)
}

// RecordCurveInvalidation counts dropped cache entries.
func RecordCurveInvalidation(n int) {
	globalManager.curveInvalidations.Add(float64(n))
}

// UpdateCatalogSize sets the number of catalog pumps.
func UpdateCatalogSize(n int) {
	globalManager.catalogSize.Set(float64(n))
}

// UpdateCachedCurves sets the number of cached curve sets.
func UpdateCachedCurves(n int) {
	globalManager.cachedCurves.Set(float64(n))
}

// RecordBatch counts a resolved batch of n queries and its latency.
func RecordBatch(n int, latencyMs float64) {
	globalManager.batches.Inc()
	globalManager.batchQueries.Add(float64(n))
	globalManager.batchLatency.Observe(latencyMs)
}

// RecordExport counts a produced document.
func RecordExport(format string) {
	globalManager.exports.WithLabelValues(format).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPRateLimited counts a request refused by the limiter.
func RecordHTTPRateLimited() {
	globalManager.httpRateLimited.Inc()
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
