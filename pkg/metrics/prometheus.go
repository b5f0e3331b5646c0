// Package metrics provides Prometheus metrics for the wayfarer recommendation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Scoring core
	recommendations    *prometheus.CounterVec
	filtersApplied     *prometheus.CounterVec
	candidatesResolved prometheus.Histogram
	scoringLatency     prometheus.Histogram

	// Catalog
	catalogLookupLatency *prometheus.HistogramVec
	catalogCache         *prometheus.CounterVec
	catalogBreakerState  prometheus.Gauge
	catalogRecords       prometheus.Gauge

	// Enrichment pipeline
	enrichmentJobs    *prometheus.CounterVec
	enrichmentLatency prometheus.Histogram
	upstreamRetries   *prometheus.CounterVec
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	workerCount       prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wayfarer",
		subsystem:        "recommend",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.recommendations = m.counterVec("recommendations_total",
		"Recommendation requests by outcome (scored, empty, not_found, invalid, error)", "outcome")
	m.filtersApplied = m.counterVec("filters_applied_total",
		"Preference dimensions applied while scoring", "dimension")
	m.candidatesResolved = m.histogram("candidates_resolved",
		"Number of candidate places resolved in the catalog per request",
		[]float64{0, 1, 2, 5, 10, 20, 50, 100, 250})
	m.scoringLatency = m.histogram("scoring_latency_milliseconds",
		"End-to-end scoring latency in milliseconds", m.histogramBuckets)

	m.catalogLookupLatency = m.histogramVec("catalog_lookup_latency_milliseconds",
		"Catalog lookup latency in milliseconds by backend", "backend")
	m.catalogCache = m.counterVec("catalog_cache_total",
		"Catalog cache lookups by result (hit, miss)", "result")
	m.catalogBreakerState = m.gauge("catalog_breaker_state",
		"Catalog circuit breaker state (0 closed, 1 half-open, 2 open)")
	m.catalogRecords = m.gauge("catalog_records",
		"Number of place records in the catalog")

	m.enrichmentJobs = m.counterVec("enrichment_jobs_total",
		"Enrichment jobs by result (enqueued, duplicate, rejected, succeeded, failed)", "result")
	m.enrichmentLatency = m.histogram("enrichment_latency_milliseconds",
		"Latency of a single place enrichment in milliseconds",
		[]float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000})
	m.upstreamRetries = m.counterVec("upstream_retries_total",
		"Retries issued against upstream HTTP services", "upstream")
	m.queueSize = m.gauge("queue_size", "Current number of queued enrichment jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued enrichment jobs")
	m.workerCount = m.gauge("worker_count", "Number of enrichment workers")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"HTTP errors by endpoint, method and error type", "endpoint", "method", "error_type")
	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordRecommendation counts a recommendation request by outcome.
func RecordRecommendation(outcome string) {
	globalManager.recommendations.WithLabelValues(outcome).Inc()
}

// RecordFilterApplied counts one applied preference dimension.
func RecordFilterApplied(dimension string) {
	globalManager.filtersApplied.WithLabelValues(dimension).Inc()
}

// RecordCandidatesResolved observes how many candidates resolved in the catalog.
func RecordCandidatesResolved(n int) {
	globalManager.candidatesResolved.Observe(float64(n))
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordCatalogLookupLatency records a catalog lookup for the given backend.
func RecordCatalogLookupLatency(backend string, latencyMs float64) {
	globalManager.catalogLookupLatency.WithLabelValues(backend).Observe(latencyMs)
}

// RecordCatalogCache counts a cache hit or miss.
func RecordCatalogCache(result string) {
	globalManager.catalogCache.WithLabelValues(result).Inc()
}

// UpdateCatalogBreakerState sets the breaker state gauge.
func UpdateCatalogBreakerState(state int) {
	globalManager.catalogBreakerState.Set(float64(state))
}

// UpdateCatalogRecords sets the catalog size gauge.
func UpdateCatalogRecords(count int) {
	globalManager.catalogRecords.Set(float64(count))
}

// RecordEnrichmentJob counts an enrichment job transition.
func RecordEnrichmentJob(result string) {
	globalManager.enrichmentJobs.WithLabelValues(result).Inc()
}

// RecordEnrichmentLatency records a single enrichment duration in milliseconds.
func RecordEnrichmentLatency(latencyMs float64) {
	globalManager.enrichmentLatency.Observe(latencyMs)
}

// RecordUpstreamRetry counts a retry against an upstream service.
func RecordUpstreamRetry(upstream string) {
	globalManager.upstreamRetries.WithLabelValues(upstream).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
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
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
