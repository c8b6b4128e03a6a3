// Package metrics provides Prometheus metrics for the mill certification service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultNamespace       = "millcert"
	defaultSubsystem       = "audits"
	defaultRefreshInterval = 10 * time.Second
)

var latencyBucketsMs = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // shared bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Audit pipeline
	auditsReceived   prometheus.Counter
	auditsDuplicate  prometheus.Counter
	auditsScored     prometheus.Counter
	scoringLatency   prometheus.Histogram
	auditsByCategory *prometheus.CounterVec
	redFlags         *prometheus.CounterVec
	whatIfRuns       prometheus.Counter
	scoringErrors    prometheus.Counter

	// Templates
	templateReloads *prometheus.CounterVec
	templatesLoaded prometheus.Gauge

	// Queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Result store
	storeLatency *prometheus.HistogramVec
	storeRecords prometheus.Gauge
	storeMills   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: latencyBucketsMs,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// RefreshInterval reports how often gauge owners should resample.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.auditsReceived = m.counter("received_total", "Audit submissions accepted for scoring")
	m.auditsDuplicate = m.counter("duplicate_total", "Audit submissions rejected as duplicates")
	m.auditsScored = m.counter("scored_total", "Audits scored and stored")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Time to score one audit")
	m.auditsByCategory = m.counterVec("category_total", "Scored audits by compliance category", "category")
	m.redFlags = m.counterVec("red_flags_total", "Red flags raised by criticality", "criticality")
	m.whatIfRuns = m.counter("what_if_total", "What-if projections computed")
	m.scoringErrors = m.counter("scoring_errors_total", "Audits that could not be scored")

	m.templateReloads = m.counterVec("template_reloads_total", "Template registry reloads by outcome", "outcome")
	m.templatesLoaded = m.gauge("templates_loaded", "Templates currently served")

	m.queueSize = m.gauge("queue_size", "Submissions waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Queue capacity")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Submissions rejected by a full or closed queue")
	m.workerCount = m.gauge("worker_count", "Scoring workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one submission")
	m.workerErrors = m.counter("worker_errors_total", "Submissions a worker failed to process")

	m.storeLatency = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "store_latency_milliseconds", Help: "Result store operation latency",
		Buckets: m.histogramBuckets,
	}, []string{"op"})
	m.storeRecords = m.gauge("store_records", "Audit records held by the result store")
	m.storeMills = m.gauge("store_mills", "Mills ranked by the result store")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
}

// RecordAuditReceived increments the accepted submissions counter.
func RecordAuditReceived() {
	globalManager.auditsReceived.Inc()
}

// RecordAuditDuplicate increments the duplicate submissions counter.
func RecordAuditDuplicate() {
	globalManager.auditsDuplicate.Inc()
}

// RecordAuditScored records one scored audit with its category and red flags.
func RecordAuditScored(category string, flagsByCriticality map[string]int) {
	globalManager.auditsScored.Inc()
	globalManager.auditsByCategory.WithLabelValues(category).Inc()
	for tier, n := range flagsByCriticality {
		globalManager.redFlags.WithLabelValues(tier).Add(float64(n))
	}
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordWhatIf increments the what-if counter.
func RecordWhatIf() {
	globalManager.whatIfRuns.Inc()
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordTemplateReload counts a registry reload; outcome is "ok" or "error".
func RecordTemplateReload(outcome string) {
	globalManager.templateReloads.WithLabelValues(outcome).Inc()
}

// UpdateTemplatesLoaded sets the number of served templates.
func UpdateTemplatesLoaded(count int) {
	globalManager.templatesLoaded.Set(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError increments the enqueue errors counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker errors counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordStoreLatency records the latency of a store operation ("save", "get", "rank", "top").
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateStoreSize sets the record and mill gauges.
func UpdateStoreSize(records, mills int) {
	globalManager.storeRecords.Set(float64(records))
	globalManager.storeMills.Set(float64(mills))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval reports how often the global gauges should be resampled.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}
