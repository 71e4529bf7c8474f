// Package metrics provides Prometheus metrics for the piste allocation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes used as label values.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeTooLarge = "too_large"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Engine metrics
	scheduleComputations  prometheus.Counter
	searches              *prometheus.CounterVec
	compositionsEvaluated prometheus.Counter
	searchDuration        prometheus.Histogram
	searchBestScore       prometheus.Gauge

	// Suggestion cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Plans
	plansActive     prometheus.Gauge
	planMutations   *prometheus.CounterVec
	budgetExhausted prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
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

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pistes",
		subsystem:        "allocator",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scheduleComputations = m.counter("schedule_computations_total",
		"Total number of schedule computations requested by callers")
	m.searches = m.counterVec("searches_total",
		"Total number of allocation searches by outcome", "outcome")
	m.compositionsEvaluated = m.counter("compositions_evaluated_total",
		"Total number of candidate allocations scored")
	m.searchDuration = m.histogram("search_duration_milliseconds",
		"Allocation search duration in milliseconds")
	m.searchBestScore = m.gauge("search_best_score",
		"Deviation score of the most recent suggested allocation")

	m.cacheHits = m.counter("suggestion_cache_hits_total",
		"Suggestions served from the cache")
	m.cacheMisses = m.counter("suggestion_cache_misses_total",
		"Suggestions that required a search")

	m.plansActive = m.gauge("plans_active",
		"Number of plans currently held in memory")
	m.planMutations = m.counterVec("plan_mutations_total",
		"Plan changes that triggered a recomputation", "kind")
	m.budgetExhausted = m.counter("budget_exhausted_total",
		"Piste increases refused because the budget was fully allocated")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and type", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds",
		"Latency of operations that ended in an error", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes",
		"Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines",
		"Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds",
		"Average GC pause time in milliseconds")
}

// Engine Metrics Functions.

// RecordScheduleComputation counts one schedule computation.
func (m *Manager) RecordScheduleComputation() { m.scheduleComputations.Inc() }

// RecordSearch records a finished search: its outcome, how many candidates it
// scored and how long it took.
func (m *Manager) RecordSearch(outcome string, evaluated uint64, durationMs float64) {
	m.searches.WithLabelValues(outcome).Inc()
	m.compositionsEvaluated.Add(float64(evaluated))
	m.searchDuration.Observe(durationMs)
}

// UpdateBestScore sets the score of the latest suggestion.
func (m *Manager) UpdateBestScore(score float64) { m.searchBestScore.Set(score) }

// RecordCacheHit counts a suggestion served from the cache.
func (m *Manager) RecordCacheHit() { m.cacheHits.Inc() }

// RecordCacheMiss counts a suggestion that needed a search.
func (m *Manager) RecordCacheMiss() { m.cacheMisses.Inc() }

// UpdatePlansActive sets the number of live plans.
func (m *Manager) UpdatePlansActive(count int) { m.plansActive.Set(float64(count)) }

// RecordPlanMutation counts a plan change of the given kind.
func (m *Manager) RecordPlanMutation(kind string) { m.planMutations.WithLabelValues(kind).Inc() }

// RecordBudgetExhausted counts a refused piste increase.
func (m *Manager) RecordBudgetExhausted() { m.budgetExhausted.Inc() }

// HTTP and Error Metrics Functions.

// RecordHTTPRequest records an HTTP request with its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func (m *Manager) RecordErrorLatency(component, errorType string, latencyMs float64) {
	m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) { m.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func (m *Manager) UpdateSystemGoroutineCount(count int) { m.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) { m.systemGCPauseTime.Observe(pauseMs) }

// Default returns the process-wide manager registered on GetRegistry.
func Default() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
