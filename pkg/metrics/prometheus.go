// Package metrics provides Prometheus metrics for the holotrumps game service.
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

// Manager manages all Prometheus metrics for the game service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Game Metrics - rounds served and catalog size
	roundsTotal      *prometheus.CounterVec
	pairingLatency   prometheus.Histogram
	entityCount      *prometheus.GaugeVec
	entityMutations  *prometheus.CounterVec
	statsRefreshUnix prometheus.Gauge

	// Store Metrics - per backend and operation
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	storeRecords *prometheus.GaugeVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// GraphQL Metrics
	graphqlOperations *prometheus.CounterVec
	graphqlErrors     *prometheus.CounterVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec

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
		namespace:        "holotrumps",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval returns how often gauge metrics should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.roundsTotal = auto.NewCounterVec(
		m.counterOpts("rounds_total", "Total number of rounds served by kind and outcome"),
		[]string{"kind", "outcome"},
	)
	m.pairingLatency = auto.NewHistogram(
		m.histogramOpts("pairing_latency_milliseconds", "Latency of drawing and resolving a random pair"),
	)
	m.entityCount = auto.NewGaugeVec(
		m.gaugeOpts("entities", "Number of stored entities by kind"),
		[]string{"kind"},
	)
	m.entityMutations = auto.NewCounterVec(
		m.counterOpts("entity_mutations_total", "Entity create/update/delete operations by kind"),
		[]string{"kind", "op"},
	)
	m.statsRefreshUnix = auto.NewGauge(
		m.gaugeOpts("stats_refresh_last_unix", "Unix time of the last entity count refresh"),
	)

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Entity store operation latency in milliseconds"),
		[]string{"backend", "op"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Entity store operation failures"),
		[]string{"backend", "op"},
	)
	m.storeRecords = auto.NewGaugeVec(
		m.gaugeOpts("store_records", "Number of records per store table"),
		[]string{"backend", "table"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.graphqlOperations = auto.NewCounterVec(
		m.counterOpts("graphql_operations_total", "GraphQL operations executed by type"),
		[]string{"operation"},
	)
	m.graphqlErrors = auto.NewCounterVec(
		m.counterOpts("graphql_errors_total", "GraphQL errors by extensions code"),
		[]string{"code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "GC pause time in milliseconds"))
}

// Game Metrics Functions.

// RecordRound increments the rounds counter for kind and outcome.
func RecordRound(kind, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.roundsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordPairingLatency records the latency of producing one round.
func RecordPairingLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.pairingLatency.Observe(latencyMs)
}

// UpdateEntityCount sets the stored entity count for kind.
func UpdateEntityCount(kind string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.entityCount.WithLabelValues(kind).Set(float64(count))
}

// RecordEntityMutation increments the mutation counter for kind and op.
func RecordEntityMutation(kind, op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.entityMutations.WithLabelValues(kind, op).Inc()
}

// UpdateStatsRefreshLastUnix records when entity counts were last refreshed.
func UpdateStatsRefreshLastUnix(ts float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.statsRefreshUnix.Set(ts)
}

// Store Metrics Functions.

// RecordStoreOperation records the latency of a store operation.
func RecordStoreOperation(backend, op string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordStoreError increments the store error counter.
func RecordStoreError(backend, op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeErrors.WithLabelValues(backend, op).Inc()
}

// UpdateStoreRecords sets the record count for a table.
func UpdateStoreRecords(backend, table string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeRecords.WithLabelValues(backend, table).Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GraphQL Metrics Functions.

// RecordGraphQLOperation increments the operation counter ("query" or "mutation").
func RecordGraphQLOperation(operation string) {
	if !globalManager.enabled {
		return
	}
	globalManager.graphqlOperations.WithLabelValues(operation).Inc()
}

// RecordGraphQLError increments the error counter for code.
func RecordGraphQLError(code string) {
	if !globalManager.enabled {
		return
	}
	globalManager.graphqlErrors.WithLabelValues(code).Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval returns the global manager's gauge refresh interval.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
