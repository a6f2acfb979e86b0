// Package metrics provides Prometheus metrics for the service register.
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

// Latency buckets in milliseconds. Airtable round trips sit in the hundreds.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // bucket defaults

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace       string
	httpBuckets     []float64
	storeBuckets    []float64
	enabled         bool
	refreshInterval time.Duration
	customLabels    map[string]string
	registry        prometheus.Registerer

	// Domain
	attendanceMarked prometheus.Counter
	membersCreated   prometheus.Counter
	eventsCreated    prometheus.Counter
	lapsedReportSize prometheus.Histogram
	memberPageSize   prometheus.Histogram
	emptyEventFilter prometheus.Counter

	// Record store
	storeRequests       *prometheus.CounterVec
	storeRequestLatency *prometheus.HistogramVec
	storeErrors         *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "register",
		httpBuckets:     defaultLatencyBuckets,
		storeBuckets:    defaultLatencyBuckets,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		customLabels:    make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval reports how often gauge collectors should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// Enabled reports whether observations are recorded.
func (m *Manager) Enabled() bool {
	return m.enabled
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.attendanceMarked = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "attendance_marked_total",
		Help:        "Attendance records created, duplicates included",
		ConstLabels: labels,
	})

	m.membersCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "members_created_total",
		Help:        "Members created through the API",
		ConstLabels: labels,
	})

	m.eventsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "service_events_created_total",
		Help:        "Service events created through the API",
		ConstLabels: labels,
	})

	m.lapsedReportSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "lapsed_report_members",
		Help:        "Number of members returned by the lapsed-attendees report",
		Buckets:     []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		ConstLabels: labels,
	})

	m.memberPageSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "member_page_rows",
		Help:        "Rows returned per member listing page",
		Buckets:     []float64{0, 1, 10, 25, 50, 100, 250},
		ConstLabels: labels,
	})

	m.emptyEventFilter = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "member_event_filter_dropped_total",
		Help:        "Member listings whose event filter resolved to no attendees and was dropped",
		ConstLabels: labels,
	})

	m.storeRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "store_requests_total",
			Help:        "Record store requests by backend, table and operation",
			ConstLabels: labels,
		},
		[]string{"backend", "table", "operation"},
	)

	m.storeRequestLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Name:        "store_request_duration_milliseconds",
			Help:        "Record store request latency in milliseconds",
			Buckets:     m.storeBuckets,
			ConstLabels: labels,
		},
		[]string{"backend", "table", "operation"},
	)

	m.storeErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "store_errors_total",
			Help:        "Record store errors by backend, operation and kind",
			ConstLabels: labels,
		},
		[]string{"backend", "operation", "kind"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.httpBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "errors_by_type_total",
			Help:        "Total number of errors by type and severity",
			ConstLabels: labels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Domain metrics.

// RecordAttendanceMarked counts one created attendance record.
func RecordAttendanceMarked() {
	if globalManager.enabled {
		globalManager.attendanceMarked.Inc()
	}
}

// RecordMemberCreated counts one created member.
func RecordMemberCreated() {
	if globalManager.enabled {
		globalManager.membersCreated.Inc()
	}
}

// RecordServiceEventCreated counts one created service event.
func RecordServiceEventCreated() {
	if globalManager.enabled {
		globalManager.eventsCreated.Inc()
	}
}

// RecordLapsedReportSize observes how many members a lapsed report returned.
func RecordLapsedReportSize(n int) {
	if globalManager.enabled {
		globalManager.lapsedReportSize.Observe(float64(n))
	}
}

// RecordMemberPage observes the row count of one member listing page.
func RecordMemberPage(rows int) {
	if globalManager.enabled {
		globalManager.memberPageSize.Observe(float64(rows))
	}
}

// RecordEventFilterDropped counts a member listing whose event filter was omitted.
func RecordEventFilterDropped() {
	if globalManager.enabled {
		globalManager.emptyEventFilter.Inc()
	}
}

// Record store metrics.

// RecordStoreRequest records one store round trip and its latency.
func RecordStoreRequest(backend, table, operation string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeRequests.WithLabelValues(backend, table, operation).Inc()
	globalManager.storeRequestLatency.WithLabelValues(backend, table, operation).Observe(latencyMs)
}

// RecordStoreError records a failed store round trip.
func RecordStoreError(backend, operation, kind string) {
	if globalManager.enabled {
		globalManager.storeErrors.WithLabelValues(backend, operation, kind).Inc()
	}
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System metrics.

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

// RefreshInterval reports how often the process should refresh the system
// gauges of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
