package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "workspace_engine"

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Local store metrics
	DBQueryDuration  *prometheus.HistogramVec
	DBQueryErrors    *prometheus.CounterVec
	LocalWritesTotal prometheus.Counter

	// Remote store metrics
	RemoteRequestDuration *prometheus.HistogramVec
	RemoteRequestsTotal   *prometheus.CounterVec
	SyncErrorsTotal       prometheus.Counter

	// Engine metrics
	MutationsTotal  *prometheus.CounterVec
	UndoTotal       prometheus.Counter
	RedoTotal       prometheus.Counter
	HistoryDepth    prometheus.Gauge
	MigrationsTotal prometheus.Counter
}

// New creates and registers all metrics with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics with a custom registry
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Local store query latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "table"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_query_errors_total",
			Help:      "Total number of local store query errors",
		}, []string{"operation", "table"}),
		LocalWritesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_writes_total",
			Help:      "Total number of debounced local snapshot writes",
		}),

		RemoteRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_duration_seconds",
			Help:      "Remote store request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		RemoteRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Total number of remote store requests",
		}, []string{"operation", "result"}),
		SyncErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_errors_total",
			Help:      "Total number of remote sync failures",
		}),

		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Total number of applied state mutations",
		}, []string{"command", "result"}),
		UndoTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undo_total",
			Help:      "Total number of undo operations",
		}),
		RedoTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redo_total",
			Help:      "Total number of redo operations",
		}),
		HistoryDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_depth",
			Help:      "Current undo stack depth",
		}),
		MigrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_migrations_total",
			Help:      "Total number of legacy blobs upgraded at load",
		}),
	}
}

// RecordHTTPRequest records one HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDBQuery records one local store query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordRemoteRequest records one remote store request
func (m *Metrics) RecordRemoteRequest(operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.RemoteRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.RemoteRequestsTotal.WithLabelValues(operation, result).Inc()
}

// RecordMutation records one applied (or rejected) mutation command
func (m *Metrics) RecordMutation(command string, err error) {
	result := "success"
	if err != nil {
		result = "rejected"
	}
	m.MutationsTotal.WithLabelValues(command, result).Inc()
}

// ShouldSkipEndpoint reports whether HTTP metrics skip the path
func ShouldSkipEndpoint(path string) bool {
	switch path {
	case "/metrics", "/health", "/ready":
		return true
	}
	return false
}
