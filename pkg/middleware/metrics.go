package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "jspm").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "jspm",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	storeWrites     *prometheus.CounterVec
	hashDuration    *prometheus.HistogramVec
	actionsTotal    *prometheus.CounterVec
	fragmentsSent   prometheus.Counter
	liveConnections prometheus.Gauge
	liveErrors      *prometheus.CounterVec
	sessionRoots    prometheus.Gauge
}

// NewMetrics creates and registers the collectors. Registering twice on
// the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	histogram := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, labels)
	}

	return &Metrics{
		requestsTotal:   counter("http_requests_total", "Total HTTP requests by route, method and status", "route", "method", "status"),
		requestDuration: histogram("http_request_duration_seconds", "HTTP request duration in seconds", "route", "method"),
		inFlight:        gauge("http_requests_in_flight", "HTTP requests currently being served"),
		storeWrites:     counter("store_writes_total", "Persisted store writes by result", "result"),
		hashDuration:    histogram("hash_duration_seconds", "Hash computation duration in seconds", "kind", "result"),
		actionsTotal:    counter("island_actions_total", "Island actions by island, action and result", "island", "action", "result"),
		fragmentsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fragments_sent_total",
			Help:        "Island fragments pushed over live connections",
			ConstLabels: config.ConstLabels,
		}),
		liveConnections: gauge("live_connections", "Open live connections"),
		liveErrors:      counter("live_errors_total", "Live connection errors by type", "type"),
		sessionRoots:    gauge("session_roots", "Application roots held in memory"),
	}
}

// Middleware records request count, duration and in-flight requests.
// Requests are labelled by chi route pattern; unmatched requests use
// "unmatched".
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// ObserveStoreWrite records a persisted store write.
func (m *Metrics) ObserveStoreWrite(err error) {
	m.storeWrites.WithLabelValues(result(err)).Inc()
}

// ObserveHash records a hash computation of kind "generator" or "sandbox".
func (m *Metrics) ObserveHash(kind string, d time.Duration, err error) {
	m.hashDuration.WithLabelValues(kind, result(err)).Observe(d.Seconds())
}

// RecordAction records an island action.
func (m *Metrics) RecordAction(island, action string, err error) {
	m.actionsTotal.WithLabelValues(island, action, result(err)).Inc()
}

// RecordFragment records an island fragment sent to a client.
func (m *Metrics) RecordFragment() {
	m.fragmentsSent.Inc()
}

// LiveConnected records an opened live connection.
func (m *Metrics) LiveConnected() {
	m.liveConnections.Inc()
}

// LiveDisconnected records a closed live connection.
func (m *Metrics) LiveDisconnected() {
	m.liveConnections.Dec()
}

// RecordLiveError records a live connection error.
func (m *Metrics) RecordLiveError(err error) {
	m.liveErrors.WithLabelValues(categorizeError(err)).Inc()
}

// SetSessionRoots sets the number of application roots in memory.
func (m *Metrics) SetSessionRoots(n int) {
	m.sessionRoots.Set(float64(n))
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// categorizeError returns a category for the error type.
// This prevents high-cardinality labels from error messages.
func categorizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "rate limit"):
		return "rate_limit"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "unknown"):
		return "not_found"
	case strings.Contains(errStr, "invalid"), strings.Contains(errStr, "decod"):
		return "validation"
	case strings.Contains(errStr, "websocket"), strings.Contains(errStr, "close"):
		return "websocket"
	default:
		return "internal"
	}
}
