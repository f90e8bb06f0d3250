// Package middleware provides HTTP middleware and instrumentation for the
// JSPM Packages server.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request metrics and domain collectors
//   - Structured request logging
//
// # OpenTelemetry Middleware
//
// Tracing starts a server span for each request, continuing a trace
// propagated in the request headers. The span is named after the matched
// chi route so that names stay low-cardinality.
//
//	r := chi.NewRouter()
//	r.Use(middleware.Tracing(
//	    middleware.WithTracerName("jspm-packages"),
//	    middleware.WithFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in main() before starting the server.
//
// # Prometheus Metrics
//
// NewMetrics registers the collectors on a registry. Besides request
// metrics it records store writes, hash computations, live connections
// and island fragments; *Metrics satisfies the observer interfaces of the
// store and hasher packages.
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r.Use(m.Middleware)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Metrics collected (namespace "jspm" by default):
//   - http_requests_total: requests by route, method and status
//   - http_request_duration_seconds: request latency by route and method
//   - http_requests_in_flight: requests being served
//   - store_writes_total: persisted store writes by result
//   - hash_duration_seconds: hash computations by kind and result
//   - island_actions_total: island actions by island, action and result
//   - fragments_sent_total: island fragments pushed over live connections
//   - live_connections: open live connections
//   - live_errors_total: live connection errors by type
//   - session_roots: application roots held in memory
package middleware
