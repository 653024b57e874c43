// Package observability exposes Prometheus metrics for the API and the Max-Cut pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// Each collector owns its registry.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	APIRequests  *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Solver metrics
	ClassicalDuration prometheus.Histogram
	QuantumDuration   prometheus.Histogram
	BackendUsage      *prometheus.CounterVec
}

// NewCollector creates a collector with all metrics registered on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	apiRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	classicalDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maxcut_classical_duration_seconds",
			Help:    "Time spent in the classical Max-Cut baseline",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
		},
	)

	quantumDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maxcut_quantum_duration_seconds",
			Help:    "Time spent in the QAOA solve",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	backendUsage := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantum_backend_usage_total",
			Help: "Completed QAOA solves per execution backend",
		},
		[]string{"backend"},
	)

	registry.MustRegister(
		apiRequests,
		httpDuration,
		classicalDuration,
		quantumDuration,
		backendUsage,
	)

	return &Collector{
		registry:          registry,
		APIRequests:       apiRequests,
		HTTPDuration:      httpDuration,
		ClassicalDuration: classicalDuration,
		QuantumDuration:   quantumDuration,
		BackendUsage:      backendUsage,
	}
}

// ObserveClassical records one classical baseline run.
func (c *Collector) ObserveClassical(d time.Duration) {
	c.ClassicalDuration.Observe(d.Seconds())
}

// ObserveQuantum records one QAOA solve, successful or not.
func (c *Collector) ObserveQuantum(d time.Duration) {
	c.QuantumDuration.Observe(d.Seconds())
}

// IncBackendUsage counts a completed solve on backend.
func (c *Collector) IncBackendUsage(backend string) {
	c.BackendUsage.WithLabelValues(backend).Inc()
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves this collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests per route pattern and method and times them.
// Requests that match no route are labelled "unmatched".
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		c.APIRequests.WithLabelValues(route, r.Method).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
