// Package metrics collects Prometheus metrics for Jama API traffic and
// MCP tool usage.
//
// Collectors live on a private registry so tests never trip duplicate
// registration. Exposition is optional: the stdio server only serves
// /metrics when an address is configured. All observer methods are
// nil-safe, so callers wired without metrics skip collection silently.
package metrics

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the server exports.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests   *prometheus.CounterVec
	apiDuration   *prometheus.HistogramVec
	apiRetries    prometheus.Counter
	rateLimitWait prometheus.Histogram
	toolCalls     *prometheus.CounterVec
}

// New creates the collector set on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jama_api_requests_total",
			Help: "Jama REST API requests by method, endpoint, and status code.",
		}, []string{"method", "endpoint", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jama_api_request_seconds",
			Help:    "Jama REST API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		apiRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jama_api_retries_total",
			Help: "Requests re-attempted after a retryable failure.",
		}),
		rateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jama_rate_limit_wait_seconds",
			Help:    "Time spent waiting on the client-side rate limiter.",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jama_tool_calls_total",
			Help: "MCP tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
	}
	m.registry.MustRegister(
		m.apiRequests,
		m.apiDuration,
		m.apiRetries,
		m.rateLimitWait,
		m.toolCalls,
	)
	return m
}

// ObserveRequest records one completed API request.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.apiDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// IncRetry records one retry attempt.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.apiRetries.Inc()
}

// ObserveRateLimitWait records time spent blocked on the rate limiter.
func (m *Metrics) ObserveRateLimitWait(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rateLimitWait.Observe(elapsed.Seconds())
}

// IncToolCall records one MCP tool invocation. Outcome is "ok",
// "tool_error" (user-visible failure), or "internal_error".
func (m *Metrics) IncToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// Gather exposes the registry for tests.
func (m *Metrics) Gather() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ListenAndServe exposes /metrics on addr. It returns a shutdown func
// once the listener is bound, so bind errors surface synchronously.
func (m *Metrics) ListenAndServe(addr string) (func(), error) {
	if m == nil {
		return func() {}, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		_ = srv.Serve(ln)
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
