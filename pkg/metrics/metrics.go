// Package metrics provides Prometheus instrumentation for the console server
// and for every call the API client makes to the catalog backend.
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// Console HTTP metrics
// ─────────────────────────────────────────────

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "muestras",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of console HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "muestras",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of console HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "muestras",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of console HTTP requests currently being served.",
	})
)

// ─────────────────────────────────────────────
// Catalog API client metrics
// ─────────────────────────────────────────────

var (
	// APIRequests counts backend calls by resource, operation and status
	// ("error" when no response was received).
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "muestras",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total catalog API calls.",
		},
		[]string{"resource", "op", "status"},
	)

	APIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "muestras",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of catalog API calls in seconds.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"resource", "op"},
	)

	// ReorderTotal counts reorder attempts by outcome:
	// "persisted" | "failed" | "resynced" | "resync_failed".
	ReorderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "muestras",
			Subsystem: "reorder",
			Name:      "total",
			Help:      "Reorder batches by outcome.",
		},
		[]string{"resource", "outcome"},
	)

	// SessionTransitions counts authentication state changes.
	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "muestras",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Authentication state transitions.",
		},
		[]string{"state"},
	)
)

// DefaultRegistry is the Prometheus registry exposed on /metrics.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		APIRequests,
		APIDuration,
		ReorderTotal,
		SessionTransitions,
	)
}

// ─────────────────────────────────────────────
// HTTP middleware
// ─────────────────────────────────────────────

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records duration, count and in-flight gauge for every request.
// path is the matched route pattern when chi exposes one, so item ids do not
// explode label cardinality.
func Middleware(pattern func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			path := r.URL.Path
			if pattern != nil {
				if p := pattern(r); p != "" {
					path = p
				}
			}
			status := strconv.Itoa(rr.status)

			RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// Handler exposes the registry in Prometheus text and OpenMetrics formats.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}

// ─────────────────────────────────────────────
// Helpers for app code
// ─────────────────────────────────────────────

// ObserveAPICall records one backend call. status is the HTTP status, or 0
// when the call failed before a response arrived.
//
//	defer func() { metrics.ObserveAPICall("brands", "list", status, start) }()
func ObserveAPICall(resource, op string, status int, start time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	APIRequests.WithLabelValues(resource, op, label).Inc()
	APIDuration.WithLabelValues(resource, op).Observe(time.Since(start).Seconds())
}

// RecordReorder counts one reorder outcome.
func RecordReorder(resource, outcome string) {
	ReorderTotal.WithLabelValues(resource, outcome).Inc()
}

// RecordSession counts one authentication state transition.
func RecordSession(state string) {
	SessionTransitions.WithLabelValues(state).Inc()
}
