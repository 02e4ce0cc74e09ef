// Package metrics provides Prometheus instrumentation for the ITC service.
//
// Metrics exposed:
//   - itc_query_seconds: Histogram of GraphQL query duration by query
//   - itc_legacy_call_seconds: Histogram of legacy calculator call duration
//   - itc_cache_hits_total / itc_cache_misses_total: Counters by namespace
//   - itc_solver_iterations_total: Counter of exposure-solver probes
//   - itc_errors_total: Counter of failed queries by query and reason
//
// All metrics are exposed via the /metrics HTTP endpoint for Prometheus
// scraping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	QuerySeconds          *prometheus.HistogramVec
	LegacyCallSeconds     prometheus.Histogram
	CacheHitsTotal        *prometheus.CounterVec
	CacheMissesTotal      *prometheus.CounterVec
	SolverIterationsTotal prometheus.Counter
	ErrorsTotal           *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		QuerySeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "itc_query_seconds",
			Help:    "Time spent serving a GraphQL query",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 120, 300},
		}, []string{"query"}),

		LegacyCallSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "itc_legacy_call_seconds",
			Help:    "Time spent in a single legacy calculator call",
			Buckets: []float64{.1, .5, 1, 5, 15, 60, 120},
		}),

		CacheHitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "itc_cache_hits_total",
			Help: "Result cache hits by namespace",
		}, []string{"namespace"}),

		CacheMissesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "itc_cache_misses_total",
			Help: "Result cache misses by namespace",
		}, []string{"namespace"}),

		SolverIterationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "itc_solver_iterations_total",
			Help: "Probe calls issued by the exposure-time solver",
		}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "itc_errors_total",
			Help: "Failed queries by query and reason",
		}, []string{"query", "reason"}),
	}
}

// ObserveQuery records the duration of one GraphQL query.
func (m *Metrics) ObserveQuery(query string, seconds float64) {
	m.QuerySeconds.WithLabelValues(query).Observe(seconds)
}

// ObserveLegacyCall records the duration of one legacy calculator call.
func (m *Metrics) ObserveLegacyCall(seconds float64) {
	m.LegacyCallSeconds.Observe(seconds)
}

// RecordCacheHit counts a cache hit in a namespace.
func (m *Metrics) RecordCacheHit(namespace string) {
	m.CacheHitsTotal.WithLabelValues(namespace).Inc()
}

// RecordCacheMiss counts a cache miss in a namespace.
func (m *Metrics) RecordCacheMiss(namespace string) {
	m.CacheMissesTotal.WithLabelValues(namespace).Inc()
}

// RecordSolverIteration counts one probe of the exposure-time solver.
func (m *Metrics) RecordSolverIteration() {
	m.SolverIterationsTotal.Inc()
}

// RecordError counts a failed query.
func (m *Metrics) RecordError(query, reason string) {
	m.ErrorsTotal.WithLabelValues(query, reason).Inc()
}
