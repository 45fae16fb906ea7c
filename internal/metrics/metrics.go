// Package metrics provides Prometheus metrics for the note store
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the note store
type Metrics struct {
	// Store metrics
	TransactionsTotal   *prometheus.CounterVec
	TransactionDuration *prometheus.HistogramVec

	// Live query metrics
	QueryRecomputationsTotal *prometheus.CounterVec
	QueryDuration            *prometheus.HistogramVec
	QueryResultsSuperseded   *prometheus.CounterVec

	// File exchange metrics
	ImportsTotal *prometheus.CounterVec
	ExportsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.TransactionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soliloquy_store_transactions_total",
			Help: "Total number of store transactions",
		},
		[]string{"operation", "status"},
	)

	m.TransactionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soliloquy_store_transaction_duration_seconds",
			Help:    "Duration of store transactions in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	m.QueryRecomputationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soliloquy_live_query_recomputations_total",
			Help: "Total number of live query recomputations",
		},
		[]string{"query", "status"},
	)

	m.QueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soliloquy_live_query_duration_seconds",
			Help:    "Duration of live query recomputations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	m.QueryResultsSuperseded = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soliloquy_live_query_results_superseded_total",
			Help: "Results discarded because a newer result replaced them before delivery",
		},
		[]string{"query"},
	)

	m.ImportsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soliloquy_imports_total",
			Help: "Total number of chat imports",
		},
		[]string{"format", "status"},
	)

	m.ExportsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soliloquy_exports_total",
			Help: "Total number of chat exports",
		},
		[]string{"format", "status"},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soliloquy_http_requests_total",
			Help: "Total number of local API requests",
		},
		[]string{"method", "code"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soliloquy_http_request_duration_seconds",
			Help:    "Duration of local API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// TransactionCompleted records a store transaction
func (m *Metrics) TransactionCompleted(operation string, duration time.Duration, err error) {
	m.TransactionsTotal.WithLabelValues(operation, status(err)).Inc()
	m.TransactionDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// QueryRecomputed records a live query recomputation
func (m *Metrics) QueryRecomputed(query string, duration time.Duration, err error) {
	m.QueryRecomputationsTotal.WithLabelValues(query, status(err)).Inc()
	m.QueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

func (m *Metrics) ResultSuperseded(query string) {
	m.QueryResultsSuperseded.WithLabelValues(query).Inc()
}

func (m *Metrics) ImportCompleted(format string, err error) {
	m.ImportsTotal.WithLabelValues(format, status(err)).Inc()
}

func (m *Metrics) ExportCompleted(format string, err error) {
	m.ExportsTotal.WithLabelValues(format, status(err)).Inc()
}

// RecordHTTPRequest records a local API request
func (m *Metrics) RecordHTTPRequest(method, code string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}
