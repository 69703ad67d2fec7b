// Package metrics provides Prometheus instrumentation for the calibrator
// (D4), registered at package init in the teacher pack's promauto style.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuoteRequestsTotal counts POST /quote calls by outcome status.
	QuoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_requests_total",
			Help: "Total /quote requests by status",
		},
		[]string{"status"},
	)

	// QuoteLatencySeconds tracks end-to-end /quote handler latency.
	QuoteLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quote_latency_seconds",
			Help:    "POST /quote latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)

	// OracleRequestsTotal counts C1 calls by upstream source and outcome.
	OracleRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "UsdOracle upstream calls by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// TribunalCallsTotal counts C3 simulateDispensation calls by chain and outcome.
	TribunalCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tribunal_calls_total",
			Help: "TribunalClient simulateDispensation calls by destination chain and outcome",
		},
		[]string{"chain", "outcome"},
	)
)

// RecordQuoteRequest records one /quote call's terminal status ("ok" or an
// apperr.Kind string) and its latency.
func RecordQuoteRequest(status string, duration time.Duration) {
	QuoteRequestsTotal.WithLabelValues(status).Inc()
	QuoteLatencySeconds.Observe(duration.Seconds())
}

// RecordOracleCall records one C1 upstream call outcome ("ok", "error").
func RecordOracleCall(source, outcome string) {
	OracleRequestsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordTribunalCall records one C3 simulateDispensation call outcome ("ok", "error").
func RecordTribunalCall(chainLabel, outcome string) {
	TribunalCallsTotal.WithLabelValues(chainLabel, outcome).Inc()
}

// Timer times an operation and reports it to a histogram on ObserveDuration.
type Timer struct {
	start time.Time
}

// NewTimer starts a Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration reports the elapsed time since NewTimer to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since NewTimer without reporting it.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
