// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	FeesRecorded     *prometheus.CounterVec
	FeeAmount        *prometheus.CounterVec
	LifetimeTotal    prometheus.Gauge
	RecordErrors     *prometheus.CounterVec
	PersistLatency   prometheus.Histogram
	SubscribersCount prometheus.Gauge
	UpdatesDropped   prometheus.Counter

	// Rollover metrics
	RolloverRuns  prometheus.Counter
	BucketsPruned prometheus.Counter

	// Pricing metrics
	QuotesComputed *prometheus.CounterVec

	// Graduation metrics
	Graduations prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pumpx_core"
	}

	return &Metrics{
		// Ledger metrics
		FeesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "fees_recorded_total",
			Help:      "Total number of fee events recorded by category",
		}, []string{"category"}),
		FeeAmount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "fee_amount_total",
			Help:      "Total fee amount recorded by category (display value, SOL)",
		}, []string{"category"}),
		LifetimeTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "lifetime_total",
			Help:      "Lifetime platform profit (display value, SOL)",
		}),
		RecordErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "record_errors_total",
			Help:      "Total number of rejected or failed record calls by reason",
		}, []string{"reason"}),
		PersistLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "persist_latency_seconds",
			Help:      "Ledger state persistence latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		SubscribersCount: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "subscribers",
			Help:      "Current number of profit update subscribers",
		}),
		UpdatesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "updates_dropped_total",
			Help:      "Total number of profit updates dropped by slow subscribers",
		}),

		// Rollover metrics
		RolloverRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rollover",
			Name:      "runs_total",
			Help:      "Total number of daily rollover runs",
		}),
		BucketsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rollover",
			Name:      "buckets_pruned_total",
			Help:      "Total number of daily buckets pruned by retention",
		}),

		// Pricing metrics
		QuotesComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "curve",
			Name:      "quotes_computed_total",
			Help:      "Total number of bonding-curve quotes computed by side",
		}, []string{"side"}),

		// Graduation metrics
		Graduations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graduation",
			Name:      "graduations_total",
			Help:      "Total number of tokens graduated to open-market trading",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFee records a successful fee event. Amounts are converted to
// float only here, at the display boundary.
func RecordFee(category string, amount, lifetimeTotal float64) {
	DefaultMetrics.FeesRecorded.WithLabelValues(category).Inc()
	DefaultMetrics.FeeAmount.WithLabelValues(category).Add(amount)
	DefaultMetrics.LifetimeTotal.Set(lifetimeTotal)
}

// RecordLedgerError records a rejected or failed record call.
func RecordLedgerError(reason string) {
	DefaultMetrics.RecordErrors.WithLabelValues(reason).Inc()
}

// RecordPersistLatency records ledger state persistence latency.
func RecordPersistLatency(seconds float64) {
	DefaultMetrics.PersistLatency.Observe(seconds)
}

// SetSubscribers updates the subscriber count gauge.
func SetSubscribers(n int) {
	DefaultMetrics.SubscribersCount.Set(float64(n))
}

// RecordUpdateDropped counts a profit update dropped by a slow subscriber.
func RecordUpdateDropped() {
	DefaultMetrics.UpdatesDropped.Inc()
}

// RecordRollover records a rollover run and how many buckets it pruned.
func RecordRollover(pruned int) {
	DefaultMetrics.RolloverRuns.Inc()
	DefaultMetrics.BucketsPruned.Add(float64(pruned))
}

// RecordQuote counts a computed quote by side ("buy" or "sell").
func RecordQuote(side string) {
	DefaultMetrics.QuotesComputed.WithLabelValues(side).Inc()
}

// RecordGraduation counts a BONDING -> GRADUATED transition.
func RecordGraduation() {
	DefaultMetrics.Graduations.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
