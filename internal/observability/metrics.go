// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	EngineOperationsTotal  *prometheus.CounterVec
	EngineOperationErrors  *prometheus.CounterVec
	EngineOperationLatency *prometheus.HistogramVec
	ChainReadLatency       *prometheus.HistogramVec

	// Ingestion metrics
	TradesIngested  prometheus.Counter
	DuplicateTrades prometheus.Counter
	IngestionErrors *prometheus.CounterVec
	ClubRefreshes   prometheus.Counter
	MalformedEvents prometheus.Counter

	// Snapshot metrics
	SnapshotRowsCaptured    prometheus.Counter
	SnapshotCaptureDuration prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCapture prometheus.Gauge
	LastTradeIngested     prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "club_token_engine"
	}

	return &Metrics{
		// Engine metrics
		EngineOperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total number of engine operations by name",
		}, []string{"operation"}),
		EngineOperationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_errors_total",
			Help:      "Total number of failed engine operations by name and error kind",
		}, []string{"operation", "kind"}),
		EngineOperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_latency_seconds",
			Help:      "Engine operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		ChainReadLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "read_latency_seconds",
			Help:      "Chain RPC read latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Ingestion metrics
		TradesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_ingested_total",
			Help:      "Total number of trades appended to the trade log",
		}),
		DuplicateTrades: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duplicate_trades_total",
			Help:      "Total number of replayed trade events skipped as duplicates",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by stage",
		}, []string{"stage"}),
		ClubRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "club_refreshes_total",
			Help:      "Total number of club state mirror refreshes",
		}),
		MalformedEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "malformed_events_total",
			Help:      "Total number of feed events dropped as malformed",
		}),

		// Snapshot metrics
		SnapshotRowsCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshots",
			Name:      "rows_captured_total",
			Help:      "Total number of price snapshot rows captured",
		}),
		SnapshotCaptureDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshots",
			Name:      "capture_duration_seconds",
			Help:      "Snapshot capture pass duration in seconds",
			Buckets:   prometheus.DefBuckets,
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

		// Health metrics
		LastSuccessfulCapture: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_capture_timestamp",
			Help:      "Unix timestamp of last successful snapshot capture",
		}),
		LastTradeIngested: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_trade_ingested_timestamp",
			Help:      "Unix timestamp of last trade appended to the log",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// ObserveEngineOp records one engine operation. kind is empty on success.
func ObserveEngineOp(operation string, start time.Time, kind string) {
	DefaultMetrics.EngineOperationsTotal.WithLabelValues(operation).Inc()
	DefaultMetrics.EngineOperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if kind != "" {
		DefaultMetrics.EngineOperationErrors.WithLabelValues(operation, kind).Inc()
	}
}

// RecordChainRead records chain RPC read latency.
func RecordChainRead(method string, seconds float64) {
	DefaultMetrics.ChainReadLatency.WithLabelValues(method).Observe(seconds)
}

// RecordTradeIngested increments the ingested trade counter and the
// freshness gauge.
func RecordTradeIngested(timestampMs int64) {
	DefaultMetrics.TradesIngested.Inc()
	DefaultMetrics.LastTradeIngested.Set(float64(timestampMs) / 1000)
}

// RecordDuplicateTrade increments the replayed-event counter.
func RecordDuplicateTrade() {
	DefaultMetrics.DuplicateTrades.Inc()
}

// RecordIngestionError records an ingestion error by stage.
func RecordIngestionError(stage string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(stage).Inc()
}

// RecordClubRefresh increments the club mirror refresh counter.
func RecordClubRefresh() {
	DefaultMetrics.ClubRefreshes.Inc()
}

// RecordMalformedEvent increments the dropped feed event counter.
func RecordMalformedEvent() {
	DefaultMetrics.MalformedEvents.Inc()
}

// RecordSnapshotCapture records a completed snapshot capture pass.
func RecordSnapshotCapture(rows int, start time.Time) {
	DefaultMetrics.SnapshotRowsCaptured.Add(float64(rows))
	DefaultMetrics.SnapshotCaptureDuration.Observe(time.Since(start).Seconds())
	DefaultMetrics.LastSuccessfulCapture.SetToCurrentTime()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
