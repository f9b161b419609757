package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Transaction metrics
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekeep_transactions_total",
			Help: "Total number of transactions processed, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	TransactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statekeep_transaction_duration_seconds",
			Help:    "Transaction processing duration in seconds, by type",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	IdempotencyCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekeep_idempotency_cache_hits_total",
			Help: "Total number of transaction requests served from the idempotency cache",
		},
		[]string{"instance_id"},
	)

	IdempotencyCacheOccupancy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statekeep_idempotency_cache_occupancy",
			Help: "Current number of entries held in an instance's idempotency cache",
		},
		[]string{"instance_id"},
	)

	// Instance metrics
	InstancesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "statekeep_instances_total",
			Help: "Total number of live game instances",
		},
	)

	StateVersion = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statekeep_state_version",
			Help: "Current stateVersion of each game instance",
		},
		[]string{"instance_id"},
	)

	// Snapshot metrics
	SnapshotFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statekeep_snapshot_flush_duration_seconds",
			Help:    "Time taken to flush an instance's snapshot to disk, in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"instance_id"},
	)

	SnapshotFlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekeep_snapshot_flushes_total",
			Help: "Total number of snapshot flushes, by outcome",
		},
		[]string{"outcome"},
	)

	// Migration metrics
	MigrationWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekeep_migration_warnings_total",
			Help: "Total number of migration warnings raised, by code",
		},
		[]string{"code"},
	)

	MigrationsRunTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "statekeep_migrations_run_total",
			Help: "Total number of migration runs performed on startup restore",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekeep_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statekeep_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Event broker metrics
	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekeep_events_dropped_total",
			Help: "Total number of domain events dropped because a subscriber's buffer was full, by event type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(TransactionDuration)
	prometheus.MustRegister(IdempotencyCacheHitsTotal)
	prometheus.MustRegister(IdempotencyCacheOccupancy)
	prometheus.MustRegister(InstancesTotal)
	prometheus.MustRegister(StateVersion)
	prometheus.MustRegister(SnapshotFlushDuration)
	prometheus.MustRegister(SnapshotFlushesTotal)
	prometheus.MustRegister(MigrationWarningsTotal)
	prometheus.MustRegister(MigrationsRunTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(EventsDroppedTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
