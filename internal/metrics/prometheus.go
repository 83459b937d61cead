package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion service

var (
	// API Call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsdata_api_calls_total",
			Help: "Total number of SportMonks API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sportsdata_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Collection control metrics
	AdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsdata_collector_admissions_total",
			Help: "Rate limiter admission decisions by collection type",
		},
		[]string{"collection_type", "result"},
	)

	PagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsdata_collector_pages_total",
			Help: "Page fetch outcomes by collection type",
		},
		[]string{"collection_type", "outcome"},
	)

	RecordsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsdata_collector_records_total",
			Help: "Records accumulated by paginated collection runs",
		},
		[]string{"collection_type"},
	)

	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsdata_retry_attempts_total",
			Help: "Retries scheduled after a recoverable failure",
		},
		[]string{"operation"},
	)

	RetryBackoffSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sportsdata_retry_backoff_seconds",
			Help:    "Backoff waited before a retry, jitter included",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	RetryExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsdata_retry_exhausted_total",
			Help: "Operations that failed after exhausting their retries",
		},
		[]string{"operation"},
	)

	// Database metrics
	DBUpsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsdata_db_upserts_total",
			Help: "Records upserted by table and status",
		},
		[]string{"table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sportsdata_db_query_duration_seconds",
			Help:    "Duration of database batch upserts in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sportsdata_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sportsdata_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Sync metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsdata_sync_operations_total",
			Help: "Total number of sync operations",
		},
		[]string{"type", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sportsdata_sync_duration_seconds",
			Help:    "Duration of sync operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"type"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsdata_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sportsdata_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sportsdata_last_successful_sync_timestamp",
			Help: "Timestamp of last successful sync operation",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordAdmission records a rate limiter decision for a collection type
func RecordAdmission(collectionType string, admitted bool) {
	result := "admitted"
	if !admitted {
		result = "denied"
	}
	AdmissionsTotal.WithLabelValues(collectionType, result).Inc()
}

// RecordPage records the outcome of one page fetch
func RecordPage(collectionType, outcome string) {
	PagesTotal.WithLabelValues(collectionType, outcome).Inc()
}

// RecordRecords adds accumulated records for a collection type
func RecordRecords(collectionType string, n int) {
	RecordsCollected.WithLabelValues(collectionType).Add(float64(n))
}

// RecordRetry records a scheduled retry and the backoff it waits
func RecordRetry(operation string, backoffSeconds float64) {
	RetryAttemptsTotal.WithLabelValues(operation).Inc()
	RetryBackoffSeconds.WithLabelValues(operation).Observe(backoffSeconds)
}

// RecordRetryExhausted records an operation that ran out of retries
func RecordRetryExhausted(operation string) {
	RetryExhaustedTotal.WithLabelValues(operation).Inc()
}

// RecordUpsert records the result of a batch upsert
func RecordUpsert(table string, success, failure int, duration float64) {
	DBUpsertsTotal.WithLabelValues(table, "success").Add(float64(success))
	DBUpsertsTotal.WithLabelValues(table, "failure").Add(float64(failure))
	DBQueryDuration.WithLabelValues(table).Observe(duration)
}

// RecordSync records a sync operation
func RecordSync(syncType, status string, duration float64) {
	SyncOperationsTotal.WithLabelValues(syncType, status).Inc()
	SyncDuration.WithLabelValues(syncType).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
