package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Integration metrics
	IntegrationAttempts *prometheus.CounterVec
	IntegrationRetries  *prometheus.CounterVec
	DeadLetters         *prometheus.CounterVec

	// Sync pipeline metrics
	SyncDuration  *prometheus.HistogramVec
	SyncOutcomes  *prometheus.CounterVec
	ActiveSyncs   prometheus.Gauge
	SyncConflicts *prometheus.CounterVec

	// Deadline metrics
	DeadlineComputations prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Worker metrics
	WorkerJobsProcessed      *prometheus.CounterVec
	WorkerProcessingDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		IntegrationAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "integration_attempts_total",
				Help:      "Total number of integration operations by system and outcome",
			},
			[]string{"system", "outcome"},
		),
		IntegrationRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "integration_retries_total",
				Help:      "Total number of integration retry attempts",
			},
			[]string{"system"},
		),
		DeadLetters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dead_letters_total",
				Help:      "Total number of dead letter records created",
			},
			[]string{"system"},
		),
		SyncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Order reconciliation duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"system", "outcome"},
		),
		SyncOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_outcomes_total",
				Help:      "Total number of order syncs by system and outcome",
			},
			[]string{"system", "outcome"},
		),
		ActiveSyncs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_syncs",
				Help:      "Number of currently running order reconciliations",
			},
		),
		SyncConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_conflicts_total",
				Help:      "Total number of reconciliation conflicts by tag",
			},
			[]string{"tag"},
		),
		DeadlineComputations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deadline_computations_total",
				Help:      "Total number of deadline resolutions performed",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		WorkerJobsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_jobs_processed_total",
				Help:      "Total number of sync jobs processed by the worker",
			},
			[]string{"status"},
		),
		WorkerProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "worker_processing_duration_seconds",
				Help:      "Sync job processing duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.IntegrationAttempts,
		m.IntegrationRetries,
		m.DeadLetters,
		m.SyncDuration,
		m.SyncOutcomes,
		m.ActiveSyncs,
		m.SyncConflicts,
		m.DeadlineComputations,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WorkerJobsProcessed,
		m.WorkerProcessingDuration,
	)

	return m
}
