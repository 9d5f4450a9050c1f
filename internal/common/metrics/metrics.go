// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of jobs currently being processed",
		},
		[]string{"task_type"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_queries_processed_total",
			Help: "Total queries processed, by intent, language and role",
		},
		[]string{"intent", "language", "role"},
	)

	QueriesDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_queries_denied_total",
			Help: "Queries refused because the role lacks access to the requested data",
		},
		[]string{"operation", "role"},
	)

	GeneratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_generator_failures_total",
			Help: "Response Generator calls that ended in a localized fallback",
		},
		[]string{"reason"},
	)

	AnalyticsCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_analytics_cache_total",
			Help: "Analytics cache lookups by result",
		},
		[]string{"result"},
	)
)
