package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ScheduledJobRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_job_runs_total",
		Help:      "Total number of scheduled job runs by job and status",
	}, []string{"job", "status"})
	ScheduledJobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scheduled_job_duration_seconds",
		Help:      "Duration of scheduled job runs in seconds",
		Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
	}, []string{"job"})
)

// RecordScheduledJob records one finished scheduled run.
func RecordScheduledJob(job, status string, durationSeconds float64) {
	ScheduledJobRunsTotal.WithLabelValues(job, status).Inc()
	ScheduledJobDuration.WithLabelValues(job).Observe(durationSeconds)
}
