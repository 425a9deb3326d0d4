package jobs

import "github.com/prometheus/client_golang/prometheus"

// Metrics of the agent's background loops, labeled by job name
// (attendance_poll, daily_digest).
var (
	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduhere", Subsystem: "job", Name: "runs_total",
		Help: "Background job runs.",
	}, []string{"job"})

	jobErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduhere", Subsystem: "job", Name: "errors_total",
		Help: "Background job runs that returned an error or panicked.",
	}, []string{"job"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eduhere", Subsystem: "job", Name: "duration_seconds",
		Help:    "Background job duration.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15},
	}, []string{"job"})

	jobLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "eduhere", Subsystem: "job", Name: "last_success_timestamp_seconds",
		Help: "Unix time of the last run that finished without error.",
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(jobRuns, jobErrors, jobDuration, jobLastSuccess)
}
