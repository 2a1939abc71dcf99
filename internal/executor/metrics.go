package executor

import "github.com/prometheus/client_golang/prometheus"

var (
	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchexec_tasks_total",
			Help: "Total number of batch tasks by outcome.",
		},
		[]string{"outcome"},
	)

	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchexec_batches_total",
			Help: "Total number of batches invoked.",
		},
		[]string{"mode"},
	)

	batchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batchexec_batch_duration_seconds",
			Help:    "Wall-clock duration of batch invocations in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	workersLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "batchexec_workers_live",
			Help: "Number of live worker goroutines across all pools.",
		},
	)

	callerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchexec_caller_runs_total",
			Help: "Submissions executed on the submitting goroutine because the queue was full.",
		},
		[]string{"pool"},
	)
)

func init() {
	prometheus.MustRegister(tasksTotal)
	prometheus.MustRegister(batchesTotal)
	prometheus.MustRegister(batchDuration)
	prometheus.MustRegister(workersLive)
	prometheus.MustRegister(callerRunsTotal)
}
