package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the scheduler registers,
// grounded on the direct client_golang usage pattern other example
// repos in this corpus wire through a constructor-supplied registry
// rather than the global default one.
type Metrics struct {
	TasksSubmitted  prometheus.Counter
	TasksCompleted  prometheus.Counter
	TasksFailed     prometheus.Counter
	TasksCancelled  prometheus.Counter
	TasksRetried    prometheus.Counter
	QueueSize       prometheus.Gauge
	ActiveWorkers   prometheus.Gauge
	ProcessingTime  prometheus.Histogram
}

// NewMetrics creates and registers the scheduler's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_tasks_submitted_total",
			Help: "Total tasks accepted by the scheduler.",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_tasks_completed_total",
			Help: "Total tasks that finished successfully.",
		}),
		TasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_tasks_failed_total",
			Help: "Total tasks that exhausted their retry budget and failed.",
		}),
		TasksCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_tasks_cancelled_total",
			Help: "Total tasks cancelled before completion.",
		}),
		TasksRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_tasks_retried_total",
			Help: "Total retry attempts issued.",
		}),
		QueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskflow_queue_size",
			Help: "Current number of tasks waiting in the priority queue.",
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskflow_active_workers",
			Help: "Current number of tasks executing across both executors.",
		}),
		ProcessingTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskflow_task_processing_seconds",
			Help:    "Task execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TasksSubmitted, m.TasksCompleted, m.TasksFailed,
			m.TasksCancelled, m.TasksRetried, m.QueueSize,
			m.ActiveWorkers, m.ProcessingTime,
		)
	}
	return m
}
