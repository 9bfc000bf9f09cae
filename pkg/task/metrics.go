package task

import (
	"time"

	"github.com/c360/orderflow/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// executorMetrics holds Prometheus metrics for executor activity.
type executorMetrics struct {
	submitted prometheus.Counter
	rejected  prometheus.Counter

	// runs counts finished tasks by terminal state
	runs *prometheus.CounterVec

	// runDuration observes task execution time by terminal state
	runDuration *prometheus.HistogramVec

	queueDepth  prometheus.Gauge
	utilization prometheus.Gauge
}

// newExecutorMetrics creates and registers executor metrics with the provided registry.
func newExecutorMetrics(registry *metric.MetricsRegistry, name string) (*executorMetrics, error) {
	m := &executorMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "executor",
			Name:        "submitted_total",
			ConstLabels: prometheus.Labels{"executor": name},
			Help:        "Total number of tasks submitted",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "executor",
			Name:        "rejected_total",
			ConstLabels: prometheus.Labels{"executor": name},
			Help:        "Total number of submissions rejected at capacity",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "executor",
			Name:        "runs_total",
			ConstLabels: prometheus.Labels{"executor": name},
			Help:        "Total number of finished tasks by terminal state",
		}, []string{"state"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "orderflow",
			Subsystem:   "executor",
			Name:        "run_duration_seconds",
			ConstLabels: prometheus.Labels{"executor": name},
			Help:        "Task execution time by terminal state",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"state"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "orderflow",
			Subsystem:   "executor",
			Name:        "queue_depth",
			ConstLabels: prometheus.Labels{"executor": name},
			Help:        "Current submission queue depth",
		}),
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "orderflow",
			Subsystem:   "executor",
			Name:        "utilization",
			ConstLabels: prometheus.Labels{"executor": name},
			Help:        "Submission queue depth as a fraction of capacity (0.0 to 1.0)",
		}),
	}

	if err := registry.RegisterCounter(name, "executor_submitted", m.submitted); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "executor_rejected", m.rejected); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(name, "executor_runs", m.runs); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(name, "executor_run_duration", m.runDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "executor_queue_depth", m.queueDepth); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "executor_utilization", m.utilization); err != nil {
		return nil, err
	}

	return m, nil
}

// recordSubmit increments the submitted counter and updates depth.
func (m *executorMetrics) recordSubmit(depth int) {
	m.submitted.Inc()
	m.queueDepth.Set(float64(depth))
}

// recordReject increments the rejected submission counter.
func (m *executorMetrics) recordReject() {
	m.rejected.Inc()
}

// recordRun counts a finished task and observes its duration.
func (m *executorMetrics) recordRun(state State, duration time.Duration, depth int) {
	m.runs.WithLabelValues(state.String()).Inc()
	m.runDuration.WithLabelValues(state.String()).Observe(duration.Seconds())
	m.queueDepth.Set(float64(depth))
}

// updateDepth sets queue depth and utilization gauges.
func (m *executorMetrics) updateDepth(depth, capacity int) {
	m.queueDepth.Set(float64(depth))
	m.utilization.Set(float64(depth) / float64(capacity))
}
