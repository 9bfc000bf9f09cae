package queue

import (
	"github.com/c360/orderflow/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// queueMetrics holds Prometheus metrics for queue operations.
type queueMetrics struct {
	// Counter metrics - incremented directly on operations
	puts       prometheus.Counter
	takes      prometheus.Counter
	putBlocks  prometheus.Counter
	takeBlocks prometheus.Counter
	rejects    prometheus.Counter
	timeouts   prometheus.Counter

	// Gauge metrics - updated on operations
	depth       prometheus.Gauge
	utilization prometheus.Gauge
}

// newQueueMetrics creates and registers queue metrics with the provided registry.
func newQueueMetrics(registry *metric.MetricsRegistry, name string) (*queueMetrics, error) {
	m := &queueMetrics{
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "queue",
			Name:        "puts_total",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Total number of items enqueued",
		}),
		takes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "queue",
			Name:        "takes_total",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Total number of items dequeued",
		}),
		putBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "queue",
			Name:        "put_blocks_total",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Total number of producers that blocked on a full queue",
		}),
		takeBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "queue",
			Name:        "take_blocks_total",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Total number of consumers that blocked on an empty queue",
		}),
		rejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "queue",
			Name:        "rejects_total",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Total number of non-blocking puts refused at capacity",
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "queue",
			Name:        "timeouts_total",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Total number of timed puts that expired before space opened",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "orderflow",
			Subsystem:   "queue",
			Name:        "depth",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Current number of queued items",
		}),
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "orderflow",
			Subsystem:   "queue",
			Name:        "utilization",
			ConstLabels: prometheus.Labels{"queue": name},
			Help:        "Queue depth as a fraction of capacity (0.0 to 1.0)",
		}),
	}

	// Register all metrics with the registry
	if err := registry.RegisterCounter(name, "queue_puts", m.puts); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "queue_takes", m.takes); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "queue_put_blocks", m.putBlocks); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "queue_take_blocks", m.takeBlocks); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "queue_rejects", m.rejects); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "queue_timeouts", m.timeouts); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "queue_depth", m.depth); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "queue_utilization", m.utilization); err != nil {
		return nil, err
	}

	return m, nil
}

// recordPut increments the put counter and updates depth/utilization.
func (m *queueMetrics) recordPut(depth, capacity int) {
	m.puts.Inc()
	m.depth.Set(float64(depth))
	m.utilization.Set(float64(depth) / float64(capacity))
}

// recordTake increments the take counter and updates depth/utilization.
func (m *queueMetrics) recordTake(depth, capacity int) {
	m.takes.Inc()
	m.depth.Set(float64(depth))
	m.utilization.Set(float64(depth) / float64(capacity))
}

// recordPutBlocked increments the producer blocking counter.
func (m *queueMetrics) recordPutBlocked() {
	m.putBlocks.Inc()
}

// recordTakeBlocked increments the consumer blocking counter.
func (m *queueMetrics) recordTakeBlocked() {
	m.takeBlocks.Inc()
}

// recordReject increments the rejected put counter.
func (m *queueMetrics) recordReject() {
	m.rejects.Inc()
}

// recordTimeout increments the expired timed put counter.
func (m *queueMetrics) recordTimeout() {
	m.timeouts.Inc()
}
