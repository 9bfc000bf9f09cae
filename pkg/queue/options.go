package queue

import (
	"github.com/c360/orderflow/metric"
)

// Option configures queue behavior using the functional options pattern.
type Option[T any] func(*queueOptions[T])

// queueOptions holds internal configuration for queue instances.
// Stats are ALWAYS collected; metrics are optional via WithMetrics().
type queueOptions[T any] struct {
	// metricsReg is optional - if provided, queue stats are also exposed
	// as Prometheus metrics
	metricsReg *metric.MetricsRegistry

	// metricsName is used as the queue label for Prometheus metrics
	metricsName string
}

// WithMetrics enables Prometheus metrics export for queue statistics.
// The name labels the metrics so multiple queues can share a registry.
// If registry is nil or name is empty, this option is ignored.
func WithMetrics[T any](registry *metric.MetricsRegistry, name string) Option[T] {
	return func(opts *queueOptions[T]) {
		if registry != nil && name != "" {
			opts.metricsReg = registry
			opts.metricsName = name
		}
	}
}

// applyOptions applies functional options to create final queue configuration.
func applyOptions[T any](options ...Option[T]) *queueOptions[T] {
	opts := &queueOptions[T]{}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
