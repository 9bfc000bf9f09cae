package task

import (
	"github.com/c360/orderflow/metric"
)

// Option configures executor behavior using the functional options pattern.
type Option[R any] func(*executorOptions)

// executorOptions holds internal configuration for executor instances.
type executorOptions struct {
	// metricsReg is optional - if provided, executor activity is exposed
	// as Prometheus metrics
	metricsReg *metric.MetricsRegistry

	// metricsName labels the metrics so multiple executors can share a registry
	metricsName string
}

// WithMetrics enables Prometheus metrics export for executor activity.
// If registry is nil or name is empty, this option is ignored.
func WithMetrics[R any](registry *metric.MetricsRegistry, name string) Option[R] {
	return func(opts *executorOptions) {
		if registry != nil && name != "" {
			opts.metricsReg = registry
			opts.metricsName = name
		}
	}
}

// applyOptions applies functional options to create final executor configuration.
func applyOptions[R any](options ...Option[R]) *executorOptions {
	opts := &executorOptions{}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
