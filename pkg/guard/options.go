package guard

import (
	"github.com/c360/orderflow/metric"
)

// Option configures guard behavior using the functional options pattern.
type Option func(*guardOptions)

// guardOptions holds internal configuration for guard instances.
type guardOptions struct {
	// metricsReg is optional - if provided, guard activity is exposed as
	// Prometheus metrics
	metricsReg *metric.MetricsRegistry

	// metricsName labels the metrics so multiple guards can share a registry
	metricsName string
}

// WithMetrics enables Prometheus metrics export for guard activity.
// If registry is nil or name is empty, this option is ignored.
func WithMetrics(registry *metric.MetricsRegistry, name string) Option {
	return func(opts *guardOptions) {
		if registry != nil && name != "" {
			opts.metricsReg = registry
			opts.metricsName = name
		}
	}
}

// applyOptions applies functional options to create final guard configuration.
func applyOptions(options ...Option) *guardOptions {
	opts := &guardOptions{}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
