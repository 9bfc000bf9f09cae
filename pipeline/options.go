package pipeline

import (
	"log/slog"

	"github.com/c360/orderflow/health"
	"github.com/c360/orderflow/metric"
)

// Option configures pipeline behavior using the functional options pattern.
type Option[P any] func(*pipelineOptions)

// pipelineOptions holds internal configuration for pipeline instances.
type pipelineOptions struct {
	logger *slog.Logger

	// metricsReg is optional - if provided, pipeline, queue, and executor
	// activity is exposed as Prometheus metrics
	metricsReg *metric.MetricsRegistry

	// healthMonitor is optional - if provided, the pipeline publishes its
	// mode as a health status
	healthMonitor *health.Monitor
}

// WithLogger sets the logger for pipeline events. Defaults to
// slog.Default() with a component attribute.
func WithLogger[P any](logger *slog.Logger) Option[P] {
	return func(opts *pipelineOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics export for the pipeline and its
// queue and dispatch executor. If registry is nil, this option is ignored.
func WithMetrics[P any](registry *metric.MetricsRegistry) Option[P] {
	return func(opts *pipelineOptions) {
		if registry != nil {
			opts.metricsReg = registry
		}
	}
}

// WithHealth publishes the pipeline's lifecycle mode into the monitor:
// healthy while accepting, degraded while draining or force-stopping,
// unhealthy once stopped. If monitor is nil, this option is ignored.
func WithHealth[P any](monitor *health.Monitor) Option[P] {
	return func(opts *pipelineOptions) {
		if monitor != nil {
			opts.healthMonitor = monitor
		}
	}
}

func applyOptions[P any](options ...Option[P]) *pipelineOptions {
	opts := &pipelineOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
