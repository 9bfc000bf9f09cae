package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds core platform metrics shared across pipeline components
type Metrics struct {
	// Pipeline metrics
	PipelineMode   *prometheus.GaugeVec
	ItemsSubmitted *prometheus.CounterVec
	ItemsFinalized *prometheus.CounterVec
	ItemsInFlight  *prometheus.GaugeVec
	StageDuration  *prometheus.HistogramVec

	// Reservation metrics
	ReserveAttempts *prometheus.CounterVec
	Rollbacks       *prometheus.CounterVec
	ResourceUnits   *prometheus.GaugeVec

	// Cross-cutting metrics
	ErrorsTotal       *prometheus.CounterVec
	HealthCheckStatus *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Pipeline metrics
		PipelineMode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "orderflow",
				Subsystem: "pipeline",
				Name:      "mode",
				Help:      "Pipeline mode (0=accepting, 1=draining, 2=force_stopping, 3=stopped)",
			},
			[]string{"pipeline"},
		),

		ItemsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orderflow",
				Subsystem: "pipeline",
				Name:      "items_submitted_total",
				Help:      "Total number of items admitted to the pipeline",
			},
			[]string{"pipeline"},
		),

		ItemsFinalized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orderflow",
				Subsystem: "pipeline",
				Name:      "items_finalized_total",
				Help:      "Total number of items reaching a terminal status",
			},
			[]string{"pipeline", "status"},
		),

		ItemsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "orderflow",
				Subsystem: "pipeline",
				Name:      "items_in_flight",
				Help:      "Number of items currently between admission and a terminal status",
			},
			[]string{"pipeline"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "orderflow",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Stage processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline", "stage"},
		),

		// Reservation metrics
		ReserveAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orderflow",
				Subsystem: "reserve",
				Name:      "attempts_total",
				Help:      "Total number of reservation attempts",
			},
			[]string{"pipeline", "outcome"},
		),

		Rollbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orderflow",
				Subsystem: "reserve",
				Name:      "rollbacks_total",
				Help:      "Total number of reservation rollbacks",
			},
			[]string{"pipeline", "reason"},
		),

		ResourceUnits: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "orderflow",
				Subsystem: "resources",
				Name:      "units_available",
				Help:      "Available units per resource key",
			},
			[]string{"resource"},
		),

		// Cross-cutting metrics
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orderflow",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"component", "type"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "orderflow",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),
	}
}

// RecordPipelineMode updates the pipeline mode gauge
func (c *Metrics) RecordPipelineMode(pipeline string, mode int) {
	c.PipelineMode.WithLabelValues(pipeline).Set(float64(mode))
}

// RecordItemSubmitted increments the admitted item counter
func (c *Metrics) RecordItemSubmitted(pipeline string) {
	c.ItemsSubmitted.WithLabelValues(pipeline).Inc()
}

// RecordItemFinalized increments the terminal status counter
func (c *Metrics) RecordItemFinalized(pipeline, status string) {
	c.ItemsFinalized.WithLabelValues(pipeline, status).Inc()
}

// RecordItemsInFlight updates the in-flight item gauge
func (c *Metrics) RecordItemsInFlight(pipeline string, count int) {
	c.ItemsInFlight.WithLabelValues(pipeline).Set(float64(count))
}

// RecordStageDuration records stage processing time
func (c *Metrics) RecordStageDuration(pipeline, stage string, duration time.Duration) {
	c.StageDuration.WithLabelValues(pipeline, stage).Observe(duration.Seconds())
}

// RecordReserveAttempt increments the reservation attempt counter
func (c *Metrics) RecordReserveAttempt(pipeline, outcome string) {
	c.ReserveAttempts.WithLabelValues(pipeline, outcome).Inc()
}

// RecordRollback increments the rollback counter
func (c *Metrics) RecordRollback(pipeline, reason string) {
	c.Rollbacks.WithLabelValues(pipeline, reason).Inc()
}

// RecordResourceUnits updates the available units gauge for a resource
func (c *Metrics) RecordResourceUnits(resource string, units int64) {
	c.ResourceUnits.WithLabelValues(resource).Set(float64(units))
}

// RecordError increments error counter
func (c *Metrics) RecordError(component, errorType string) {
	c.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(component).Set(value)
}
