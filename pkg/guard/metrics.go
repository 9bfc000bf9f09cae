package guard

import (
	"github.com/c360/orderflow/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// guardMetrics holds Prometheus metrics for guard activity.
type guardMetrics struct {
	reserves    prometheus.Counter
	reserveAlls prometheus.Counter
	releases    prometheus.Counter
	releaseAlls prometheus.Counter
	failures    prometheus.Counter

	// units tracks remaining quantity per resource key
	units *prometheus.GaugeVec
}

// newGuardMetrics creates and registers guard metrics with the provided registry.
func newGuardMetrics(registry *metric.MetricsRegistry, name string) (*guardMetrics, error) {
	m := &guardMetrics{
		reserves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "guard",
			Name:        "reserves_total",
			ConstLabels: prometheus.Labels{"guard": name},
			Help:        "Total number of successful single-key reservations",
		}),
		reserveAlls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "guard",
			Name:        "reserve_alls_total",
			ConstLabels: prometheus.Labels{"guard": name},
			Help:        "Total number of successful multi-key reservations",
		}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "guard",
			Name:        "releases_total",
			ConstLabels: prometheus.Labels{"guard": name},
			Help:        "Total number of single-key releases",
		}),
		releaseAlls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "guard",
			Name:        "release_alls_total",
			ConstLabels: prometheus.Labels{"guard": name},
			Help:        "Total number of multi-key releases",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orderflow",
			Subsystem:   "guard",
			Name:        "failures_total",
			ConstLabels: prometheus.Labels{"guard": name},
			Help:        "Total number of failed reservations",
		}),
		units: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "orderflow",
			Subsystem:   "guard",
			Name:        "units_remaining",
			ConstLabels: prometheus.Labels{"guard": name},
			Help:        "Units currently available per resource key",
		}, []string{"resource"}),
	}

	if err := registry.RegisterCounter(name, "guard_reserves", m.reserves); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "guard_reserve_alls", m.reserveAlls); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "guard_releases", m.releases); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "guard_release_alls", m.releaseAlls); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "guard_failures", m.failures); err != nil {
		return nil, err
	}
	if err := registry.RegisterGaugeVec(name, "guard_units", m.units); err != nil {
		return nil, err
	}

	return m, nil
}

// recordReserve increments the reservation counter and updates remaining units.
func (m *guardMetrics) recordReserve(key string, remaining int64) {
	m.reserves.Inc()
	m.units.WithLabelValues(key).Set(float64(remaining))
}

// recordReserveAll increments the multi-key reservation counter.
func (m *guardMetrics) recordReserveAll() {
	m.reserveAlls.Inc()
}

// recordRelease increments the release counter and updates remaining units.
func (m *guardMetrics) recordRelease(key string, remaining int64) {
	m.releases.Inc()
	m.units.WithLabelValues(key).Set(float64(remaining))
}

// recordReleaseAll increments the multi-key release counter.
func (m *guardMetrics) recordReleaseAll() {
	m.releaseAlls.Inc()
}

// recordFailure increments the failed reservation counter.
func (m *guardMetrics) recordFailure() {
	m.failures.Inc()
}

// setUnits updates the remaining units gauge for a resource key.
func (m *guardMetrics) setUnits(key string, remaining int64) {
	m.units.WithLabelValues(key).Set(float64(remaining))
}
