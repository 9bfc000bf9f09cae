package metric

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	err := registry.RegisterCounter("test-component", "test_counter", counter)
	require.NoError(t, err)

	// Should be able to increment the counter
	counter.Inc()

	// Verify the counter is registered in the underlying Prometheus registry
	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_counter" {
			found = true
			break
		}
	}
	assert.True(t, found, "Counter should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterGauge(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "A test gauge",
	})

	err := registry.RegisterGauge("test-component", "test_gauge", gauge)
	require.NoError(t, err)

	gauge.Set(42.0)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_gauge" {
			found = true
			break
		}
	}
	assert.True(t, found, "Gauge should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterHistogram(t *testing.T) {
	registry := NewMetricsRegistry()

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_histogram",
		Help:    "A test histogram",
		Buckets: prometheus.DefBuckets,
	})

	err := registry.RegisterHistogram("test-component", "test_histogram", histogram)
	require.NoError(t, err)

	histogram.Observe(1.5)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_histogram" {
			found = true
			break
		}
	}
	assert.True(t, found, "Histogram should be registered in Prometheus registry")
}

func TestMetricsRegistry_PreventDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	counter1 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter",
		Help: "First counter",
	})

	counter2 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter",
		Help: "First counter", // Same help to avoid Prometheus validation error
	})

	// First registration should succeed
	err := registry.RegisterCounter("component1", "duplicate_counter", counter1)
	require.NoError(t, err)

	// Second registration with same name should fail
	err = registry.RegisterCounter("component2", "duplicate_counter", counter2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus conflict")
}

func TestMetricsRegistry_UnregisterMetric(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unregister_counter",
		Help: "A counter to unregister",
	})

	err := registry.RegisterCounter("test-component", "unregister_counter", counter)
	require.NoError(t, err)

	success := registry.Unregister("test-component", "unregister_counter")
	assert.True(t, success)

	// Verify it's no longer registered
	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "unregister_counter" {
			found = true
			break
		}
	}
	assert.False(t, found)
}

func TestMetricsRegistry_ThreadSafety(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	numGoroutines := 10

	// Register metrics concurrently
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			counter := prometheus.NewCounter(prometheus.CounterOpts{
				Name: fmt.Sprintf("concurrent_counter_%d", id),
				Help: "A concurrent counter",
			})

			err := registry.RegisterCounter("concurrent-component",
				fmt.Sprintf("concurrent_counter_%d", id), counter)
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	// Verify all metrics were registered
	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	counterCount := 0
	for _, mf := range metricFamilies {
		if strings.HasPrefix(mf.GetName(), "concurrent_counter_") {
			counterCount++
		}
	}

	assert.Equal(t, numGoroutines, counterCount,
		"All concurrent counters should be registered")
}

func TestMetricsRegistrar_Interface(t *testing.T) {
	registry := NewMetricsRegistry()

	// Verify registry implements MetricsRegistrar interface
	var registrar MetricsRegistrar = registry
	assert.NotNil(t, registrar)

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interface_counter",
		Help: "Counter registered through interface",
	})

	err := registrar.RegisterCounter("interface-component", "interface_counter", counter)
	require.NoError(t, err)
}

func TestMetricsRegistry_CoreMetricsInitialization(t *testing.T) {
	registry := NewMetricsRegistry()

	// Vector metrics don't appear in Gather() until they have at least one value set
	coreMetrics := registry.CoreMetrics()

	coreMetrics.RecordPipelineMode("orders", 0)
	coreMetrics.RecordItemSubmitted("orders")
	coreMetrics.RecordItemFinalized("orders", "completed")
	coreMetrics.RecordItemsInFlight("orders", 3)
	coreMetrics.RecordStageDuration("orders", "reserve", 100*time.Millisecond)
	coreMetrics.RecordReserveAttempt("orders", "success")
	coreMetrics.RecordRollback("orders", "dependent_timeout")
	coreMetrics.RecordResourceUnits("sku-1", 50)
	coreMetrics.RecordError("pipeline", "dependent")
	coreMetrics.RecordHealthStatus("pipeline", true)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	expectedCoreMetrics := []string{
		"orderflow_pipeline_mode",
		"orderflow_pipeline_items_submitted_total",
		"orderflow_pipeline_items_finalized_total",
		"orderflow_pipeline_items_in_flight",
		"orderflow_pipeline_stage_duration_seconds",
		"orderflow_reserve_attempts_total",
		"orderflow_reserve_rollbacks_total",
		"orderflow_resources_units_available",
		"orderflow_errors_total",
		"orderflow_health_status",
	}

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	for _, expectedMetric := range expectedCoreMetrics {
		assert.True(t, foundMetrics[expectedMetric],
			"core metric %s should be initialized", expectedMetric)
	}
}

func TestMetricsRegistry_GetCoreMetrics(t *testing.T) {
	registry := NewMetricsRegistry()

	coreMetrics := registry.CoreMetrics()
	assert.NotNil(t, coreMetrics)

	assert.NotNil(t, coreMetrics.PipelineMode)
	assert.NotNil(t, coreMetrics.ItemsSubmitted)
	assert.NotNil(t, coreMetrics.ItemsFinalized)
	assert.NotNil(t, coreMetrics.ItemsInFlight)
	assert.NotNil(t, coreMetrics.StageDuration)
	assert.NotNil(t, coreMetrics.ReserveAttempts)
	assert.NotNil(t, coreMetrics.Rollbacks)
	assert.NotNil(t, coreMetrics.ResourceUnits)
	assert.NotNil(t, coreMetrics.ErrorsTotal)
	assert.NotNil(t, coreMetrics.HealthCheckStatus)
}

func TestCoreMetrics_RecordMethods(t *testing.T) {
	registry := NewMetricsRegistry()
	coreMetrics := registry.CoreMetrics()

	// Pipeline recording
	coreMetrics.RecordPipelineMode("orders", 1)
	coreMetrics.RecordItemSubmitted("orders")
	coreMetrics.RecordItemFinalized("orders", "failed")
	coreMetrics.RecordItemsInFlight("orders", 7)
	coreMetrics.RecordStageDuration("orders", "dispatch", 250*time.Millisecond)

	// Reservation recording
	coreMetrics.RecordReserveAttempt("orders", "insufficient")
	coreMetrics.RecordRollback("orders", "cancelled")
	coreMetrics.RecordResourceUnits("sku-2", 12)

	// Cross-cutting recording
	coreMetrics.RecordError("executor", "panic")
	coreMetrics.RecordHealthStatus("executor", false)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	assert.Greater(t, len(metricFamilies), 0, "Should have recorded metrics")
}
