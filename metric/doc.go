// Package metric provides Prometheus-based metrics collection and an HTTP server
// for OrderFlow pipeline monitoring and observability.
//
// The package offers a centralized metrics registry managing both core platform
// metrics (pipeline mode, item throughput, reservation activity) and custom
// component-specific metrics. It includes an HTTP server exposing metrics in
// Prometheus format for monitoring system integration.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Platform-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics
//     (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// This separates infrastructure concerns (core metrics) from component concerns
// (queue depth, executor stats) while providing a unified metrics endpoint.
//
// # Basic Usage
//
// Setting up metrics collection and HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core platform metrics
//	core := registry.CoreMetrics()
//	core.RecordPipelineMode("orders", 0)
//	core.RecordItemFinalized("orders", "completed")
//	core.RecordStageDuration("orders", "reserve", elapsed)
//
// The metrics server exposes Prometheus-formatted metrics at
// http://localhost:9090/metrics and a health check at http://localhost:9090/health.
//
// # Core Metrics
//
// The package automatically registers core platform metrics tracking:
//
//   - Pipeline lifecycle: pipeline_mode (0=accepting, 1=draining, 2=force_stopping, 3=stopped)
//   - Item flow: items_submitted_total, items_finalized_total{status}, items_in_flight
//   - Stage performance: stage_duration_seconds{stage}
//   - Reservations: reserve_attempts_total{outcome}, reserve_rollbacks_total{reason},
//     resources_units_available{resource}
//   - Error tracking: errors_total, health_status
//
// # Component Metrics
//
// Components register their own instruments through the MetricsRegistrar
// interface, keyed "component.metric" with duplicate detection:
//
//	err := registry.RegisterGauge("queue", "depth", depthGauge)
//
// # Thread Safety
//
// All registry operations are safe for concurrent use.
package metric
