// Package health provides health monitoring functionality for pipeline
// components with thread-safe status tracking and aggregation.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// The three-state model enables nuanced operational responses. A degraded
// queue (high depth, still draining) might trigger backpressure tuning,
// while an unhealthy dispatch executor triggers shutdown.
//
// # Core Components
//
// Status: individual component health containing status level, descriptive
// message, timestamp, optional metrics, and hierarchical sub-statuses.
//
// Monitor: thread-safe centralized tracking for multiple component health
// statuses with concurrent read/write access and automatic timestamps.
//
// # Basic Usage
//
//	monitor := health.NewMonitor()
//
//	monitor.UpdateHealthy("queue", "accepting work")
//	monitor.UpdateDegraded("guard", "reservation contention high")
//	monitor.UpdateUnhealthy("dispatch-executor", "all workers stalled")
//
//	if status, exists := monitor.Get("queue"); exists && status.IsHealthy() {
//	    // queue is fine
//	}
//
//	system := monitor.AggregateHealth("pipeline")
//
// Aggregation uses hierarchical rules: any unhealthy component makes the
// system unhealthy; any degraded component (with no unhealthy) makes it
// degraded; otherwise healthy.
//
// # Error Sanitization
//
// FromError converts an error into an Unhealthy status while sanitizing the
// message to remove potentially sensitive information:
//   - URLs: http://, https:// -> [URL]
//   - File paths: /path/to/file, C:\path\to\file -> [PATH]
//   - IP addresses: 192.168.1.100 -> [IP]
//   - Ports: :8080 -> :[PORT]
//   - Credentials: password=X, token=X, key=X, secret=X -> [REDACTED]
//
// Sanitization is always on. Over-redaction during debugging is preferred
// over credential exposure in health dashboards.
//
// # Thread Safety
//
// All Monitor operations are safe for concurrent use. The Monitor uses an
// RWMutex internally to allow concurrent reads while protecting writes.
// Status objects are value types: methods like WithMetrics and WithSubStatus
// return copies rather than modifying the original.
//
// # Error Handling Philosophy
//
// The health package does not return errors because it represents the result
// of error handling, not part of error propagation. Components should wrap
// errors with the errors package before converting them to health status
// messages; FromError then sanitizes for safe display.
package health
