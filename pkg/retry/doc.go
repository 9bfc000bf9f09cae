// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential backoff, used by the
// pipeline for contended resource reservations and anywhere a bounded abort-and-retry
// loop is preferable to holding locks while waiting.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 10ms-500ms delay (contended reservations)
//   - Persistent(): 30 attempts, 200ms-10s delay (slow-recovering resources)
//
// # Usage Examples
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return store.Open()
//	})
//
// Reservation retry under contention:
//
//	cfg := retry.Quick()
//	err := retry.Do(ctx, cfg, func() error {
//	    if !g.TryReserveAll(demands) {
//	        return errors.ErrReservationFailed
//	    }
//	    return nil
//	})
//
// Marking an error as terminal:
//
//	return retry.NonRetryable(err) // Do() stops immediately
//
// # Design Philosophy
//
// This package is intentionally minimal:
//
//   - No circuit breakers
//   - No metrics collection (instrument at the call site)
//   - No error classification (caller decides what to retry)
//   - Just exponential backoff with jitter
//
// # Context Cancellation
//
// All retry operations respect context cancellation and will immediately stop retrying
// when the context is cancelled, either during operation execution or during backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use.
package retry
