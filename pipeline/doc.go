// Package pipeline implements a bounded, two-stage order-processing
// pipeline with backpressure, atomic resource reservation, and a
// multi-phase graceful shutdown.
//
// # Data flow
//
//	producers ──Submit──> bounded queue ──> reserve workers ──> dispatch
//	                                             │               executor
//	                                       ResourceGuard             │
//	                                      (atomic reserve)     DependentWork
//	                                                           (bounded await)
//
// Submit blocks when the admission queue is full, so producers feel
// backpressure instead of growing an unbounded buffer. A fixed set of
// reserve workers pulls items in FIFO order (or priority order when
// configured), claims each item's resource demands atomically through a
// ReservationBackend, and hands the dependent business operation to a
// separately sized executor for blocking work. Every wait on dependent
// work is bounded by the configured await timeout.
//
// # Guarantees
//
//   - An item reaches exactly one terminal status: Completed, Failed, or
//     Cancelled. Reservation failures and dependent errors become item
//     statuses, never panics or silent drops.
//   - A successful reservation is rolled back on every non-completed exit:
//     timeout, dependent error, or cancellation. No reservation is
//     orphaned.
//   - Cancellation is cooperative. Handle.Cancel sets a flag the owning
//     worker re-checks between blocking steps; contexts propagate into
//     dependent work. Nothing is force-killed.
//
// # Shutdown
//
// Shutdown(drainTimeout, forceGrace) drives the one-directional mode
// machine Accepting -> Draining -> ForceStopping -> Stopped. Draining
// closes the queue and lets admitted work finish; only if the drain times
// out is cancellation broadcast, followed by a bounded grace wait. The
// returned ShutdownReport accounts for every admitted item.
package pipeline
