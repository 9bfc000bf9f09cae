// Package errors provides standardized error handling patterns for OrderFlow components.
//
// # Overview
//
// The errors package implements a three-class error classification system for
// concurrent pipeline processing: Transient (temporary, retryable), Invalid
// (bad input, non-retryable), and Fatal (unrecoverable, stop processing).
// Cancellation sits outside the retry classes: a cancelled operation is never
// retried and IsCancelled keeps it distinguishable through wrapping chains.
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if q.Closed() {
//	    return errors.ErrClosed
//	}
//
// Wrap errors with context for debugging:
//
//	if err := backend.TryReserveAll(demands); err != nil {
//	    return errors.Wrap(err, "Pipeline", "reserve", "resource reservation")
//	}
//
// Check classification for retry logic:
//
//	if err := op(); err != nil {
//	    if errors.IsCancelled(err) {
//	        return err // never retried, never swallowed
//	    }
//	    if errors.IsTransient(err) {
//	        // retry with backoff via pkg/retry
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// The generic Wrap() preserves the original error's classification.
//
// # Pipeline Error Taxonomy
//
// Standard variables cover the outcomes a pipeline stage can produce:
//
//   - Admission: ErrClosed, ErrQueueFull, ErrCapacityTimeout
//   - Reservation: ErrReservationFailed, ErrInvalidQuantity
//   - Dependent work: ErrDependentTimeout, ErrDependentFailed, ErrNilWork
//   - Cancellation: ErrCancelled (also matched by context.Canceled)
//   - Lifecycle: ErrAlreadyStarted, ErrNotStarted, ErrAlreadyStopped,
//     ErrShuttingDown, ErrStopTimeout
//
// # Retry Configuration
//
// RetryConfig carries backoff parameters and bridges into the retry package:
//
//	cfg := errors.DefaultRetryConfig()
//	retryCfg := cfg.ToRetryConfig()
//	err := retry.Do(ctx, retryCfg, op)
//
// # Thread Safety
//
// All classification and wrapping operations are thread-safe. Error variables
// are immutable and safe for concurrent access.
package errors
