// Package queue provides generic, bounded, thread-safe queues for staging
// work between pipeline stages.
//
// Two implementations are available:
//   - Bounded: fixed-capacity FIFO queue backed by a ring
//   - Priority: fixed-capacity queue ordered by a caller-supplied less
//     function, FIFO within equal priority
//
// Both share the same blocking contract. Put blocks while the queue is full,
// Take blocks while it is empty, and every state change broadcasts to all
// waiters so each one re-checks its predicate in a loop. After Close, queued
// items remain takeable until drained; an empty closed queue yields ErrClosed
// from Take as the end-of-stream marker.
//
// Statistics are always collected. Prometheus metrics are optional via the
// WithMetrics functional option.
package queue

import (
	"context"
	"time"

	"github.com/c360/orderflow/errors"
)

// Queue is a bounded, thread-safe queue parameterized by item type T.
type Queue[T any] interface {
	// Put adds an item, blocking while the queue is full. It returns a
	// wrapped ErrClosed if the queue is closed, or ctx.Err() if the context
	// is cancelled before space opens up. On error the item is not enqueued.
	Put(ctx context.Context, item T) error

	// PutTimeout is Put bounded by a timeout. A queue that stays full for
	// the whole window yields a wrapped ErrCapacityTimeout.
	PutTimeout(item T, timeout time.Duration) error

	// TryPut adds an item without blocking. A full queue yields a wrapped
	// ErrQueueFull, a closed queue a wrapped ErrClosed.
	TryPut(item T) error

	// Take removes and returns the oldest (or highest-priority) item,
	// blocking while the queue is empty. Items enqueued before Close are
	// still delivered; once the queue is closed and drained Take returns a
	// wrapped ErrClosed. Cancellation returns ctx.Err().
	Take(ctx context.Context) (T, error)

	// TryTake removes and returns an item without blocking.
	// Returns the zero value and false if the queue is empty.
	TryTake() (T, bool)

	// Len returns the current number of queued items.
	Len() int

	// Cap returns the fixed capacity.
	Cap() int

	// Close marks the queue closed for new work and wakes all waiters.
	// Close is idempotent; repeated calls return nil.
	Close() error

	// Closed reports whether Close has been called.
	Closed() bool

	// Stats returns queue statistics (always available for observability).
	Stats() *Statistics
}

// NewBounded creates a FIFO queue with the given capacity.
// Capacity values below 1 are raised to 1.
// Returns an error if metrics registration fails when metrics are requested.
func NewBounded[T any](capacity int, options ...Option[T]) (Queue[T], error) {
	if capacity <= 0 {
		capacity = 1 // Minimum capacity
	}
	opts := applyOptions(options...)
	return newBlockingQueue(capacity, newRingStore[T](capacity), opts)
}

// NewPriority creates a priority queue with the given capacity. The less
// function defines ordering; items for which neither less(a, b) nor
// less(b, a) holds are delivered in arrival order.
func NewPriority[T any](capacity int, less func(a, b T) bool, options ...Option[T]) (Queue[T], error) {
	if capacity <= 0 {
		capacity = 1 // Minimum capacity
	}
	if less == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Queue", "NewPriority", "nil less function")
	}
	opts := applyOptions(options...)
	return newBlockingQueue(capacity, newHeapStore(capacity, less), opts)
}
