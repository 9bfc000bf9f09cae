package queue

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/c360/orderflow/errors"
)

// store is the storage discipline behind a blockingQueue: a FIFO ring for
// Bounded, a heap for Priority. Callers hold the queue lock and guarantee
// push is never called on a full store nor pop on an empty one.
type store[T any] interface {
	push(item T)
	pop() T
	len() int
}

// ringStore is FIFO storage over a fixed slice.
type ringStore[T any] struct {
	items []T
	head  int // next write position
	tail  int // next read position
	count int
}

func newRingStore[T any](capacity int) *ringStore[T] {
	return &ringStore[T]{items: make([]T, capacity)}
}

func (r *ringStore[T]) push(item T) {
	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	r.count++
}

func (r *ringStore[T]) pop() T {
	var zero T
	item := r.items[r.tail]
	r.items[r.tail] = zero // Clear for GC
	r.tail = (r.tail + 1) % len(r.items)
	r.count--
	return item
}

func (r *ringStore[T]) len() int { return r.count }

// blockingQueue implements Queue over a pluggable store. Waiters loop on
// their predicate and every state change broadcasts to both condition
// variables' waiters, so a woken goroutine that finds its predicate still
// false simply waits again. Broadcast rather than Signal: a single signal
// handed to a waiter that then observes close or loses a TryTake race would
// strand the remaining waiters.
type blockingQueue[T any] struct {
	mu       sync.RWMutex
	store    store[T]
	capacity int
	closed   bool

	notEmpty *sync.Cond
	notFull  *sync.Cond

	stats   *Statistics // ALWAYS initialized for observability
	metrics *queueMetrics
}

// newBlockingQueue wires storage, stats, and optional metrics.
// Returns an error if metrics registration fails when requested.
func newBlockingQueue[T any](capacity int, st store[T], opts *queueOptions[T]) (*blockingQueue[T], error) {
	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *queueMetrics
	// Optionally expose stats as Prometheus metrics
	if opts.metricsReg != nil && opts.metricsName != "" {
		var err error
		metrics, err = newQueueMetrics(opts.metricsReg, opts.metricsName)
		if err != nil {
			return nil, errors.WrapTransient(err, "queue", "newBlockingQueue", "metrics registration")
		}
	}

	q := &blockingQueue[T]{
		store:    st,
		capacity: capacity,
		stats:    stats,
		metrics:  metrics,
	}

	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)

	return q, nil
}

// Put adds an item, blocking while the queue is full.
func (q *blockingQueue[T]) Put(ctx context.Context, item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.WrapInvalid(errors.ErrClosed, "Queue", "Put", "queue closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if q.store.len() == q.capacity {
		q.stats.PutBlocked()
		if q.metrics != nil {
			q.metrics.recordPutBlocked()
		}

		// Wake all waiters when the context fires so the loop re-checks.
		// Broadcast is safe without holding the mutex.
		stop := context.AfterFunc(ctx, q.notFull.Broadcast)
		defer stop()

		for q.store.len() == q.capacity && !q.closed {
			q.notFull.Wait()
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if q.closed {
			return errors.WrapInvalid(errors.ErrClosed, "Queue", "Put", "queue closed during blocking wait")
		}
	}

	q.insert(item)
	return nil
}

// PutTimeout is Put bounded by a timeout. Timeout expiry while the queue is
// still full maps to ErrCapacityTimeout so callers can distinguish capacity
// pressure from caller-initiated cancellation.
func (q *blockingQueue[T]) PutTimeout(item T, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := q.Put(ctx, item)
	if stderrors.Is(err, context.DeadlineExceeded) {
		q.stats.Timeout()
		if q.metrics != nil {
			q.metrics.recordTimeout()
		}
		return errors.WrapTransient(errors.ErrCapacityTimeout, "Queue", "PutTimeout", "capacity wait expired")
	}
	return err
}

// TryPut adds an item without blocking.
func (q *blockingQueue[T]) TryPut(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.WrapInvalid(errors.ErrClosed, "Queue", "TryPut", "queue closed")
	}
	if q.store.len() == q.capacity {
		q.stats.Reject()
		if q.metrics != nil {
			q.metrics.recordReject()
		}
		return errors.WrapTransient(errors.ErrQueueFull, "Queue", "TryPut", "queue at capacity")
	}

	q.insert(item)
	return nil
}

// Take removes and returns an item, blocking while the queue is empty.
// A closed queue drains before reporting end of stream.
func (q *blockingQueue[T]) Take(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if q.store.len() == 0 && !q.closed {
		q.stats.TakeBlocked()
		if q.metrics != nil {
			q.metrics.recordTakeBlocked()
		}

		stop := context.AfterFunc(ctx, q.notEmpty.Broadcast)
		defer stop()

		for q.store.len() == 0 && !q.closed {
			q.notEmpty.Wait()
			if err := ctx.Err(); err != nil {
				return zero, err
			}
		}
	}

	if q.store.len() == 0 {
		// Closed and fully drained: end of stream.
		return zero, errors.WrapInvalid(errors.ErrClosed, "Queue", "Take", "queue closed and drained")
	}

	return q.remove(), nil
}

// TryTake removes and returns an item without blocking.
func (q *blockingQueue[T]) TryTake() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.store.len() == 0 {
		return zero, false
	}
	return q.remove(), true
}

// Len returns the current number of queued items.
func (q *blockingQueue[T]) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.store.len()
}

// Cap returns the fixed capacity.
func (q *blockingQueue[T]) Cap() int {
	return q.capacity // Immutable, so no lock needed
}

// Close marks the queue closed for new work. Queued items remain takeable
// until drained. Idempotent.
func (q *blockingQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true

	// Wake up all waiting goroutines so they observe the close
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()

	return nil
}

// Closed reports whether Close has been called.
func (q *blockingQueue[T]) Closed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Stats returns queue statistics (always available for observability).
func (q *blockingQueue[T]) Stats() *Statistics {
	return q.stats
}

// insert appends under q.mu and wakes takers.
func (q *blockingQueue[T]) insert(item T) {
	q.store.push(item)

	depth := q.store.len()
	q.stats.Put()
	q.stats.UpdateDepth(int64(depth))
	if q.metrics != nil {
		q.metrics.recordPut(depth, q.capacity)
	}

	q.notEmpty.Broadcast()
}

// remove pops under q.mu and wakes putters.
func (q *blockingQueue[T]) remove() T {
	item := q.store.pop()

	depth := q.store.len()
	q.stats.Take()
	q.stats.UpdateDepth(int64(depth))
	if q.metrics != nil {
		q.metrics.recordTake(depth, q.capacity)
	}

	q.notFull.Broadcast()
	return item
}
