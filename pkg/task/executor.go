package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/orderflow/errors"
)

// Executor runs submitted work functions on a fixed set of runner
// goroutines, sized for blocking work so callers on compute-stage pools
// never tie up their own loops waiting on slow dependencies.
type Executor[R any] struct {
	// Configuration
	workers   int
	queueSize int

	// Runtime state
	workChan chan *Task[R]
	stopCh   chan struct{}
	baseCtx  context.Context
	wg       *sync.WaitGroup
	senderWg sync.WaitGroup

	// Lifecycle management
	lifecycleMu sync.Mutex
	started     bool
	stopped     bool

	// Statistics (atomic)
	submitted int64
	completed int64
	failed    int64
	cancelled int64
	rejected  int64

	metrics *executorMetrics
}

// NewExecutor creates an executor with the given runner count and submission
// queue size. Non-positive values fall back to defaults.
// Returns an error if metrics registration fails when requested.
func NewExecutor[R any](workers, queueSize int, options ...Option[R]) (*Executor[R], error) {
	if workers <= 0 {
		workers = 10 // Default runner count
	}
	if queueSize <= 0 {
		queueSize = 256 // Default submission queue size
	}

	opts := applyOptions(options...)

	e := &Executor[R]{
		workers:   workers,
		queueSize: queueSize,
		workChan:  make(chan *Task[R], queueSize),
		stopCh:    make(chan struct{}),
	}

	if opts.metricsReg != nil && opts.metricsName != "" {
		var err error
		e.metrics, err = newExecutorMetrics(opts.metricsReg, opts.metricsName)
		if err != nil {
			return nil, errors.WrapTransient(err, "executor", "NewExecutor", "metrics registration")
		}
	}

	return e, nil
}

// Start launches the runner goroutines. Submitted tasks get ctx as the
// parent of their own cancellable context, so cancelling ctx reaches every
// outstanding task.
func (e *Executor[R]) Start(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Executor", "Start", "executor already started")
	}

	e.baseCtx = ctx
	e.wg = &sync.WaitGroup{}

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.runner(ctx)
	}

	if e.metrics != nil {
		e.wg.Add(1)
		go e.metricsUpdater(ctx)
	}

	e.started = true
	return nil
}

// Submit queues fn for execution without blocking. A saturated queue yields
// a wrapped ErrQueueFull and no task is created.
func (e *Executor[R]) Submit(fn Func[R]) (*Task[R], error) {
	if fn == nil {
		return nil, errors.WrapInvalid(errors.ErrNilWork, "Executor", "Submit", "nil work function")
	}

	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if !e.started {
		return nil, errors.WrapInvalid(errors.ErrNotStarted, "Executor", "Submit", "executor not started")
	}
	if e.stopped {
		return nil, errors.WrapInvalid(errors.ErrClosed, "Executor", "Submit", "executor stopped")
	}

	t := newTask(e.baseCtx, fn)

	select {
	case e.workChan <- t:
		atomic.AddInt64(&e.submitted, 1)
		if e.metrics != nil {
			e.metrics.recordSubmit(len(e.workChan))
		}
		return t, nil
	default:
		atomic.AddInt64(&e.rejected, 1)
		if e.metrics != nil {
			e.metrics.recordReject()
		}
		return nil, errors.WrapTransient(errors.ErrQueueFull, "Executor", "Submit", "submission queue full")
	}
}

// SubmitWait queues fn, blocking for queue space until ctx ends or the
// executor begins stopping. The backpressure-friendly variant of Submit.
func (e *Executor[R]) SubmitWait(ctx context.Context, fn Func[R]) (*Task[R], error) {
	if fn == nil {
		return nil, errors.WrapInvalid(errors.ErrNilWork, "Executor", "SubmitWait", "nil work function")
	}

	e.lifecycleMu.Lock()
	if !e.started {
		e.lifecycleMu.Unlock()
		return nil, errors.WrapInvalid(errors.ErrNotStarted, "Executor", "SubmitWait", "executor not started")
	}
	if e.stopped {
		e.lifecycleMu.Unlock()
		return nil, errors.WrapInvalid(errors.ErrClosed, "Executor", "SubmitWait", "executor stopped")
	}
	// Register as an in-flight sender while still under the lifecycle lock:
	// Stop waits for registered senders before closing the work channel, so
	// this send can never hit a closed channel.
	e.senderWg.Add(1)
	baseCtx := e.baseCtx
	e.lifecycleMu.Unlock()
	defer e.senderWg.Done()

	t := newTask(baseCtx, fn)

	select {
	case e.workChan <- t:
		atomic.AddInt64(&e.submitted, 1)
		if e.metrics != nil {
			e.metrics.recordSubmit(len(e.workChan))
		}
		return t, nil
	case <-e.stopCh:
		return nil, errors.WrapInvalid(errors.ErrClosed, "Executor", "SubmitWait", "executor stopping")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop drains the executor: no new submissions, queued tasks run to
// completion, then runners exit. Returns a wrapped ErrStopTimeout if the
// drain exceeds timeout; runners may still be finishing in that case.
func (e *Executor[R]) Stop(timeout time.Duration) error {
	e.lifecycleMu.Lock()
	if !e.started || e.stopped {
		e.lifecycleMu.Unlock()
		return nil
	}
	e.stopped = true
	close(e.stopCh)
	e.lifecycleMu.Unlock()

	// Blocked SubmitWait senders observe stopCh and unwind; once they have,
	// closing the work channel is safe.
	e.senderWg.Wait()
	close(e.workChan)

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return errors.WrapTransient(errors.ErrStopTimeout, "Executor", "Stop", "runners did not drain")
	}
}

// ExecutorStats represents executor statistics.
type ExecutorStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
	Rejected   int64 `json:"rejected"`
}

// Stats returns current executor statistics.
func (e *Executor[R]) Stats() ExecutorStats {
	return ExecutorStats{
		Workers:    e.workers,
		QueueSize:  e.queueSize,
		QueueDepth: len(e.workChan),
		Submitted:  atomic.LoadInt64(&e.submitted),
		Completed:  atomic.LoadInt64(&e.completed),
		Failed:     atomic.LoadInt64(&e.failed),
		Cancelled:  atomic.LoadInt64(&e.cancelled),
		Rejected:   atomic.LoadInt64(&e.rejected),
	}
}

// runner executes tasks from the queue until the channel drains or the
// context ends.
func (e *Executor[R]) runner(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			// Leave no queued task without a terminal state
			e.cancelQueued()
			return
		case t, ok := <-e.workChan:
			if !ok {
				return
			}

			start := time.Now()
			t.run()
			duration := time.Since(start)

			state := t.State()
			switch state {
			case StateCompleted:
				atomic.AddInt64(&e.completed, 1)
			case StateCancelled:
				atomic.AddInt64(&e.cancelled, 1)
			default:
				atomic.AddInt64(&e.failed, 1)
			}

			if e.metrics != nil {
				e.metrics.recordRun(state, duration, len(e.workChan))
			}
		}
	}
}

// cancelQueued marks still-queued tasks cancelled after the pool context
// ends so awaiting callers observe a terminal state instead of hanging.
// Racing runners interleave harmlessly: Cancel is idempotent per task.
func (e *Executor[R]) cancelQueued() {
	for {
		select {
		case t, ok := <-e.workChan:
			if !ok {
				return
			}
			t.Cancel()
			atomic.AddInt64(&e.cancelled, 1)
			if e.metrics != nil {
				e.metrics.recordRun(StateCancelled, 0, len(e.workChan))
			}
		default:
			return
		}
	}
}

// metricsUpdater periodically refreshes queue depth and utilization gauges.
func (e *Executor[R]) metricsUpdater(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			depth := len(e.workChan)
			e.metrics.updateDepth(depth, e.queueSize)
		}
	}
}
