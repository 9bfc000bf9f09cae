package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/c360/orderflow/errors"
)

// State describes where a task is in its lifecycle. Transitions are
// monotonic: Pending -> Running -> {Completed, Failed, Cancelled}, or
// Pending -> Cancelled when cancellation wins before the work starts.
// Terminal states are final.
type State int32

const (
	// StatePending means the task is queued and has not started.
	StatePending State = iota

	// StateRunning means the work function is executing.
	StateRunning

	// StateCompleted means the work finished and a result is available.
	StateCompleted

	// StateFailed means the work returned an error or panicked.
	StateFailed

	// StateCancelled means the task was cancelled before or during execution.
	StateCancelled
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Func is the unit of work a task executes. It must honor ctx: returning
// ctx.Err() when cancelled is what moves a running task to StateCancelled
// rather than StateFailed.
type Func[R any] func(ctx context.Context) (R, error)

// Task is a handle to asynchronously executing work producing an R.
//
// The zero value is not usable; tasks are created by an Executor. The result
// and error fields are written exactly once, before the done channel closes,
// so any reader that has observed Done may read them without further
// synchronization.
type Task[R any] struct {
	fn     Func[R]
	ctx    context.Context
	cancel context.CancelFunc

	state  atomic.Int32
	done   chan struct{}
	result R
	err    error
}

// newTask builds a pending task whose context is a child of parent, so
// cancelling the parent reaches the work function.
func newTask[R any](parent context.Context, fn Func[R]) *Task[R] {
	ctx, cancel := context.WithCancel(parent)
	return &Task[R]{
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (t *Task[R]) State() State {
	return State(t.state.Load())
}

// Done returns a channel closed when the task reaches a terminal state.
func (t *Task[R]) Done() <-chan struct{} {
	return t.done
}

// Err returns the terminal error, or nil if the task completed or is not
// yet terminal.
func (t *Task[R]) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Await blocks until the task reaches a terminal state or timeout elapses.
// An already-terminal task returns immediately. On timeout the task keeps
// running and Await returns a wrapped ErrDependentTimeout; cancel the task
// if the result is no longer wanted.
func (t *Task[R]) Await(timeout time.Duration) (R, error) {
	// Fast path: terminal tasks return immediately even with a zero timeout
	select {
	case <-t.done:
		return t.result, t.err
	default:
	}

	var zero R

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
		return t.result, t.err
	case <-timer.C:
		return zero, errors.WrapTransient(errors.ErrDependentTimeout, "Task", "Await", "await window expired")
	}
}

// AwaitContext blocks until the task reaches a terminal state or ctx ends.
func (t *Task[R]) AwaitContext(ctx context.Context) (R, error) {
	select {
	case <-t.done:
		return t.result, t.err
	default:
	}

	var zero R

	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Cancel requests cancellation and returns the state observed afterwards.
// A pending task is cancelled outright and never runs. A running task has
// its context cancelled; it reaches StateCancelled only when the work
// function observes the context and returns its error. Terminal tasks are
// unaffected. Cancel never forces termination.
func (t *Task[R]) Cancel() State {
	if t.state.CompareAndSwap(int32(StatePending), int32(StateCancelled)) {
		t.err = errors.WrapInvalid(errors.ErrCancelled, "Task", "Cancel", "cancelled before start")
		t.cancel()
		close(t.done)
		return StateCancelled
	}

	t.cancel()
	return t.State()
}

// run executes the work function, moving the task to a terminal state.
// Called by exactly one executor runner; a task whose cancellation won the
// pending race is skipped.
func (t *Task[R]) run() {
	if !t.state.CompareAndSwap(int32(StatePending), int32(StateRunning)) {
		return // cancelled before start
	}

	var zero R

	if err := t.ctx.Err(); err != nil {
		// Pool context ended between submission and pickup
		t.finish(StateCancelled, zero, errors.WrapInvalid(errors.ErrCancelled, "Task", "run",
			"cancelled before execution"))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			// A panicking work function must surface as Failed, never
			// swallow the task or kill the runner.
			t.finish(StateFailed, zero, errors.WrapFatal(
				fmt.Errorf("panic: %v", r), "Task", "run", "recovered panic"))
		}
	}()

	result, err := t.fn(t.ctx)

	switch {
	case err == nil:
		t.finish(StateCompleted, result, nil)
	case errors.IsCancelled(err):
		t.finish(StateCancelled, zero, err)
	default:
		t.finish(StateFailed, zero, err)
	}
}

// finish records the terminal outcome. Single-writer: only the runner
// goroutine moves a task out of Running, so no lock is needed; the done
// close publishes result and err to awaiting readers.
func (t *Task[R]) finish(state State, result R, err error) {
	t.result = result
	t.err = err
	t.state.Store(int32(state))
	t.cancel() // release the child context
	close(t.done)
}
