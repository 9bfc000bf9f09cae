// Package task provides asynchronous task handles and a fixed-size executor
// for running dependent, potentially blocking work off the caller's
// goroutine.
//
// # Task Lifecycle
//
// A Task[R] moves through monotonic states:
//
//	Pending -> Running -> Completed | Failed | Cancelled
//	Pending -> Cancelled            (cancel wins before start)
//
// Terminal states are final. Await blocks with a timeout and returns
// ErrDependentTimeout when the window expires; the task itself keeps running
// until it finishes or is cancelled. Await on an already-terminal task
// returns immediately. Panics inside the work function are recovered and
// reported as Failed, never dropped.
//
// Cancellation is cooperative. Cancel moves a pending task straight to
// Cancelled; for a running task it cancels the task's context and the state
// changes only when the work function observes it and returns.
//
// # Executor
//
// Executor[R] runs tasks on K fixed runner goroutines fed by a bounded
// submission channel. Submit is non-blocking and rejects at capacity with
// ErrQueueFull; SubmitWait blocks for space under context control. Stop
// drains queued tasks before the runners exit, bounded by a timeout.
//
//	exec, _ := task.NewExecutor[string](8, 64)
//	_ = exec.Start(ctx)
//
//	t, err := exec.Submit(func(ctx context.Context) (string, error) {
//	    return chargePayment(ctx, order)
//	})
//	if err != nil {
//	    // queue full or executor not accepting
//	}
//
//	result, err := t.Await(5 * time.Second)
//
// The executor is intended as the blocking-stage pool behind pipeline
// workers: compute-stage loops submit dependent work here and await results
// with a mandatory timeout instead of occupying their own pool.
package task
