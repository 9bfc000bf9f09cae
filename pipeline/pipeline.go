package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/orderflow/errors"
	"github.com/c360/orderflow/health"
	"github.com/c360/orderflow/metric"
	"github.com/c360/orderflow/pkg/queue"
	"github.com/c360/orderflow/pkg/retry"
	"github.com/c360/orderflow/pkg/task"
)

// Config defines sizing and timing for a pipeline. Zero values fall back
// to defaults in New; AwaitTimeout in particular always normalizes to a
// positive bound because an unbounded wait on dependent work is never
// allowed.
type Config struct {
	// Name labels logs, metrics, and health statuses.
	Name string

	// QueueCapacity bounds the admission queue. Full queue means Submit
	// blocks: backpressure instead of unbounded buffering.
	QueueCapacity int

	// ReserveWorkers sizes the compute-bound reserve stage.
	ReserveWorkers int

	// DispatchWorkers sizes the blocking dispatch stage. Sized separately
	// from ReserveWorkers so slow dependents cannot starve reservation.
	DispatchWorkers int

	// DispatchQueueSize bounds the dispatch executor's submission queue.
	DispatchQueueSize int

	// AwaitTimeout bounds every wait on dependent work.
	AwaitTimeout time.Duration

	// DrainTimeout bounds the drain phase of Stop.
	DrainTimeout time.Duration

	// ForceGrace bounds the cooperative-exit wait after a forced stop.
	ForceGrace time.Duration

	// PriorityAdmission admits higher-priority items to workers first.
	// Default is strict FIFO.
	PriorityAdmission bool

	// ReserveRetry, when non-nil, retries failed reservations with bounded
	// backoff before failing the item.
	ReserveRetry *retry.Config
}

func (c *Config) normalize() {
	if c.Name == "" {
		c.Name = "orderflow"
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 64
	}
	if c.ReserveWorkers <= 0 {
		c.ReserveWorkers = runtime.NumCPU()
	}
	if c.DispatchWorkers <= 0 {
		c.DispatchWorkers = 4 * runtime.NumCPU()
	}
	if c.DispatchQueueSize <= 0 {
		c.DispatchQueueSize = 256
	}
	if c.AwaitTimeout <= 0 {
		c.AwaitTimeout = 5 * time.Second
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 30 * time.Second
	}
	if c.ForceGrace <= 0 {
		c.ForceGrace = 5 * time.Second
	}
}

// Pipeline is a bounded, two-stage order processor. Items admitted through
// Submit flow queue -> reserve workers -> dispatch executor -> terminal
// status, with the reservation rolled back on every non-completed exit
// after a successful reserve.
//
// The pipeline instance holds all lifecycle state; there are no process
// globals. Shutdown drives the Accepting -> Draining -> ForceStopping ->
// Stopped state machine.
type Pipeline[P any] struct {
	name string
	cfg  Config

	queue        queue.Queue[*item[P]]
	exec         *task.Executor[struct{}]
	reservations ReservationBackend
	work         DependentWork[P]

	mode    atomic.Int32
	running atomic.Bool

	// admitMu orders admissions against the shutdown report: Submit counts
	// under the read side, the report reads under the write side.
	admitMu sync.RWMutex

	// Lifecycle management
	lifecycleMu   sync.Mutex
	started       bool
	cancelWorkers context.CancelFunc
	workerWg      sync.WaitGroup
	startTime     time.Time

	// Statistics (atomic)
	submitted atomic.Int64
	inFlight  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64
	rollbacks atomic.Int64

	logger        *slog.Logger
	metrics       *metric.Metrics
	healthMonitor *health.Monitor
}

// New creates a pipeline over the given reservation backend and dependent
// work. Both collaborators are required; everything else defaults.
func New[P any](cfg Config, reservations ReservationBackend, work DependentWork[P], options ...Option[P]) (*Pipeline[P], error) {
	if reservations == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "New", "nil reservation backend")
	}
	if work == nil {
		return nil, errors.WrapInvalid(errors.ErrNilWork, "Pipeline", "New", "nil dependent work")
	}

	cfg.normalize()
	opts := applyOptions(options...)

	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pipeline", "pipeline", cfg.Name)

	var queueOptions []queue.Option[*item[P]]
	var execOptions []task.Option[struct{}]
	var coreMetrics *metric.Metrics
	if opts.metricsReg != nil {
		coreMetrics = opts.metricsReg.CoreMetrics()
		queueOptions = append(queueOptions, queue.WithMetrics[*item[P]](opts.metricsReg, cfg.Name+"-admission"))
		execOptions = append(execOptions, task.WithMetrics[struct{}](opts.metricsReg, cfg.Name+"-dispatch"))
	}

	var q queue.Queue[*item[P]]
	var err error
	if cfg.PriorityAdmission {
		q, err = queue.NewPriority(cfg.QueueCapacity, func(a, b *item[P]) bool {
			return a.priority > b.priority
		}, queueOptions...)
	} else {
		q, err = queue.NewBounded[*item[P]](cfg.QueueCapacity, queueOptions...)
	}
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline", "New", "creating admission queue")
	}

	exec, err := task.NewExecutor[struct{}](cfg.DispatchWorkers, cfg.DispatchQueueSize, execOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline", "New", "creating dispatch executor")
	}

	return &Pipeline[P]{
		name:          cfg.Name,
		cfg:           cfg,
		queue:         q,
		exec:          exec,
		reservations:  reservations,
		work:          work,
		logger:        logger,
		metrics:       coreMetrics,
		healthMonitor: opts.healthMonitor,
	}, nil
}

// Start launches the reserve workers and the dispatch executor. Cancelling
// ctx reaches every worker and every outstanding dependent task, but the
// normal way down is Shutdown or Stop.
func (p *Pipeline[P]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Pipeline", "Start", "pipeline already started")
	}

	workerCtx, cancel := context.WithCancel(ctx)

	if err := p.exec.Start(workerCtx); err != nil {
		cancel()
		return errors.Wrap(err, "Pipeline", "Start", "starting dispatch executor")
	}

	p.cancelWorkers = cancel
	for i := 0; i < p.cfg.ReserveWorkers; i++ {
		p.workerWg.Add(1)
		go p.reserveWorker(workerCtx, i)
	}

	p.started = true
	p.running.Store(true)
	p.startTime = time.Now()
	p.publishMode(ModeAccepting)

	p.logger.Info("pipeline started",
		"queue_capacity", p.cfg.QueueCapacity,
		"reserve_workers", p.cfg.ReserveWorkers,
		"dispatch_workers", p.cfg.DispatchWorkers,
		"await_timeout", p.cfg.AwaitTimeout,
		"priority_admission", p.cfg.PriorityAdmission)

	return nil
}

// Mode returns the current lifecycle mode.
func (p *Pipeline[P]) Mode() Mode {
	return Mode(p.mode.Load())
}

// Submit admits a payload, blocking for queue space when the pipeline is
// saturated (backpressure). Returns a wrapped ErrNotStarted before Start,
// a wrapped ErrClosed once shutdown has been initiated, or ctx.Err() if
// the caller gives up while blocked; in every case the item is not
// admitted.
func (p *Pipeline[P]) Submit(ctx context.Context, payload P, options ...SubmitOption) (*Handle[P], error) {
	if !p.running.Load() {
		return nil, errors.WrapInvalid(errors.ErrNotStarted, "Pipeline", "Submit", "pipeline not started")
	}
	if p.Mode() != ModeAccepting {
		return nil, errors.WrapInvalid(errors.ErrClosed, "Pipeline", "Submit", "pipeline not accepting")
	}

	it := newItem(payload, applySubmitOptions(options...))

	// Count under admitMu, and only after Put succeeds: rejected items
	// touch no counters, and the shutdown report never reads between an
	// admission and its counting.
	p.admitMu.RLock()
	err := p.queue.Put(ctx, it)
	var inFlight int64
	if err == nil {
		p.submitted.Add(1)
		inFlight = p.inFlight.Add(1)
	}
	p.admitMu.RUnlock()
	if err != nil {
		return nil, errors.Wrap(err, "Pipeline", "Submit", "admitting item")
	}

	if p.metrics != nil {
		p.metrics.RecordItemSubmitted(p.name)
		p.metrics.RecordItemsInFlight(p.name, int(inFlight))
	}

	return &Handle[P]{item: it}, nil
}

// Stats is a point-in-time snapshot of pipeline activity.
type Stats struct {
	Mode       string `json:"mode"`
	QueueDepth int    `json:"queue_depth"`
	Submitted  int64  `json:"submitted"`
	InFlight   int64  `json:"in_flight"`
	Completed  int64  `json:"completed"`
	Failed     int64  `json:"failed"`
	Cancelled  int64  `json:"cancelled"`
	Rollbacks  int64  `json:"rollbacks"`
}

// Stats returns current pipeline statistics.
func (p *Pipeline[P]) Stats() Stats {
	return Stats{
		Mode:       p.Mode().String(),
		QueueDepth: p.queue.Len(),
		Submitted:  p.submitted.Load(),
		InFlight:   p.inFlight.Load(),
		Completed:  p.completed.Load(),
		Failed:     p.failed.Load(),
		Cancelled:  p.cancelled.Load(),
		Rollbacks:  p.rollbacks.Load(),
	}
}

// Health returns the pipeline's current health status.
func (p *Pipeline[P]) Health() health.Status {
	stats := p.Stats()
	metrics := &health.Metrics{
		Uptime:         time.Since(p.startTime),
		ItemsProcessed: stats.Completed + stats.Failed + stats.Cancelled,
		ItemsInFlight:  stats.InFlight,
		ErrorCount:     int(stats.Failed),
	}

	switch p.Mode() {
	case ModeAccepting:
		return health.NewHealthy(p.name, "accepting submissions").WithMetrics(metrics)
	case ModeDraining:
		return health.NewDegraded(p.name, "draining in-flight work").WithMetrics(metrics)
	case ModeForceStopping:
		return health.NewDegraded(p.name, "force-stopping after drain timeout").WithMetrics(metrics)
	default:
		return health.NewUnhealthy(p.name, "stopped").WithMetrics(metrics)
	}
}

// reserveWorker pulls items from the admission queue until the queue is
// closed and drained or the worker context ends.
func (p *Pipeline[P]) reserveWorker(ctx context.Context, id int) {
	defer p.workerWg.Done()

	logger := p.logger.With("worker", id)
	logger.Debug("reserve worker started")

	for {
		it, err := p.queue.Take(ctx)
		if err != nil {
			// End of stream (closed and drained) or context cancelled;
			// either way this loop is done.
			logger.Debug("reserve worker exiting", "reason", err)
			return
		}
		p.process(ctx, it)
	}
}

// process runs one item through reserve -> dispatch -> await. The
// cancellation flags are re-checked between every blocking step, and any
// exit after a successful reservation that is not Completed releases the
// reservation first. Every path lands in exactly one terminal status;
// nothing is thrown out of the worker loop.
func (p *Pipeline[P]) process(ctx context.Context, it *item[P]) {
	if it.cancelRequested.Load() || ctx.Err() != nil {
		p.finalizeItem(it, StatusCancelled,
			errors.WrapInvalid(errors.ErrCancelled, "Pipeline", "process", "cancelled before reservation"))
		return
	}

	reserveStart := time.Now()
	if !p.reserve(ctx, it) {
		p.recordReserveAttempt("failed")
		p.finalizeItem(it, StatusFailed,
			errors.WrapTransient(errors.ErrReservationFailed, "Pipeline", "process", "reserving demands"))
		return
	}
	it.setStatus(StatusReserved)
	p.recordReserveAttempt("ok")
	p.recordStage("reserve", time.Since(reserveStart))

	if it.cancelRequested.Load() || ctx.Err() != nil {
		p.rollback(it, "cancelled")
		p.finalizeItem(it, StatusCancelled,
			errors.WrapInvalid(errors.ErrCancelled, "Pipeline", "process", "cancelled after reservation"))
		return
	}

	dispatchStart := time.Now()
	t, err := p.exec.SubmitWait(ctx, func(taskCtx context.Context) (struct{}, error) {
		if it.cancelRequested.Load() {
			return struct{}{}, errors.WrapInvalid(errors.ErrCancelled, "Pipeline", "dependent",
				"cancelled before dependent work started")
		}
		return struct{}{}, p.work.Run(taskCtx, it.payload)
	})
	if err != nil {
		p.rollback(it, "dispatch_rejected")
		if errors.IsCancelled(err) || ctx.Err() != nil {
			p.finalizeItem(it, StatusCancelled, err)
		} else {
			p.finalizeItem(it, StatusFailed, err)
		}
		return
	}
	it.setStatus(StatusDispatched)

	_, err = t.Await(p.cfg.AwaitTimeout)
	switch {
	case err == nil:
		p.recordStage("dispatch", time.Since(dispatchStart))
		p.finalizeItem(it, StatusCompleted, nil)

	case stderrors.Is(err, errors.ErrDependentTimeout):
		// The dependent call may still be running; cancel it so it stops
		// cooperatively, then take the reservation back.
		t.Cancel()
		p.rollback(it, "timeout")
		p.finalizeItem(it, StatusFailed, err)

	case errors.IsCancelled(err):
		p.rollback(it, "cancelled")
		p.finalizeItem(it, StatusCancelled, err)

	default:
		p.rollback(it, "dependent_error")
		p.finalizeItem(it, StatusFailed, errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrDependentFailed, err),
			"Pipeline", "process", "dependent work"))
	}
}

// reserve claims the item's demands, optionally retrying contended
// reservations with bounded backoff. Items without demands reserve
// trivially.
func (p *Pipeline[P]) reserve(ctx context.Context, it *item[P]) bool {
	if len(it.demands) == 0 {
		return true
	}

	if p.cfg.ReserveRetry == nil {
		return p.reservations.TryReserveAll(it.demands)
	}

	err := retry.Do(ctx, *p.cfg.ReserveRetry, func() error {
		if it.cancelRequested.Load() {
			return retry.NonRetryable(errors.ErrCancelled)
		}
		if p.reservations.TryReserveAll(it.demands) {
			return nil
		}
		return errors.ErrReservationFailed
	})
	return err == nil
}

// rollback returns the item's reserved demands. Mandatory on every exit
// after a successful reservation that does not complete the item.
func (p *Pipeline[P]) rollback(it *item[P], reason string) {
	if len(it.demands) == 0 {
		return
	}

	p.reservations.ReleaseAll(it.demands)
	p.rollbacks.Add(1)
	if p.metrics != nil {
		p.metrics.RecordRollback(p.name, reason)
	}
	p.logger.Debug("reservation rolled back", "item", it.id, "reason", reason)
}

// finalizeItem publishes a terminal status and updates counters. The first
// finalization wins; late calls (a worker racing the force-stop queue
// drain) are no-ops.
func (p *Pipeline[P]) finalizeItem(it *item[P], status Status, err error) {
	if !it.finalize(status, err) {
		return
	}

	switch status {
	case StatusCompleted:
		p.completed.Add(1)
	case StatusFailed:
		p.failed.Add(1)
	case StatusCancelled:
		p.cancelled.Add(1)
	}
	inFlight := p.inFlight.Add(-1)

	if p.metrics != nil {
		p.metrics.RecordItemFinalized(p.name, status.String())
		p.metrics.RecordItemsInFlight(p.name, int(inFlight))
	}

	if err != nil && status == StatusFailed {
		p.logger.Debug("item failed", "item", it.id, "error", err)
	}
}

func (p *Pipeline[P]) recordReserveAttempt(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordReserveAttempt(p.name, outcome)
	}
}

func (p *Pipeline[P]) recordStage(stage string, duration time.Duration) {
	if p.metrics != nil {
		p.metrics.RecordStageDuration(p.name, stage, duration)
	}
}

// publishMode records a mode transition in metrics, health, and logs.
func (p *Pipeline[P]) publishMode(mode Mode) {
	p.mode.Store(int32(mode))

	if p.metrics != nil {
		p.metrics.RecordPipelineMode(p.name, int(mode))
	}
	if p.healthMonitor != nil {
		p.healthMonitor.Update(p.name, p.Health())
	}
	p.logger.Info("pipeline mode changed", "mode", mode.String())
}
