package pipeline

import (
	"sync"
	"time"

	"github.com/c360/orderflow/errors"
)

// ShutdownReport summarizes where every admitted item ended up. StillPending
// counts items that never reached a terminal status: work stuck in a
// dependent call that ignored cancellation past the grace period.
type ShutdownReport struct {
	Completed    int64         `json:"completed"`
	Failed       int64         `json:"failed"`
	Cancelled    int64         `json:"cancelled"`
	StillPending int64         `json:"still_pending"`
	Forced       bool          `json:"forced"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Shutdown drives the pipeline's two-phase stop.
//
// Phase one (drain): the admission queue closes, rejecting new submissions
// while queued and in-flight items run to completion. Shutdown waits up to
// drainTimeout for every worker to go idle.
//
// Phase two (force, only if the drain times out): cancellation is broadcast
// to every worker and every outstanding dependent task, items still queued
// are finalized as Cancelled, and Shutdown waits up to forceGrace for
// cooperative exit. Nothing is force-killed; a dependent call that ignores
// its context is left behind and counted as StillPending.
//
// The pipeline ends in ModeStopped either way. Shutdown can only be driven
// once; later calls return a wrapped ErrAlreadyStopped.
func (p *Pipeline[P]) Shutdown(drainTimeout, forceGrace time.Duration) (ShutdownReport, error) {
	p.lifecycleMu.Lock()
	started := p.started
	p.lifecycleMu.Unlock()
	if !started {
		return ShutdownReport{}, errors.WrapInvalid(errors.ErrNotStarted, "Pipeline", "Shutdown", "pipeline not started")
	}

	if !p.advance(ModeAccepting, ModeDraining) {
		return ShutdownReport{}, errors.WrapInvalid(errors.ErrAlreadyStopped, "Pipeline", "Shutdown",
			"shutdown already initiated")
	}

	if drainTimeout <= 0 {
		drainTimeout = p.cfg.DrainTimeout
	}
	if forceGrace <= 0 {
		forceGrace = p.cfg.ForceGrace
	}

	start := time.Now()

	// Draining: no new work, everything admitted keeps going.
	_ = p.queue.Close()
	p.logger.Info("draining", "queued", p.queue.Len(), "in_flight", p.inFlight.Load(),
		"drain_timeout", drainTimeout)

	forced := false
	if !waitTimeout(&p.workerWg, drainTimeout) {
		// Drain timed out: broadcast cancellation and wait a bounded
		// grace period for cooperative exit.
		forced = true
		p.advance(ModeDraining, ModeForceStopping)
		p.cancelWorkers()
		p.cancelQueued()

		if !waitTimeout(&p.workerWg, forceGrace) {
			p.logger.Warn("workers still busy after force grace",
				"in_flight", p.inFlight.Load(), "force_grace", forceGrace)
		}
	}

	// Stopped regardless of whether every worker exited.
	if forced {
		p.advance(ModeForceStopping, ModeStopped)
	} else {
		p.advance(ModeDraining, ModeStopped)
	}

	// Stop the dispatch executor; on the forced path its tasks were
	// already cancelled through the worker context.
	if err := p.exec.Stop(forceGrace); err != nil {
		p.logger.Warn("dispatch executor stop", "error", err)
	}
	p.cancelWorkers()

	// Admissions racing the drain finish their counting before the report
	// is read, so a rejected Submit can never inflate StillPending.
	p.admitMu.Lock()
	report := ShutdownReport{
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Cancelled: p.cancelled.Load(),
		Forced:    forced,
		Elapsed:   time.Since(start),
	}
	report.StillPending = p.submitted.Load() - report.Completed - report.Failed - report.Cancelled
	p.admitMu.Unlock()

	p.logger.Info("pipeline stopped",
		"completed", report.Completed,
		"failed", report.Failed,
		"cancelled", report.Cancelled,
		"still_pending", report.StillPending,
		"forced", report.Forced,
		"elapsed", report.Elapsed)

	return report, nil
}

// Stop is the lifecycle-shaped convenience over Shutdown: most of the
// timeout goes to draining, the remainder to the force grace period.
// Returns a wrapped ErrStopTimeout if any item never reached a terminal
// status.
func (p *Pipeline[P]) Stop(timeout time.Duration) error {
	drain := timeout * 4 / 5
	grace := timeout - drain

	report, err := p.Shutdown(drain, grace)
	if err != nil {
		return err
	}
	if report.StillPending > 0 {
		return errors.WrapTransient(errors.ErrStopTimeout, "Pipeline", "Stop",
			"items still pending after forced stop")
	}
	return nil
}

// advance moves the mode forward if it currently equals from, publishing
// the transition. The CAS keeps the state machine strictly one-directional
// under concurrent Shutdown callers.
func (p *Pipeline[P]) advance(from, to Mode) bool {
	if !p.mode.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	p.publishMode(to)
	return true
}

// cancelQueued finalizes items that were admitted but never picked up, so
// their handles observe a terminal status instead of hanging. No rollback
// needed: a queued item holds no reservation yet.
func (p *Pipeline[P]) cancelQueued() {
	for {
		it, ok := p.queue.TryTake()
		if !ok {
			return
		}
		p.finalizeItem(it, StatusCancelled,
			errors.WrapInvalid(errors.ErrCancelled, "Pipeline", "Shutdown", "cancelled while queued"))
	}
}

// waitTimeout waits for wg with a deadline. Returns true if the group
// finished in time.
func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
