package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// item is one unit of work moving through the pipeline. The status field is
// written only by the goroutine that currently owns the item (the worker
// processing it, or the controller for items drained during force stop);
// everyone else reads snapshots. The err field is written once, before the
// done channel closes, so readers that observed Done may read it freely.
type item[P any] struct {
	id          string
	payload     P
	demands     map[string]int64
	priority    int
	submittedAt time.Time

	status atomic.Int32

	// cancelRequested is set at most once and never cleared.
	cancelRequested atomic.Bool

	finalized atomic.Bool
	err       error
	done      chan struct{}
}

func newItem[P any](payload P, opts *submitOptions) *item[P] {
	id := opts.id
	if id == "" {
		id = uuid.NewString()
	}
	return &item[P]{
		id:          id,
		payload:     payload,
		demands:     opts.demands,
		priority:    opts.priority,
		submittedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

func (i *item[P]) currentStatus() Status {
	return Status(i.status.Load())
}

// setStatus publishes a non-terminal transition. Terminal transitions go
// through finalize so the done channel closes exactly once.
func (i *item[P]) setStatus(s Status) {
	i.status.Store(int32(s))
}

// finalize moves the item to a terminal status. Returns false if the item
// was already terminal; the first caller wins and later calls are no-ops.
func (i *item[P]) finalize(s Status, err error) bool {
	if !i.finalized.CompareAndSwap(false, true) {
		return false
	}
	i.err = err
	i.status.Store(int32(s))
	close(i.done)
	return true
}

// Handle is the caller's view of a submitted item. It exposes status
// snapshots, completion waiting, and cooperative cancellation; it never
// grants mutation of the item itself.
type Handle[P any] struct {
	item *item[P]
}

// ID returns the item's identity key.
func (h *Handle[P]) ID() string {
	return h.item.id
}

// Status returns a snapshot of the item's current status.
func (h *Handle[P]) Status() Status {
	return h.item.currentStatus()
}

// Err returns the terminal error, or nil if the item completed or is not
// yet terminal.
func (h *Handle[P]) Err() error {
	select {
	case <-h.item.done:
		return h.item.err
	default:
		return nil
	}
}

// Done returns a channel closed when the item reaches a terminal status.
func (h *Handle[P]) Done() <-chan struct{} {
	return h.item.done
}

// Wait blocks until the item is terminal or ctx ends, returning the status
// observed at that point.
func (h *Handle[P]) Wait(ctx context.Context) (Status, error) {
	select {
	case <-h.item.done:
		return h.Status(), h.item.err
	case <-ctx.Done():
		return h.Status(), ctx.Err()
	}
}

// Cancel requests cooperative cancellation. The flag is observed by the
// owning worker at the top of each blocking step; an item past its last
// check point still completes. Returns true on the first request, false if
// cancellation was already requested or the item is already terminal.
func (h *Handle[P]) Cancel() bool {
	if h.item.currentStatus().Terminal() {
		return false
	}
	return h.item.cancelRequested.CompareAndSwap(false, true)
}

// SubmitOption customizes a single submission.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	id       string
	demands  map[string]int64
	priority int
}

// WithID overrides the generated item ID, for callers that already key
// their orders externally.
func WithID(id string) SubmitOption {
	return func(opts *submitOptions) {
		opts.id = id
	}
}

// WithDemand adds a resource demand to the submission. Multiple demands
// accumulate and are reserved all-or-nothing.
func WithDemand(key string, qty int64) SubmitOption {
	return func(opts *submitOptions) {
		if opts.demands == nil {
			opts.demands = make(map[string]int64)
		}
		opts.demands[key] += qty
	}
}

// WithDemands sets all resource demands at once, replacing any accumulated
// so far.
func WithDemands(demands map[string]int64) SubmitOption {
	return func(opts *submitOptions) {
		opts.demands = make(map[string]int64, len(demands))
		for key, qty := range demands {
			opts.demands[key] = qty
		}
	}
}

// WithPriority sets the admission priority. Higher values are admitted to
// workers first when the pipeline uses priority admission; under FIFO
// admission the value is ignored.
func WithPriority(priority int) SubmitOption {
	return func(opts *submitOptions) {
		opts.priority = priority
	}
}

func applySubmitOptions(options ...SubmitOption) *submitOptions {
	opts := &submitOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
