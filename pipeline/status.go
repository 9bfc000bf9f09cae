package pipeline

// Status describes where an item is in its lifecycle.
//
//	Pending ──> Reserved ──> Dispatched ──> Completed
//	   │            │             │
//	   │            ├──> Failed <─┤
//	   │            │             │
//	   └────────────┴─> Cancelled ┘
//
// Transitions are monotonic and Completed, Failed, and Cancelled are final.
// Only the worker that currently owns an item moves its status; all other
// goroutines observe published snapshots.
type Status int32

const (
	// StatusPending means the item is queued and has not been picked up.
	StatusPending Status = iota

	// StatusReserved means the item's resource demands have been reserved.
	StatusReserved

	// StatusDispatched means dependent work has been handed to the
	// secondary pool and the owning worker is awaiting its result.
	StatusDispatched

	// StatusCompleted means dependent work finished successfully.
	StatusCompleted

	// StatusFailed means reservation or dependent work failed. Any held
	// reservation has been rolled back.
	StatusFailed

	// StatusCancelled means a cancellation was observed before completion.
	// Any held reservation has been rolled back.
	StatusCancelled
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReserved:
		return "Reserved"
	case StatusDispatched:
		return "Dispatched"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Mode describes the pipeline's lifecycle phase. Modes advance strictly
// one-directionally: Accepting -> Draining -> ForceStopping -> Stopped,
// with ForceStopping reachable only when the drain timeout elapses.
type Mode int32

const (
	// ModeAccepting means Submit succeeds and workers process normally.
	ModeAccepting Mode = iota

	// ModeDraining means no new submissions are accepted; queued and
	// in-flight items continue to completion.
	ModeDraining

	// ModeForceStopping means the drain timed out and cancellation has
	// been broadcast to all workers and outstanding dependent tasks.
	ModeForceStopping

	// ModeStopped means the pipeline has released its workers and
	// reported final counts.
	ModeStopped
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAccepting:
		return "Accepting"
	case ModeDraining:
		return "Draining"
	case ModeForceStopping:
		return "ForceStopping"
	case ModeStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
