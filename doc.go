// Package orderflow provides a bounded, backpressure-aware order-processing
// pipeline: a fixed-capacity admission queue feeding a fixed worker pool
// that atomically reserves keyed resources, dispatches dependent work to a
// separately sized secondary pool, and shuts down through a multi-phase
// drain-then-force protocol.
//
// # Philosophy: One Pipeline, Injected Capabilities
//
// OrderFlow is a generic runtime with the business logic injected, not
// duplicated:
//
//   - ReservationBackend: how finite resources are claimed and returned
//     (the bundled keyed guard is the default backend)
//   - DependentWork: the blocking business operation performed per item
//     (payment capture, fulfillment calls, downstream RPCs)
//
// OrderFlow MUST NOT contain:
//   - Concrete inventory or payment logic (those are injected capabilities)
//   - Persistence or cross-machine coordination
//   - Authentication or UI surfaces
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│       PipelineController            │  Accepting → Draining →
//	│  (submit, track, shutdown machine)  │  ForceStopping → Stopped
//	└─────────────────────────────────────┘
//	           ↓ supervises
//	┌─────────────────────────────────────┐
//	│   Bounded queue → reserve workers   │  Backpressure, FIFO or
//	│        (atomic ResourceGuard)       │  priority admission
//	└─────────────────────────────────────┘
//	           ↓ dispatches to
//	┌─────────────────────────────────────┐
//	│        Dispatch executor            │  AsyncTask handles,
//	│   (bounded await, cancel, rollback) │  sized for blocking work
//	└─────────────────────────────────────┘
//
// # Package Layout
//
//   - pipeline: the core Pipeline, item handles, capability interfaces,
//     and the shutdown state machine
//   - pkg/queue: generic bounded blocking FIFO and priority queues
//   - pkg/guard: keyed atomic check-and-reserve primitive with ordered
//     multi-key locking
//   - pkg/task: asynchronous task handles and the fixed-size executor
//   - pkg/retry: bounded exponential backoff
//   - errors: classified errors shared across all components
//   - config: JSON configuration with schema validation and env overrides
//   - metric, health: Prometheus metrics registry and health monitoring
//   - cmd/orderflow: demo runner feeding synthetic orders through the
//     pipeline
//
// # Concurrency Discipline
//
// Every wait is a blocking primitive woken by a state change: condition
// variables use broadcast wake-ups re-checked in loops, never single
// signals or one-shot ifs. Cancellation is cooperative everywhere; every
// blocking call accepts a context and returns a distinguishable cancelled
// outcome. Multi-key reservations lock keys in one global lexicographic
// order, so opposite-order demand sets cannot deadlock. Every await that
// crosses into the secondary pool carries a timeout.
//
// # Example
//
//	inventory, _ := guard.NewGuard()
//	_ = inventory.Seed(map[string]int64{"sku-1": 1000})
//
//	pl, _ := pipeline.New[Order](pipeline.Config{QueueCapacity: 64},
//	    inventory,
//	    pipeline.DependentWorkFunc[Order](capturePayment))
//	_ = pl.Start(ctx)
//
//	h, _ := pl.Submit(ctx, order, pipeline.WithDemand("sku-1", 1))
//	status, _ := h.Wait(ctx)
//
//	report, _ := pl.Shutdown(30*time.Second, 5*time.Second)
package orderflow
