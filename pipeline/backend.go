package pipeline

import (
	"context"

	"github.com/c360/orderflow/pkg/guard"
)

// ReservationBackend is the capability the pipeline uses to claim and
// return finite resources. TryReserveAll must be atomic across all demanded
// keys: either every demand is subtracted or nothing changes, with no
// intermediate state visible to concurrent callers. ReleaseAll is the
// rollback path and must always succeed.
type ReservationBackend interface {
	TryReserveAll(demands map[string]int64) bool
	ReleaseAll(demands map[string]int64)
}

// The guard package's keyed reservation primitive satisfies
// ReservationBackend directly and is the default backend.
var _ ReservationBackend = (*guard.Guard)(nil)

// DependentWork is the business operation performed for each item after
// its reservation succeeds (payment capture, fulfillment calls, and so on).
// Run executes on the secondary pool and must honor ctx: returning ctx.Err()
// when cancelled is what lets the pipeline distinguish a cancelled item from
// a failed one.
type DependentWork[P any] interface {
	Run(ctx context.Context, payload P) error
}

// DependentWorkFunc adapts a plain function to DependentWork.
type DependentWorkFunc[P any] func(ctx context.Context, payload P) error

// Run implements DependentWork.
func (f DependentWorkFunc[P]) Run(ctx context.Context, payload P) error {
	return f(ctx, payload)
}
