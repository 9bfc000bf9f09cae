// Package guard provides a keyed, atomic check-and-reserve primitive for
// finite resources.
//
// A Guard tracks a quantity per string key. TryReserve atomically checks and
// subtracts in one step, so concurrent reservations against the same key can
// never oversubscribe it and quantities never go negative. Operations on
// different keys proceed concurrently; operations on the same key are
// serialized by a per-key mutex.
//
// Multi-key reservations (TryReserveAll) lock keys in lexicographic order, a
// single global order shared by every caller, which makes opposite-order
// demand sets deadlock-free. The check and commit happen with all locks held:
// either every demand is satisfied and subtracted, or nothing changes.
//
// Unknown keys hold quantity zero. Reservations against them fail until
// Release or Set introduces the key.
package guard

import (
	"sync"
	"sync/atomic"

	"github.com/c360/orderflow/errors"
)

// entry holds one key's quantity. The entry mutex serializes all reads and
// writes of qty; entries are never removed, so pointers taken under the
// guard's map lock stay valid after it is released.
type entry struct {
	mu  sync.Mutex
	qty int64
}

// Guard is a thread-safe keyed quantity tracker with atomic reservation.
type Guard struct {
	// mu guards the entries map only, not the quantities inside.
	mu      sync.RWMutex
	entries map[string]*entry

	// Atomic counters for thread-safe stats
	reserves int64
	releases int64
	failures int64

	metrics *guardMetrics
}

// NewGuard creates an empty guard.
// Returns an error if metrics registration fails when requested.
func NewGuard(options ...Option) (*Guard, error) {
	opts := applyOptions(options...)

	g := &Guard{
		entries: make(map[string]*entry),
	}

	if opts.metricsReg != nil && opts.metricsName != "" {
		var err error
		g.metrics, err = newGuardMetrics(opts.metricsReg, opts.metricsName)
		if err != nil {
			return nil, errors.WrapTransient(err, "guard", "NewGuard", "metrics registration")
		}
	}

	return g, nil
}

// TryReserve atomically checks that key holds at least qty units and
// subtracts them. Returns false without side effects when the key is unknown,
// holds too few units, or qty is not positive.
func (g *Guard) TryReserve(key string, qty int64) bool {
	if qty <= 0 {
		return false
	}

	g.mu.RLock()
	e, ok := g.entries[key]
	g.mu.RUnlock()

	if !ok {
		// Unknown key holds quantity zero: the demand cannot be met.
		atomic.AddInt64(&g.failures, 1)
		if g.metrics != nil {
			g.metrics.recordFailure()
		}
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.qty < qty {
		atomic.AddInt64(&g.failures, 1)
		if g.metrics != nil {
			g.metrics.recordFailure()
		}
		return false
	}

	e.qty -= qty

	atomic.AddInt64(&g.reserves, 1)
	if g.metrics != nil {
		g.metrics.recordReserve(key, e.qty)
	}

	return true
}

// Release returns qty units to key. Unknown keys are created, so releasing
// into a fresh guard seeds it. Non-positive quantities are ignored: releases
// back capacity, it never takes it away.
func (g *Guard) Release(key string, qty int64) {
	if qty <= 0 {
		return
	}

	e := g.ensureEntry(key)

	e.mu.Lock()
	e.qty += qty
	remaining := e.qty
	e.mu.Unlock()

	atomic.AddInt64(&g.releases, 1)
	if g.metrics != nil {
		g.metrics.recordRelease(key, remaining)
	}
}

// Quantity returns the units currently held by key. Unknown keys report zero.
func (g *Guard) Quantity(key string) int64 {
	g.mu.RLock()
	e, ok := g.entries[key]
	g.mu.RUnlock()

	if !ok {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.qty
}

// Set overwrites the quantity held by key, creating it if needed.
// Negative quantities are rejected; zero is a valid seed.
func (g *Guard) Set(key string, qty int64) error {
	if qty < 0 {
		return errors.WrapInvalid(errors.ErrInvalidQuantity, "Guard", "Set", "negative quantity")
	}

	e := g.ensureEntry(key)

	e.mu.Lock()
	e.qty = qty
	e.mu.Unlock()

	if g.metrics != nil {
		g.metrics.setUnits(key, qty)
	}

	return nil
}

// Seed sets the quantity for every key in resources. The first invalid
// quantity aborts the seed with an error; keys set before it keep their
// values.
func (g *Guard) Seed(resources map[string]int64) error {
	for key, qty := range resources {
		if err := g.Set(key, qty); err != nil {
			return errors.Wrap(err, "Guard", "Seed", "seeding "+key)
		}
	}
	return nil
}

// Snapshot returns a copy of all known keys and their quantities. Each
// quantity is individually consistent, but the map is not an atomic view
// across keys while reservations are in flight.
func (g *Guard) Snapshot() map[string]int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := make(map[string]int64, len(g.entries))
	for key, e := range g.entries {
		e.mu.Lock()
		snap[key] = e.qty
		e.mu.Unlock()
	}
	return snap
}

// GuardStats is a point-in-time snapshot of guard activity.
type GuardStats struct {
	Reserves int64 `json:"reserves"`
	Releases int64 `json:"releases"`
	Failures int64 `json:"failures"`
	Keys     int   `json:"keys"`
}

// Stats returns guard statistics.
func (g *Guard) Stats() GuardStats {
	g.mu.RLock()
	keys := len(g.entries)
	g.mu.RUnlock()

	return GuardStats{
		Reserves: atomic.LoadInt64(&g.reserves),
		Releases: atomic.LoadInt64(&g.releases),
		Failures: atomic.LoadInt64(&g.failures),
		Keys:     keys,
	}
}

// ensureEntry returns the entry for key, creating it if missing.
func (g *Guard) ensureEntry(key string) *entry {
	g.mu.RLock()
	e, ok := g.entries[key]
	g.mu.RUnlock()

	if ok {
		return e
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Re-check: another goroutine may have created it between locks
	if e, ok := g.entries[key]; ok {
		return e
	}

	e = &entry{}
	g.entries[key] = e
	return e
}
