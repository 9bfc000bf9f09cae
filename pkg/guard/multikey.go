package guard

import (
	"sort"
	"sync/atomic"
)

// TryReserveAll atomically reserves every demanded quantity or nothing.
// Demands map keys to required units. Returns false without side effects if
// any key is unknown, underfunded, or demanded in a non-positive quantity.
//
// Keys are locked in lexicographic order. Every multi-key path in this
// package locks in the same global order, so two callers with opposite-order
// demand sets cannot deadlock each other.
func (g *Guard) TryReserveAll(demands map[string]int64) bool {
	if len(demands) == 0 {
		return true
	}

	keys := make([]string, 0, len(demands))
	for key, qty := range demands {
		if qty <= 0 {
			atomic.AddInt64(&g.failures, 1)
			if g.metrics != nil {
				g.metrics.recordFailure()
			}
			return false
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	g.mu.RLock()
	es := make([]*entry, len(keys))
	for i, key := range keys {
		e, ok := g.entries[key]
		if !ok {
			// Unknown key holds quantity zero: the demand cannot be met.
			g.mu.RUnlock()
			atomic.AddInt64(&g.failures, 1)
			if g.metrics != nil {
				g.metrics.recordFailure()
			}
			return false
		}
		es[i] = e
	}
	g.mu.RUnlock()

	// Lock in sorted order; entries are never removed so the pointers
	// collected above stay valid.
	for _, e := range es {
		e.mu.Lock()
	}
	defer func() {
		for i := len(es) - 1; i >= 0; i-- {
			es[i].mu.Unlock()
		}
	}()

	// Check every demand with all locks held
	for i, key := range keys {
		if es[i].qty < demands[key] {
			atomic.AddInt64(&g.failures, 1)
			if g.metrics != nil {
				g.metrics.recordFailure()
			}
			return false
		}
	}

	// Commit all
	for i, key := range keys {
		es[i].qty -= demands[key]
		if g.metrics != nil {
			g.metrics.setUnits(key, es[i].qty)
		}
	}

	atomic.AddInt64(&g.reserves, 1)
	if g.metrics != nil {
		g.metrics.recordReserveAll()
	}

	return true
}

// ReleaseAll returns every demanded quantity in one atomic step, mirroring
// TryReserveAll. Unknown keys are created. Non-positive quantities are
// ignored. This is the rollback path: it must always succeed.
func (g *Guard) ReleaseAll(demands map[string]int64) {
	if len(demands) == 0 {
		return
	}

	keys := make([]string, 0, len(demands))
	for key, qty := range demands {
		if qty <= 0 {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)

	es := g.ensureEntries(keys)

	// Same lexicographic lock order as TryReserveAll
	for _, e := range es {
		e.mu.Lock()
	}

	for i, key := range keys {
		es[i].qty += demands[key]
		if g.metrics != nil {
			g.metrics.setUnits(key, es[i].qty)
		}
	}

	for i := len(es) - 1; i >= 0; i-- {
		es[i].mu.Unlock()
	}

	atomic.AddInt64(&g.releases, 1)
	if g.metrics != nil {
		g.metrics.recordReleaseAll()
	}
}

// ensureEntries returns entries for keys in the same order, creating any
// that are missing. Takes the map write lock at most once.
func (g *Guard) ensureEntries(keys []string) []*entry {
	es := make([]*entry, len(keys))

	g.mu.RLock()
	missing := false
	for i, key := range keys {
		if e, ok := g.entries[key]; ok {
			es[i] = e
		} else {
			missing = true
		}
	}
	g.mu.RUnlock()

	if !missing {
		return es
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i, key := range keys {
		if es[i] != nil {
			continue
		}
		e, ok := g.entries[key]
		if !ok {
			e = &entry{}
			g.entries[key] = e
		}
		es[i] = e
	}

	return es
}
