package health

import (
	"sync"
	"time"
)

// Monitor is a registry of per-component health. Components (the pipeline,
// its queue, the metrics server) publish statuses in; operators read the
// aggregate out. Safe for concurrent use.
type Monitor struct {
	mu         sync.RWMutex
	components map[string]Status
}

// NewMonitor returns an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		components: make(map[string]Status),
	}
}

// Update publishes status under name. The component field is forced to
// name, and an unset timestamp is stamped now.
func (m *Monitor) Update(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	m.components[name] = status
}

// UpdateHealthy publishes a healthy status for name.
func (m *Monitor) UpdateHealthy(name, message string) {
	m.Update(name, NewHealthy(name, message))
}

// UpdateUnhealthy publishes an unhealthy status for name.
func (m *Monitor) UpdateUnhealthy(name, message string) {
	m.Update(name, NewUnhealthy(name, message))
}

// UpdateDegraded publishes a degraded status for name.
func (m *Monitor) UpdateDegraded(name, message string) {
	m.Update(name, NewDegraded(name, message))
}

// Get returns the last published status for name, and whether one exists.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, exists := m.components[name]
	return status, exists
}

// GetAll returns a snapshot of every component's last status.
func (m *Monitor) GetAll() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]Status, len(m.components))
	for name, status := range m.components {
		result[name] = status
	}
	return result
}

// Remove drops name from the monitor.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.components, name)
}

// AggregateHealth folds every tracked status into a single system status
// under Aggregate's worst-wins rules.
func (m *Monitor) AggregateHealth(systemName string) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subStatuses := make([]Status, 0, len(m.components))
	for _, status := range m.components {
		subStatuses = append(subStatuses, status)
	}

	return Aggregate(systemName, subStatuses)
}

// Healthy reports whether every tracked component is healthy. An empty
// monitor is healthy.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, status := range m.components {
		if !status.IsHealthy() {
			return false
		}
	}
	return true
}

// ListComponents returns the names currently tracked.
func (m *Monitor) ListComponents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.components))
	for name := range m.components {
		names = append(names, name)
	}
	return names
}

// Count returns how many components are tracked.
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.components)
}

// Clear drops every tracked component.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = make(map[string]Status)
}
