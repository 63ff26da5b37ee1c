// Package connectivity tracks the online/offline state the sync manager
// keys off. The monitor itself only relays a signal; it never retries
// anything and never probes beyond what its signal source reports.
package connectivity

import (
	"sync"

	"go.uber.org/zap"
)

// Monitor holds the current connectivity state and notifies listeners
// on transitions. A false "online" reading (captive portal, DNS-only
// outage) is possible; downstream retry policy treats the resulting
// failures as ordinary transient errors.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	listeners []func(online bool)
	logger    *zap.Logger
}

// NewMonitor creates a monitor with an initial state
func NewMonitor(online bool, logger *zap.Logger) *Monitor {
	return &Monitor{
		online: online,
		logger: logger,
	}
}

// IsOnline reports the current connectivity state
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnChange registers a listener invoked on every state transition
func (m *Monitor) OnChange(listener func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// SetOnline records a new state reported by the signal source.
// Listeners fire only when the state actually changes.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	listeners := make([]func(bool), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	m.logger.Info("connectivity changed", zap.Bool("online", online))

	for _, listener := range listeners {
		listener(online)
	}
}
