// Package platform holds the capabilities the sync engine needs from its
// runtime: connectivity signals and a local-only cross-context channel.
// The engine depends only on the interfaces; adapters for real platforms
// (browser storage events, OS-level IPC) implement them elsewhere.
package platform

import "sync"

// ConnectivityObserver reports whether the store is reachable and signals
// transitions. The coordinator reads Online before each cycle and treats a
// false→true transition as a sync trigger.
type ConnectivityObserver interface {
	Online() bool
	// Changes delivers the new online state on every transition.
	Changes() <-chan bool
}

// Monitor is a manually driven ConnectivityObserver. Production adapters
// wrap OS or browser signals; tests and the demo CLI flip it directly.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   []chan bool
}

// NewMonitor creates a monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Changes returns a channel receiving every state transition.
func (m *Monitor) Changes() <-chan bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan bool, 4)
	m.subs = append(m.subs, ch)
	return ch
}

// Set transitions the state, notifying subscribers on change. Slow
// subscribers miss intermediate transitions rather than blocking the caller.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
		}
	}
}
