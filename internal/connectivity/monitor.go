// Package connectivity owns the process-wide network connectivity flag.
//
// The flag is a single observable value: platform-level events update
// it through SetOnline, and every other component only reads or
// subscribes. Consumers must never poll the platform themselves or
// mutate the flag - the monitor is the one owner.
package connectivity

import "sync"

// Monitor holds the current connectivity state and notifies subscribers
// on transitions.
//
// Thread-safety: all methods are safe for concurrent use. Callbacks run
// synchronously on the goroutine delivering the platform event.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[int]func(online bool)
	nextID int
}

// New creates a monitor seeded by querying the platform's current
// connectivity flag. The initial state is probed, not assumed online,
// so a client that mounts while offline routes correctly from the
// first navigation.
func New(probe func() bool) *Monitor {
	return &Monitor{
		online: probe(),
		subs:   make(map[int]func(bool)),
	}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a platform connectivity event (came-online /
// went-offline). Subscribers are notified only on actual transitions.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers a callback for connectivity transitions.
// Returns a cancel function removing the subscription.
func (m *Monitor) Subscribe(fn func(online bool)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}
