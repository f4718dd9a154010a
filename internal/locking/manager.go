package locking

import (
	"fmt"
	"sync"
)

// Manager provides named non-blocking locks. Scheduled jobs use it to skip
// a tick when the previous run is still in flight instead of queueing.
type Manager struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewManager creates a new lock manager
func NewManager() *Manager {
	return &Manager{
		held: make(map[string]bool),
	}
}

// Acquire takes the named lock, failing immediately if it is already held
func (m *Manager) Acquire(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held[name] {
		return fmt.Errorf("lock %q already held", name)
	}
	m.held[name] = true
	return nil
}

// Release releases the named lock
func (m *Manager) Release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, name)
}

// IsHeld reports whether the named lock is currently held
func (m *Manager) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[name]
}
