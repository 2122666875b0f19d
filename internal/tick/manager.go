// Package tick drives per-frame updates for spawn controllers and other
// host components that advance with elapsed time.
package tick

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 100 * time.Millisecond

// ErrDuplicate is returned when a name is registered twice.
var ErrDuplicate = errors.New("tick: already registered")

// Updatable advances by dt each tick.
type Updatable interface {
	Update(dt time.Duration)
}

// UpdateFunc adapts a function to Updatable.
type UpdateFunc func(dt time.Duration)

// Update implements Updatable.
func (f UpdateFunc) Update(dt time.Duration) {
	f(dt)
}

type entry struct {
	name string
	u    Updatable
}

// Manager runs registered Updatables on a single goroutine. Work from other
// goroutines reaches them through Post.
type Manager struct {
	interval time.Duration

	mu      sync.Mutex
	entries []entry // registration order
	mailbox []func()

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewManager creates a manager ticking every interval (DefaultInterval if <= 0).
func NewManager(interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Manager{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Interval returns the tick period.
func (m *Manager) Interval() time.Duration {
	return m.interval
}

// Register adds u under name. Updatables run in registration order.
func (m *Manager) Register(name string, u Updatable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.name == name {
			return fmt.Errorf("registering %q: %w", name, ErrDuplicate)
		}
	}
	m.entries = append(m.entries, entry{name: name, u: u})

	slog.Debug("tick updatable registered", "name", name)
	return nil
}

// Unregister removes name. Unknown names are ignored.
func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.name == name {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			slog.Debug("tick updatable unregistered", "name", name)
			return
		}
	}
}

// Count returns the number of registered updatables.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Post queues fn to run on the tick goroutine at the start of the next tick.
// Safe for concurrent use.
func (m *Manager) Post(fn func()) {
	m.mu.Lock()
	m.mailbox = append(m.mailbox, fn)
	m.mu.Unlock()
}

// Step runs one tick: drains the mailbox in post order, then updates every
// registered updatable with dt. Hosts with their own frame loop call Step
// directly instead of Start.
func (m *Manager) Step(dt time.Duration) {
	m.mu.Lock()
	posted := m.mailbox
	m.mailbox = nil
	entries := make([]entry, len(m.entries))
	copy(entries, m.entries)
	m.mu.Unlock()

	for _, fn := range posted {
		fn()
	}
	for _, e := range entries {
		e.u.Update(dt)
	}
}

// Start runs the tick loop until ctx is canceled or Stop is called.
// dt is the measured time since the previous tick.
func (m *Manager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("tick manager started", "interval", m.interval, "updatables", m.Count())

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("tick manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("tick manager stopped")
			return nil

		case now := <-ticker.C:
			m.Step(now.Sub(last))
			last = now
		}
	}
}

// Stop stops the tick loop. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}
