package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ErrNotRegistered indicates the requested pool has not been registered.
var ErrNotRegistered = errors.New("pool registry: pool not registered")

// Managed is the type-erased view of a Pool held by a Registry.
type Managed interface {
	Name() string
	Live() int
	Free() int
	Held() int
	Close()
}

// Registry owns a set of named pools of different instance types.
// It is passed explicitly to the code that needs pools; there is no
// process-wide default registry.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]Managed
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]Managed)}
}

// Register adds a pool under its name.
func (r *Registry) Register(p Managed) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pools[p.Name()]; exists {
		return fmt.Errorf("pool registry: pool %s already registered", p.Name())
	}
	r.pools[p.Name()] = p
	return nil
}

// Get returns the type-erased pool registered under name.
func (r *Registry) Get(name string) (Managed, error) {
	r.mu.RLock()
	p, ok := r.pools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return p, nil
}

// Lookup returns the pool registered under name with its concrete type.
func Lookup[T comparable](r *Registry, name string) (*Pool[T], error) {
	m, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	p, ok := m.(*Pool[T])
	if !ok {
		return nil, fmt.Errorf("pool registry: pool %s holds %T, not %T", name, m, (*Pool[T])(nil))
	}
	return p, nil
}

// Names returns the registered pool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pools))
	for name := range r.pools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close closes every registered pool. Held instances are reported, not reclaimed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, p := range r.pools {
		if held := p.Held(); held > 0 {
			slog.Warn("closing pool with instances still held", "pool", name, "held", held)
		}
		p.Close()
	}
	slog.Info("pools closed", "count", len(r.pools))
}
