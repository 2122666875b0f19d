// Package pool provides a bounded, identity-tracking object pool with
// pre-warming and an explicit overflow policy.
//
// A Pool hands instances out with Acquire and takes them back with Release.
// It remembers every instance it created, so releasing a foreign instance
// or releasing the same instance twice is reported as ErrInvalidRelease and
// leaves the pool untouched.
//
// Live never exceeds MaxSize. What happens when an Acquire finds the free
// list empty and Live == MaxSize is decided by the OverflowPolicy:
//
//   - OverflowReject (default) fails with ErrCapacityExceeded.
//   - OverflowAllow creates the instance anyway and accounts for it in a
//     separate overflow bucket (see Pool.Overflow).
//
// Blocking until an instance is returned is not offered: pools are driven
// from a cooperative tick loop where a blocked Acquire would stall the host.
package pool

import (
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNoFactory is returned by New when no factory is bound.
	ErrNoFactory = errors.New("pool: factory required")
	// ErrInvalidSize is returned by New for non-positive or inconsistent sizes.
	ErrInvalidSize = errors.New("pool: invalid size")
	// ErrCapacityExceeded is returned by Acquire under OverflowReject when
	// MaxSize instances are live and none is free.
	ErrCapacityExceeded = errors.New("pool: capacity exceeded")
	// ErrInvalidRelease is returned for foreign or double releases.
	ErrInvalidRelease = errors.New("pool: invalid release")
	// ErrClosed is returned by operations on a closed pool.
	ErrClosed = errors.New("pool: closed")
)

// DefaultMaxSize is the hard ceiling used when WithMaxSize is not given.
const DefaultMaxSize = 10000

// Factory constructs a new instance.
type Factory[T any] func() (T, error)

// Poolable is implemented by instances that react to pool transitions.
// OnActivate runs before the instance is handed to a new owner, OnReset
// before it re-enters the free list.
type Poolable interface {
	OnActivate()
	OnReset()
}

// Destroyable is implemented by instances that need cleanup when the pool
// destroys them.
type Destroyable interface {
	OnDestroy()
}

type capability uint8

const (
	capPoolable capability = 1 << iota
	capDestroyable
)

func capabilitiesOf(x any) capability {
	var c capability
	if _, ok := x.(Poolable); ok {
		c |= capPoolable
	}
	if _, ok := x.(Destroyable); ok {
		c |= capDestroyable
	}
	return c
}

// Stats are cumulative pool counters.
type Stats struct {
	Acquired   uint64 // successful Acquire calls
	Hits       uint64 // served from the free list
	Misses     uint64 // served by the factory
	Released   uint64 // successful Release calls
	Destroyed  uint64 // instances destroyed (overflow, Discard, Close)
	Overflowed uint64 // instances created past MaxSize
}

type slot struct {
	idle     bool // in the free list
	overflow bool // accounted in the overflow bucket
	caps     capability
}

// Pool is a bounded pool of reusable instances of T.
// Pool is safe for concurrent use. The factory and hooks run with the pool
// lock held and must not call back into the pool.
type Pool[T comparable] struct {
	name     string
	factory  Factory[T]
	activate func(T)
	reset    func(T)
	destroy  func(T)
	caps     capability
	perInst  bool // T is an interface type: capabilities resolved per instance
	capacity int
	maxSize  int
	overflow OverflowPolicy

	mu     sync.Mutex
	free   []T // LIFO
	slots  map[T]slot
	live   int
	extra  int
	closed bool
	stats  Stats

	metrics metric.Registration
}

// New creates a pool and pre-warms it with Capacity instances.
func New[T comparable](name string, factory Factory[T], opts ...Option[T]) (*Pool[T], error) {
	if factory == nil {
		return nil, fmt.Errorf("creating pool %s: %w", name, ErrNoFactory)
	}

	cfg := options[T]{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxSize <= 0 || cfg.capacity < 0 || cfg.capacity > cfg.maxSize {
		return nil, fmt.Errorf("creating pool %s: capacity %d, max size %d: %w",
			name, cfg.capacity, cfg.maxSize, ErrInvalidSize)
	}

	// Capabilities are resolved once here; a nil pointer still carries its
	// method set. An interface T has a nil zero value, so each instance is
	// checked once when the factory creates it.
	var zero T

	p := &Pool[T]{
		name:     name,
		factory:  factory,
		activate: chain(cfg.activate),
		reset:    chain(cfg.reset),
		destroy:  chain(cfg.destroy),
		caps:     capabilitiesOf(any(zero)),
		perInst:  any(zero) == nil,
		capacity: cfg.capacity,
		maxSize:  cfg.maxSize,
		overflow: cfg.overflow,
		free:     make([]T, 0, cfg.capacity),
		slots:    make(map[T]slot, cfg.capacity),
	}

	if p.capacity > 0 {
		if _, err := p.Warm(p.capacity); err != nil {
			p.Close()
			return nil, fmt.Errorf("creating pool %s: %w", name, err)
		}
	}

	p.metrics = observe(p)
	return p, nil
}

func chain[T any](hooks []func(T)) func(T) {
	switch len(hooks) {
	case 0:
		return func(T) {}
	case 1:
		return hooks[0]
	}
	return func(x T) {
		for _, h := range hooks {
			h(x)
		}
	}
}

// Name returns the pool name.
func (p *Pool[T]) Name() string {
	return p.name
}

// Acquire takes an instance from the free list, or creates one.
// The activate hook has run when the instance is returned.
func (p *Pool[T]) Acquire() (T, error) {
	var zero T

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return zero, fmt.Errorf("acquiring from pool %s: %w", p.name, ErrClosed)
	}

	if n := len(p.free) - 1; n >= 0 {
		x := p.free[n]
		p.free[n] = zero
		p.free = p.free[:n]
		s := slot{caps: p.slots[x].caps}
		p.slots[x] = s
		p.stats.Acquired++
		p.stats.Hits++
		p.onActivate(x, s.caps)
		return x, nil
	}

	overflow := p.live >= p.maxSize
	if overflow && p.overflow != OverflowAllow {
		return zero, fmt.Errorf("acquiring from pool %s (%d/%d live): %w",
			p.name, p.live, p.maxSize, ErrCapacityExceeded)
	}

	x, err := p.factory()
	if err != nil {
		return zero, fmt.Errorf("acquiring from pool %s: creating instance: %w", p.name, err)
	}
	if _, dup := p.slots[x]; dup {
		return zero, fmt.Errorf("acquiring from pool %s: factory returned an instance the pool already owns", p.name)
	}

	if overflow {
		p.extra++
		p.stats.Overflowed++
	} else {
		p.live++
	}
	s := slot{overflow: overflow, caps: p.capabilities(x)}
	p.slots[x] = s
	p.stats.Acquired++
	p.stats.Misses++
	p.onActivate(x, s.caps)
	return x, nil
}

// Release returns a held instance to the pool. The reset hook runs before
// the instance re-enters the free list; the instance is destroyed instead
// when the free list is full or the pool is closed.
// Overflow instances take a regular slot when one has become available.
func (p *Pool[T]) Release(x T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.slots[x]
	switch {
	case !ok:
		return fmt.Errorf("releasing to pool %s: instance not owned by pool: %w", p.name, ErrInvalidRelease)
	case s.idle:
		return fmt.Errorf("releasing to pool %s: instance already released: %w", p.name, ErrInvalidRelease)
	}

	p.stats.Released++
	p.onReset(x, s.caps)

	if p.closed {
		p.drop(x, s)
		return nil
	}

	if s.overflow {
		if p.live >= p.maxSize {
			p.drop(x, s)
			return nil
		}
		p.extra--
		p.live++
		s.overflow = false
	}

	if len(p.free) >= p.maxSize {
		p.drop(x, s)
		return nil
	}

	p.slots[x] = slot{idle: true, caps: s.caps}
	p.free = append(p.free, x)
	return nil
}

// Warm creates up to n instances (bounded by MaxSize) and puts them on the
// free list in reset state. It returns how many were created.
func (p *Pool[T]) Warm(n int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, fmt.Errorf("warming pool %s: %w", p.name, ErrClosed)
	}

	created := 0
	for created < n && p.live < p.maxSize {
		x, err := p.factory()
		if err != nil {
			return created, fmt.Errorf("warming pool %s: creating instance: %w", p.name, err)
		}
		if _, dup := p.slots[x]; dup {
			return created, fmt.Errorf("warming pool %s: factory returned an instance the pool already owns", p.name)
		}
		caps := p.capabilities(x)
		p.live++
		p.onReset(x, caps)
		p.slots[x] = slot{idle: true, caps: caps}
		p.free = append(p.free, x)
		created++
	}
	return created, nil
}

// Discard forgets an instance that destroyed itself. The slot is freed,
// the destroy hook runs and the instance never re-enters the free list.
func (p *Pool[T]) Discard(x T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.slots[x]
	if !ok {
		return fmt.Errorf("discarding from pool %s: instance not owned by pool: %w", p.name, ErrInvalidRelease)
	}

	if s.idle {
		for i, f := range p.free {
			if f == x {
				p.free = append(p.free[:i], p.free[i+1:]...)
				break
			}
		}
	}
	p.drop(x, s)
	return nil
}

// Close destroys every free instance and rejects further acquires.
// Instances still held by callers are not reclaimed; releasing them later
// destroys them.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true

	for _, x := range p.free {
		p.drop(x, p.slots[x])
	}
	p.free = nil

	reg := p.metrics
	p.metrics = nil
	p.mu.Unlock()

	// outside p.mu: a running collection holds the callback lock and waits for p.mu
	if reg != nil {
		_ = reg.Unregister()
	}
}

// drop destroys x. Caller holds p.mu.
func (p *Pool[T]) drop(x T, s slot) {
	delete(p.slots, x)
	if s.overflow {
		p.extra--
	} else {
		p.live--
	}
	p.stats.Destroyed++
	p.onDestroy(x, s.caps)
}

// capabilities returns the hooks x supports. Caller holds p.mu.
func (p *Pool[T]) capabilities(x T) capability {
	if p.perInst {
		return capabilitiesOf(any(x))
	}
	return p.caps
}

func (p *Pool[T]) onActivate(x T, c capability) {
	if c&capPoolable != 0 {
		any(x).(Poolable).OnActivate()
	}
	p.activate(x)
}

func (p *Pool[T]) onReset(x T, c capability) {
	if c&capPoolable != 0 {
		any(x).(Poolable).OnReset()
	}
	p.reset(x)
}

func (p *Pool[T]) onDestroy(x T, c capability) {
	p.destroy(x)
	if c&capDestroyable != 0 {
		any(x).(Destroyable).OnDestroy()
	}
}

// Live returns the number of regular instances owned by the pool, free or held.
func (p *Pool[T]) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Free returns the number of instances on the free list.
func (p *Pool[T]) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Overflow returns the number of held instances created past MaxSize.
func (p *Pool[T]) Overflow() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extra
}

// Held returns the number of instances currently out with callers.
func (p *Pool[T]) Held() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live + p.extra - len(p.free)
}

// Capacity returns the pre-warm count.
func (p *Pool[T]) Capacity() int {
	return p.capacity
}

// MaxSize returns the hard ceiling on Live.
func (p *Pool[T]) MaxSize() int {
	return p.maxSize
}

// Policy returns the overflow policy.
func (p *Pool[T]) Policy() OverflowPolicy {
	return p.overflow
}

// Closed reports whether Close was called.
func (p *Pool[T]) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Pool[T]) gauges() (live, free, overflow int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(p.live), int64(len(p.free)), int64(p.extra)
}
