// Package spawn keeps a bounded set of pooled instances alive in the world.
//
// A Controller waits a random interval, searches for a clear location, takes
// an instance from its Source and places it there. The instance reports its
// own destruction through the callback bound with OnDespawn, which is the
// only way capacity is given back. An instance that cannot be placed goes
// straight back to the Source and never takes a slot.
//
// Controllers are driven by Update from a single tick goroutine and are not
// safe for concurrent use. Signals from other goroutines must be posted to
// the tick goroutine (see tick.Manager.Post).
package spawn

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/udisondev/spawnpool/internal/model"
	"github.com/udisondev/spawnpool/internal/placement"
)

// Instance is a spawnable pooled object.
type Instance interface {
	comparable
	// Place moves the instance to loc and makes it visible. On error the
	// instance must be left out of the world.
	Place(loc model.Location) error
	// OnDespawn binds the callback the instance calls exactly once when it
	// is permanently removed from the world.
	OnDespawn(fn func())
}

// Source hands out instances. *pool.Pool satisfies it.
type Source[T any] interface {
	Acquire() (T, error)
	Release(T) error
}

// Handle identifies one active instance. Handles are never reused.
type Handle uint64

// warnInterval throttles the repeated attempt warnings per controller.
const warnInterval = 30 * time.Second

// Option configures a Controller.
type Option func(*options)

type options struct {
	rnd              *rand.Rand
	releaseOnDestroy bool
}

// WithRand sets the random source used for waits and placement.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rnd = r }
}

// WithReleaseOnDestroy controls whether destroyed instances go back to the
// source. Enabled by default.
func WithReleaseOnDestroy(release bool) Option {
	return func(o *options) { o.releaseOnDestroy = release }
}

// Controller spawns instances from a Source on a randomized timer.
type Controller[T Instance] struct {
	src              Source[T]
	oracle           placement.Oracle
	rnd              *rand.Rand
	releaseOnDestroy bool

	cfg     Config
	err     error
	enabled bool
	pending time.Duration // remaining wait, valid while scheduled
	waiting bool

	lastHandle Handle
	active     map[Handle]T
	stats      Stats
	warn       rate.Sometimes // search exhausted
	placeWarn  rate.Sometimes
}

// New creates a controller. Configuration problems do not fail construction:
// they are logged, kept in Err and leave the controller inert.
func New[T Instance](cfg Config, src Source[T], oracle placement.Oracle, opts ...Option) *Controller[T] {
	o := options{releaseOnDestroy: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	c := &Controller[T]{
		src:              src,
		oracle:           oracle,
		rnd:              o.rnd,
		releaseOnDestroy: o.releaseOnDestroy,
		active:           make(map[Handle]T),
		warn:             rate.Sometimes{Interval: warnInterval},
		placeWarn:        rate.Sometimes{Interval: warnInterval},
	}
	c.configure(cfg)
	if cfg.Enabled {
		c.Enable()
	}
	return c
}

func (c *Controller[T]) configure(cfg Config) {
	c.cfg = cfg
	c.err = c.validate(cfg)
	if c.err != nil {
		slog.Error("spawner misconfigured, inert until reconfigured",
			"spawner", cfg.Name,
			"err", c.err)
	}
}

func (c *Controller[T]) validate(cfg Config) error {
	if c.src == nil {
		return ErrNoSource
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if cfg.RequireClearance && c.oracle == nil {
		return ErrNoOracle
	}
	return nil
}

// Reconfigure replaces the configuration. On success a pending wait is
// restarted; on failure the controller becomes inert. Active instances are
// kept either way.
//
// A ceiling below the current active count is rejected with
// ErrInvalidCeiling and leaves the controller unchanged.
func (c *Controller[T]) Reconfigure(cfg Config) error {
	if cfg.Ceiling > 0 && cfg.Ceiling < len(c.active) {
		return fmt.Errorf("%w: ceiling %d below %d active instances",
			ErrInvalidCeiling, cfg.Ceiling, len(c.active))
	}
	c.configure(cfg)
	c.waiting = false
	if c.err == nil && c.enabled {
		c.schedule()
	}
	return c.err
}

// Name returns the spawner name.
func (c *Controller[T]) Name() string {
	return c.cfg.Name
}

// Err returns the configuration error that keeps the controller inert.
func (c *Controller[T]) Err() error {
	return c.err
}

// Enabled reports whether the timer runs.
func (c *Controller[T]) Enabled() bool {
	return c.enabled
}

// Enable starts the timer with a fresh wait. No-op if already enabled.
func (c *Controller[T]) Enable() {
	if c.enabled {
		return
	}
	c.enabled = true
	if c.err == nil {
		c.schedule()
	}
	slog.Debug("spawner enabled", "spawner", c.cfg.Name, "wait", c.pending)
}

// Disable cancels the pending wait. Active instances are not touched.
// No-op if already disabled.
func (c *Controller[T]) Disable() {
	if !c.enabled {
		return
	}
	c.enabled = false
	c.waiting = false
	c.pending = 0
	slog.Debug("spawner disabled", "spawner", c.cfg.Name, "active", len(c.active))
}

// Pending returns the remaining wait and whether a wait is scheduled.
func (c *Controller[T]) Pending() (time.Duration, bool) {
	return c.pending, c.waiting
}

// Update advances the timer by dt. When the wait expires it runs one attempt
// and schedules the next wait.
func (c *Controller[T]) Update(dt time.Duration) {
	if c.err != nil || !c.enabled || !c.waiting {
		return
	}
	c.pending -= dt
	if c.pending > 0 {
		return
	}
	c.waiting = false
	c.attempt()
	// the attempt may have disabled the controller through a callback
	if c.enabled && c.err == nil {
		c.schedule()
	}
}

// TrySpawn runs one attempt now, independent of the timer and of whether
// the controller is enabled. The ceiling still applies.
func (c *Controller[T]) TrySpawn() (Handle, Outcome) {
	if c.err != nil {
		return 0, OutcomeInert
	}
	return c.attempt()
}

func (c *Controller[T]) schedule() {
	lo, hi := c.cfg.MinInterval, c.cfg.MaxInterval
	wait := lo
	if hi > lo {
		wait += time.Duration(c.rnd.Int64N(int64(hi-lo) + 1))
	}
	c.pending = wait
	c.waiting = true
}

func (c *Controller[T]) attempt() (Handle, Outcome) {
	h, out := c.spawn()
	c.stats.record(out)
	recordAttempt(c.cfg.Name, out)
	return h, out
}

func (c *Controller[T]) spawn() (Handle, Outcome) {
	if len(c.active) >= c.cfg.Ceiling {
		return 0, OutcomeNoCapacity
	}

	var check placement.Check
	if c.cfg.RequireClearance {
		check = placement.Clearance(c.oracle, c.cfg.CheckRadius, c.cfg.Self)
	}
	res, err := placement.Search(c.rnd, c.cfg.Strategy, check, c.cfg.maxAttempts())
	if err != nil {
		if errors.Is(err, placement.ErrExhausted) {
			c.warn.Do(func() {
				slog.Warn("spawn placement exhausted",
					"spawner", c.cfg.Name,
					"attempts", res.Attempts,
					"active", len(c.active))
			})
			return 0, OutcomeSearchExhausted
		}
		// strategy went bad after validation
		c.err = fmt.Errorf("placement: %w", err)
		slog.Error("spawner misconfigured, inert until reconfigured",
			"spawner", c.cfg.Name,
			"err", c.err)
		return 0, OutcomeInert
	}

	inst, err := c.src.Acquire()
	if err != nil {
		slog.Warn("spawn acquire failed",
			"spawner", c.cfg.Name,
			"err", err)
		return 0, OutcomeNoResource
	}

	if err := inst.Place(res.Location); err != nil {
		c.placeWarn.Do(func() {
			slog.Warn("spawn place failed",
				"spawner", c.cfg.Name,
				"location", res.Location,
				"err", err)
		})
		if err := c.src.Release(inst); err != nil {
			slog.Warn("releasing unplaced instance",
				"spawner", c.cfg.Name,
				"err", err)
		}
		return 0, OutcomePlaceFailed
	}

	c.lastHandle++
	h := c.lastHandle
	c.active[h] = inst
	inst.OnDespawn(func() { c.NotifyDestroyed(h) })

	slog.Debug("instance spawned",
		"spawner", c.cfg.Name,
		"handle", h,
		"location", res.Location,
		"attempts", res.Attempts,
		"active", len(c.active))
	return h, OutcomeSuccess
}

// NotifyDestroyed removes h from the active set and, unless disabled with
// WithReleaseOnDestroy, releases the instance to the source. Unknown or
// already removed handles are ignored. Reports whether h was active.
func (c *Controller[T]) NotifyDestroyed(h Handle) bool {
	inst, ok := c.active[h]
	if !ok {
		return false
	}
	delete(c.active, h)
	c.stats.Destroyed++

	if c.releaseOnDestroy {
		if err := c.src.Release(inst); err != nil {
			slog.Warn("releasing destroyed instance",
				"spawner", c.cfg.Name,
				"handle", h,
				"err", err)
		}
	}
	return true
}

// DespawnAll removes every active instance as if each reported its
// destruction. Returns the number removed.
func (c *Controller[T]) DespawnAll() int {
	n := 0
	for _, h := range c.Handles() {
		if c.NotifyDestroyed(h) {
			n++
		}
	}
	if n > 0 {
		slog.Info("spawner despawned all", "spawner", c.cfg.Name, "count", n)
	}
	return n
}

// Active returns the number of active instances.
func (c *Controller[T]) Active() int {
	return len(c.active)
}

// Handles returns the active handles in ascending order.
func (c *Controller[T]) Handles() []Handle {
	return slices.Sorted(maps.Keys(c.active))
}

// Instance returns the instance behind an active handle.
func (c *Controller[T]) Instance(h Handle) (T, bool) {
	inst, ok := c.active[h]
	return inst, ok
}

// Stats returns outcome counters.
func (c *Controller[T]) Stats() Stats {
	return c.stats
}

// Config returns the current configuration.
func (c *Controller[T]) Config() Config {
	return c.cfg
}
