package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/spawnpool/internal/config"
	"github.com/udisondev/spawnpool/internal/db"
	"github.com/udisondev/spawnpool/internal/model"
	"github.com/udisondev/spawnpool/internal/placement"
	"github.com/udisondev/spawnpool/internal/pool"
	"github.com/udisondev/spawnpool/internal/spawn"
	"github.com/udisondev/spawnpool/internal/tick"
	"github.com/udisondev/spawnpool/internal/world"
)

// pointSetLoader resolves named point sets (db.PointSetRepository).
type pointSetLoader interface {
	LoadSet(ctx context.Context, name string) (db.PointSet, error)
}

var errNoDatabase = errors.New("point_set requires a database")

// spawner drives one controller and ages the creatures it spawned.
type spawner struct {
	ctrl *spawn.Controller[*creature]
}

// Update implements tick.Updatable.
func (s *spawner) Update(dt time.Duration) {
	for _, h := range s.ctrl.Handles() {
		if c, ok := s.ctrl.Instance(h); ok {
			c.age(dt)
		}
	}
	s.ctrl.Update(dt)
}

// host owns everything the daemon runs: the world, the pools and the
// spawners, all driven by one tick manager.
type host struct {
	world    *world.World
	pools    *pool.Registry
	ticks    *tick.Manager
	spawners map[string]*spawner
}

func newHost(ctx context.Context, cfg config.Spawnd, w *world.World, sets pointSetLoader) (*host, error) {
	h := &host{
		world:    w,
		pools:    pool.NewRegistry(),
		ticks:    tick.NewManager(cfg.TickInterval),
		spawners: make(map[string]*spawner, len(cfg.Spawners)),
	}

	for _, pc := range cfg.Pools {
		p, err := newCreaturePool(pc, w)
		if err != nil {
			h.pools.Close()
			return nil, fmt.Errorf("creating pool %s: %w", pc.Name, err)
		}
		if err := h.pools.Register(p); err != nil {
			p.Close()
			h.pools.Close()
			return nil, err
		}
		slog.Info("pool created",
			"pool", pc.Name,
			"capacity", pc.Capacity,
			"max_size", pc.MaxSize,
			"overflow", p.Policy())
	}

	for _, sc := range cfg.Spawners {
		src, err := pool.Lookup[*creature](h.pools, sc.Pool)
		if err != nil {
			h.pools.Close()
			return nil, fmt.Errorf("spawner %s: %w", sc.Name, err)
		}

		spawnCfg, err := h.spawnConfig(ctx, sc, sets)
		if err != nil {
			// the controller reports the missing strategy and stays inert
			slog.Error("building spawner strategy", "spawner", sc.Name, "err", err)
		}

		s := &spawner{ctrl: spawn.New[*creature](spawnCfg, src, w)}
		if err := h.ticks.Register(sc.Name, s); err != nil {
			h.pools.Close()
			return nil, err
		}
		h.spawners[sc.Name] = s

		slog.Info("spawner created",
			"spawner", sc.Name,
			"pool", sc.Pool,
			"enabled", sc.Enabled,
			"ceiling", sc.Ceiling,
			"ok", s.ctrl.Err() == nil)
	}

	return h, nil
}

func (h *host) spawnConfig(ctx context.Context, sc config.SpawnerConfig, sets pointSetLoader) (spawn.Config, error) {
	cfg := spawn.Config{
		Name:             sc.Name,
		Enabled:          sc.Enabled,
		Ceiling:          sc.Ceiling,
		MinInterval:      sc.MinInterval,
		MaxInterval:      sc.MaxInterval,
		RequireClearance: sc.RequireClearance,
		CheckRadius:      sc.CheckRadius,
		MaxAttempts:      sc.MaxAttempts,
	}

	if sc.Body != nil {
		if shape, ok := sc.Body.Shape(); ok {
			body := model.NewBody(h.world.IDs().NextStaticID(), sc.Name, shape)
			if err := h.world.Add(body); err != nil {
				return cfg, fmt.Errorf("adding spawner body: %w", err)
			}
			cfg.Self = body.ObjectID()
		}
	}

	strategy, err := buildStrategy(ctx, sc.Strategy, sets)
	if err != nil {
		return cfg, err
	}
	cfg.Strategy = strategy
	return cfg, nil
}

func buildStrategy(ctx context.Context, sc config.StrategyConfig, sets pointSetLoader) (placement.Strategy, error) {
	switch sc.Kind {
	case config.StrategyVolume:
		shape, ok := config.ShapeConfig{Box: sc.Box, Sphere: sc.Sphere}.Shape()
		if !ok {
			return nil, errors.New("volume strategy without shape")
		}
		return &placement.Volume{Shape: shape, Heading: sc.Heading, RandomHeading: sc.RandomHeading}, nil

	case config.StrategyPoints:
		points, sequential := sc.Locations(), sc.Sequential
		if sc.PointSet != "" {
			if sets == nil {
				return nil, fmt.Errorf("%w: %s", errNoDatabase, sc.PointSet)
			}
			set, err := sets.LoadSet(ctx, sc.PointSet)
			if err != nil {
				return nil, err
			}
			points = set.Points
			sequential = sequential || set.Sequential
		}
		if sequential {
			return placement.NewSequentialPointSet(points), nil
		}
		return placement.NewPointSet(points), nil
	}
	return nil, fmt.Errorf("unknown strategy kind %q", sc.Kind)
}

// logStats is posted to the tick goroutine; controllers are not safe to
// read from elsewhere.
func (h *host) logStats() {
	for name, s := range h.spawners {
		st := s.ctrl.Stats()
		slog.Info("spawner stats",
			"spawner", name,
			"active", s.ctrl.Active(),
			"spawned", st.Spawned,
			"destroyed", st.Destroyed,
			"no_capacity", st.NoCapacity,
			"exhausted", st.Exhausted,
			"no_resource", st.NoResource,
			"place_failed", st.PlaceFailed)
	}
	for _, name := range h.pools.Names() {
		p, err := h.pools.Get(name)
		if err != nil {
			continue
		}
		slog.Info("pool stats",
			"pool", name,
			"live", p.Live(),
			"free", p.Free(),
			"held", p.Held())
	}
	slog.Info("world stats", "bodies", h.world.Count())
}

// shutdown despawns every active creature and closes the pools.
func (h *host) shutdown() {
	for _, s := range h.spawners {
		s.ctrl.Disable()
		s.ctrl.DespawnAll()
	}
	h.pools.Close()
}
