package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/spawnpool/internal/config"
	"github.com/udisondev/spawnpool/internal/db"
	"github.com/udisondev/spawnpool/internal/model"
	"github.com/udisondev/spawnpool/internal/placement"
	"github.com/udisondev/spawnpool/internal/pool"
	"github.com/udisondev/spawnpool/internal/spawn"
	"github.com/udisondev/spawnpool/internal/testutil"
)

type fakeSets map[string]db.PointSet

func (f fakeSets) LoadSet(_ context.Context, name string) (db.PointSet, error) {
	set, ok := f[name]
	if !ok {
		return db.PointSet{}, db.ErrPointSetNotFound
	}
	return set, nil
}

func testSpawnd() config.Spawnd {
	cfg := config.DefaultSpawnd()
	cfg.Pools = []config.PoolConfig{{
		Name:        "wolf",
		Capacity:    2,
		MaxSize:     4,
		BodyRadius:  10,
		MinLifetime: time.Second,
		MaxLifetime: time.Second,
	}}
	cfg.Spawners = []config.SpawnerConfig{{
		Name:             "den",
		Pool:             "wolf",
		Enabled:          true,
		Ceiling:          3,
		MinInterval:      100 * time.Millisecond,
		MaxInterval:      100 * time.Millisecond,
		RequireClearance: true,
		CheckRadius:      10,
		Strategy: config.StrategyConfig{
			Kind: config.StrategyVolume,
			Box: &config.BoxConfig{
				Center: config.PointConfig{X: 0, Y: 0},
				HalfX:  500,
				HalfY:  500,
			},
		},
		Body: &config.ShapeConfig{
			Box: &config.BoxConfig{HalfX: 600, HalfY: 600, HalfZ: 50},
		},
	}}
	return cfg
}

func TestHost_SpawnsAndDespawns(t *testing.T) {
	w := testutil.NewTestWorld(t)
	h, err := newHost(context.Background(), testSpawnd(), w, nil)
	require.NoError(t, err)
	defer h.shutdown()

	den := h.spawners["den"]
	require.NotNil(t, den)
	require.NoError(t, den.ctrl.Err())
	assert.Equal(t, 1, w.Count(), "spawner body only")

	for range 5 {
		h.ticks.Step(100 * time.Millisecond)
	}
	assert.Equal(t, 3, den.ctrl.Active(), "capped at ceiling")
	assert.Equal(t, 4, w.Count(), "spawner body plus creatures")

	p, err := pool.Lookup[*creature](h.pools, "wolf")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Held())

	// first creature outlives its 1s lifetime
	for range 10 {
		h.ticks.Step(100 * time.Millisecond)
	}
	assert.Positive(t, den.ctrl.Stats().Destroyed)
	assert.LessOrEqual(t, den.ctrl.Active(), 3)
	assert.Equal(t, den.ctrl.Active(), p.Held())
	assert.Equal(t, den.ctrl.Active()+1, w.Count())
}

func TestHost_Shutdown(t *testing.T) {
	w := testutil.NewTestWorld(t)
	h, err := newHost(context.Background(), testSpawnd(), w, nil)
	require.NoError(t, err)

	for range 3 {
		h.ticks.Step(100 * time.Millisecond)
	}
	require.Equal(t, 3, h.spawners["den"].ctrl.Active())

	h.shutdown()
	assert.Equal(t, 0, h.spawners["den"].ctrl.Active())
	assert.Equal(t, 1, w.Count(), "creatures left the world")

	p, err := pool.Lookup[*creature](h.pools, "wolf")
	require.NoError(t, err)
	assert.True(t, p.Closed())
	assert.Equal(t, 0, p.Live())
}

func TestHost_MisconfiguredSpawnerIsInert(t *testing.T) {
	cfg := testSpawnd()
	cfg.Spawners[0].Strategy = config.StrategyConfig{Kind: config.StrategyPoints, PointSet: "camp"}
	cfg.Spawners[0].Body = nil

	w := testutil.NewTestWorld(t)
	h, err := newHost(context.Background(), cfg, w, nil)
	require.NoError(t, err)
	defer h.shutdown()

	den := h.spawners["den"]
	assert.ErrorIs(t, den.ctrl.Err(), spawn.ErrNoStrategy)

	h.ticks.Step(time.Second)
	assert.Equal(t, 0, den.ctrl.Active())
}

func TestHost_OutOfWorldPointsDoNotWedgeSpawner(t *testing.T) {
	for _, clearance := range []bool{false, true} {
		t.Run(fmt.Sprintf("clearance=%t", clearance), func(t *testing.T) {
			cfg := testSpawnd()
			cfg.Spawners[0].RequireClearance = clearance
			cfg.Spawners[0].Body = nil
			cfg.Spawners[0].Strategy = config.StrategyConfig{
				Kind:   config.StrategyPoints,
				Points: []config.PointConfig{{X: 5000, Y: 5000}},
			}

			w := testutil.NewTestWorld(t)
			h, err := newHost(context.Background(), cfg, w, nil)
			require.NoError(t, err)
			defer h.shutdown()

			den := h.spawners["den"]
			require.NoError(t, den.ctrl.Err())
			for range 200 {
				h.ticks.Step(100 * time.Millisecond)
			}

			st := den.ctrl.Stats()
			assert.Equal(t, 0, den.ctrl.Active())
			assert.Zero(t, st.Spawned)
			assert.Zero(t, st.NoCapacity, "ceiling never reached")
			assert.Equal(t, 0, w.Count())
			if clearance {
				assert.Equal(t, st.Attempts, st.Exhausted, "out-of-world points are never clear")
			} else {
				assert.Equal(t, st.Attempts, st.PlaceFailed)
			}

			p, err := pool.Lookup[*creature](h.pools, "wolf")
			require.NoError(t, err)
			assert.Equal(t, 0, p.Held(), "no instance leaked")
		})
	}
}

func TestHost_UnknownPool(t *testing.T) {
	cfg := testSpawnd()
	cfg.Spawners[0].Pool = "bear"

	_, err := newHost(context.Background(), cfg, testutil.NewTestWorld(t), nil)
	assert.ErrorIs(t, err, pool.ErrNotRegistered)
}

func TestBuildStrategy(t *testing.T) {
	sets := fakeSets{
		"camp": {
			Name:       "camp",
			Sequential: true,
			Points:     []model.Location{model.NewLocation(1, 2, 3, 0), model.NewLocation(4, 5, 6, 0)},
		},
	}

	t.Run("volume", func(t *testing.T) {
		s, err := buildStrategy(context.Background(), config.StrategyConfig{
			Kind:   config.StrategyVolume,
			Sphere: &config.SphereConfig{Radius: 50},
		}, nil)
		require.NoError(t, err)
		v, ok := s.(*placement.Volume)
		require.True(t, ok)
		assert.Equal(t, model.ShapeSphere, v.Shape.Kind)
	})

	t.Run("inline points", func(t *testing.T) {
		s, err := buildStrategy(context.Background(), config.StrategyConfig{
			Kind:   config.StrategyPoints,
			Points: []config.PointConfig{{X: 1}, {X: 2}},
		}, nil)
		require.NoError(t, err)
		ps, ok := s.(*placement.PointSet)
		require.True(t, ok)
		assert.Equal(t, 2, ps.Len())
		assert.False(t, ps.Sequential())
	})

	t.Run("stored point set", func(t *testing.T) {
		s, err := buildStrategy(context.Background(), config.StrategyConfig{
			Kind:     config.StrategyPoints,
			PointSet: "camp",
		}, sets)
		require.NoError(t, err)
		ps, ok := s.(*placement.PointSet)
		require.True(t, ok)
		assert.Equal(t, 2, ps.Len())
		assert.True(t, ps.Sequential())
	})

	t.Run("missing point set", func(t *testing.T) {
		_, err := buildStrategy(context.Background(), config.StrategyConfig{
			Kind:     config.StrategyPoints,
			PointSet: "nope",
		}, sets)
		assert.ErrorIs(t, err, db.ErrPointSetNotFound)
	})

	t.Run("no database", func(t *testing.T) {
		_, err := buildStrategy(context.Background(), config.StrategyConfig{
			Kind:     config.StrategyPoints,
			PointSet: "camp",
		}, nil)
		assert.True(t, errors.Is(err, errNoDatabase))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := buildStrategy(context.Background(), config.StrategyConfig{Kind: "grid"}, nil)
		assert.Error(t, err)
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "INFO", parseLogLevel("bogus").String())
}
