package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/udisondev/spawnpool/internal/config"
	"github.com/udisondev/spawnpool/internal/model"
	"github.com/udisondev/spawnpool/internal/pool"
	"github.com/udisondev/spawnpool/internal/world"
)

// creature is the demo pooled instance: a blocking body that lives in the
// world for a random lifetime and then despawns itself.
type creature struct {
	body  *model.Body
	world *world.World

	minLifetime, maxLifetime time.Duration
	rnd                      *rand.Rand

	alive   bool
	left    time.Duration
	despawn func()
}

// Place implements spawn.Instance. A creature that cannot enter the world
// stays out of it.
func (c *creature) Place(loc model.Location) error {
	id := c.body.ObjectID()
	c.body.SetLocation(loc)
	err := c.world.Add(c.body)
	if errors.Is(err, world.ErrDuplicateObject) {
		err = c.world.Move(id, loc)
	}
	if err != nil {
		c.world.Remove(id)
		return fmt.Errorf("placing creature %d: %w", id, err)
	}
	c.alive = true
	c.left = c.lifetime()
	return nil
}

// OnDespawn implements spawn.Instance.
func (c *creature) OnDespawn(fn func()) {
	c.despawn = fn
}

// OnActivate implements pool.Poolable.
func (c *creature) OnActivate() {}

// OnReset implements pool.Poolable.
func (c *creature) OnReset() {
	c.alive = false
	c.left = 0
	c.despawn = nil
	c.world.Remove(c.body.ObjectID())
}

// OnDestroy implements pool.Destroyable.
func (c *creature) OnDestroy() {
	c.world.Remove(c.body.ObjectID())
}

// age advances the lifetime; an expired creature leaves the world and
// reports its destruction.
func (c *creature) age(dt time.Duration) {
	if !c.alive {
		return
	}
	c.left -= dt
	if c.left > 0 {
		return
	}
	c.alive = false
	c.world.Remove(c.body.ObjectID())
	if fn := c.despawn; fn != nil {
		c.despawn = nil
		fn()
	}
}

func (c *creature) lifetime() time.Duration {
	if c.maxLifetime <= c.minLifetime {
		return c.minLifetime
	}
	return c.minLifetime + time.Duration(c.rnd.Int64N(int64(c.maxLifetime-c.minLifetime)+1))
}

// newCreaturePool creates the pool described by pc. Instances are created
// outside the world and enter it on Place.
func newCreaturePool(pc config.PoolConfig, w *world.World) (*pool.Pool[*creature], error) {
	policy, err := pool.ParseOverflowPolicy(pc.Overflow)
	if err != nil {
		return nil, err
	}

	rnd := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	factory := func() (*creature, error) {
		id := w.IDs().NextSpawnedID()
		return &creature{
			body:        model.NewBody(id, pc.Name, model.Sphere(model.Location{}, pc.BodyRadius)),
			world:       w,
			minLifetime: pc.MinLifetime,
			maxLifetime: pc.MaxLifetime,
			rnd:         rnd,
		}, nil
	}

	return pool.New(pc.Name, factory,
		pool.WithCapacity[*creature](pc.Capacity),
		pool.WithMaxSize[*creature](pc.MaxSize),
		pool.WithOverflow[*creature](policy),
	)
}
