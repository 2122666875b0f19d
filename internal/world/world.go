package world

import (
	"errors"
	"fmt"
	"sync"

	"github.com/udisondev/spawnpool/internal/model"
	"github.com/udisondev/spawnpool/internal/placement"
)

var (
	// ErrOutOfBounds is returned for locations outside the world bounds.
	ErrOutOfBounds = errors.New("world: location out of bounds")
	// ErrDuplicateObject is returned when a body ID is already present.
	ErrDuplicateObject = errors.New("world: duplicate object")
	// ErrUnknownObject is returned when a body ID is not present.
	ErrUnknownObject = errors.New("world: unknown object")
)

var _ placement.Oracle = (*World)(nil)

type entry struct {
	body   *model.Body
	region *Region
}

// World is a 2D region grid of colliders answering occupancy queries.
// Each host owns its worlds explicitly; there is no global instance.
type World struct {
	grid Grid
	ids  *ObjectIDGenerator

	mu       sync.RWMutex
	regions  [][]*Region // [regionsX][regionsY]
	bodies   map[model.ObjectID]entry
	maxReach int32 // largest collider reach ever added, widens query windows
}

// New creates a world over bounds with DefaultShiftBy.
func New(bounds Bounds) (*World, error) {
	return NewWithShift(bounds, DefaultShiftBy)
}

// NewWithShift creates a world over bounds with 2^shift units per region.
func NewWithShift(bounds Bounds, shift uint) (*World, error) {
	grid, err := NewGrid(bounds, shift)
	if err != nil {
		return nil, err
	}

	w := &World{
		grid:   grid,
		ids:    NewObjectIDGenerator(),
		bodies: make(map[model.ObjectID]entry),
	}

	sx, sy := grid.Size()
	w.regions = make([][]*Region, sx)
	for rx := range sx {
		w.regions[rx] = make([]*Region, sy)
		for ry := range sy {
			w.regions[rx][ry] = NewRegion(rx, ry)
		}
	}
	return w, nil
}

// Grid returns the region grid.
func (w *World) Grid() Grid {
	return w.grid
}

// IDs returns the world's object ID generator.
func (w *World) IDs() *ObjectIDGenerator {
	return w.ids
}

// regionAt returns the region for a location, nil if out of bounds.
func (w *World) regionAt(loc model.Location) *Region {
	if !w.grid.bounds.Contains(loc.X, loc.Y) {
		return nil
	}
	rx, ry := w.grid.CoordToRegionIndex(loc.X, loc.Y)
	return w.regions[rx][ry]
}

// Add inserts a body at its current location.
func (w *World) Add(b *model.Body) error {
	if b.ObjectID() == model.NoObject {
		return fmt.Errorf("adding %q: zero object id", b.Name())
	}

	loc := b.Location()
	region := w.regionAt(loc)
	if region == nil {
		return fmt.Errorf("adding object %d at (%d, %d): %w", b.ObjectID(), loc.X, loc.Y, ErrOutOfBounds)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.bodies[b.ObjectID()]; exists {
		return fmt.Errorf("adding object %d: %w", b.ObjectID(), ErrDuplicateObject)
	}
	region.add(b)
	w.bodies[b.ObjectID()] = entry{body: b, region: region}
	w.maxReach = max(w.maxReach, b.Shape().Reach())
	return nil
}

// Remove deletes a body. Removing an unknown ID is a no-op.
func (w *World) Remove(id model.ObjectID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.bodies[id]
	if !ok {
		return false
	}
	e.region.remove(id)
	delete(w.bodies, id)
	return true
}

// Move relocates a body, updating its region.
func (w *World) Move(id model.ObjectID, loc model.Location) error {
	region := w.regionAt(loc)
	if region == nil {
		return fmt.Errorf("moving object %d to (%d, %d): %w", id, loc.X, loc.Y, ErrOutOfBounds)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("moving object %d: %w", id, ErrUnknownObject)
	}
	e.body.SetLocation(loc)
	if e.region != region {
		e.region.remove(id)
		region.add(e.body)
		w.bodies[id] = entry{body: e.body, region: region}
	}
	return nil
}

// Get returns a body by ID.
func (w *World) Get(id model.ObjectID) (*model.Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.bodies[id]
	return e.body, ok
}

// Count returns the number of bodies in the world.
func (w *World) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.bodies)
}

// Occupied implements placement.Oracle. A location outside the world bounds
// is never clear. Only regions within radius plus the largest collider reach
// are scanned.
func (w *World) Occupied(at model.Location, radius int32, exclude model.ObjectID) bool {
	if !w.grid.bounds.Contains(at.X, at.Y) {
		return true
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	reach := int64(radius) + int64(w.maxReach)
	rx0, ry0 := w.grid.ClampedRegionIndex(clampCoord(int64(at.X)-reach), clampCoord(int64(at.Y)-reach))
	rx1, ry1 := w.grid.ClampedRegionIndex(clampCoord(int64(at.X)+reach), clampCoord(int64(at.Y)+reach))

	for rx := rx0; rx <= rx1; rx++ {
		for ry := ry0; ry <= ry1; ry++ {
			hit := false
			w.regions[rx][ry].forEach(func(body *model.Body) bool {
				if body.ObjectID() == exclude || !body.Blocking() {
					return true
				}
				if body.Shape().IntersectsSphere(at, radius) {
					hit = true
					return false
				}
				return true
			})
			if hit {
				return true
			}
		}
	}
	return false
}

// Reset removes every body. Used for test isolation.
func (w *World) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, e := range w.bodies {
		e.region.remove(id)
	}
	clear(w.bodies)
	w.maxReach = 0
}

func clampCoord(v int64) int32 {
	const lo, hi = -1 << 31, 1<<31 - 1
	return int32(min(max(v, lo), hi))
}
