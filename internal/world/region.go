package world

import "github.com/udisondev/spawnpool/internal/model"

// Region is one cell of the world grid. Guarded by the owning World's lock.
type Region struct {
	rx, ry int32
	bodies map[model.ObjectID]*model.Body
}

// NewRegion creates an empty region.
func NewRegion(rx, ry int32) *Region {
	return &Region{
		rx:     rx,
		ry:     ry,
		bodies: make(map[model.ObjectID]*model.Body),
	}
}

// RX returns region X index
func (r *Region) RX() int32 {
	return r.rx
}

// RY returns region Y index
func (r *Region) RY() int32 {
	return r.ry
}

func (r *Region) add(b *model.Body) {
	r.bodies[b.ObjectID()] = b
}

func (r *Region) remove(id model.ObjectID) {
	delete(r.bodies, id)
}

// forEach stops when fn returns false.
func (r *Region) forEach(fn func(*model.Body) bool) bool {
	for _, b := range r.bodies {
		if !fn(b) {
			return false
		}
	}
	return true
}
