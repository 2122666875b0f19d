package placement

import (
	"fmt"
	"math/rand/v2"

	"github.com/udisondev/spawnpool/internal/model"
)

// Strategy proposes candidate spawn locations.
type Strategy interface {
	// Sample returns one candidate. ok is false when there is nothing to sample.
	Sample(r *rand.Rand) (loc model.Location, ok bool)
	// Validate reports configuration problems (ErrNoCandidates, invalid shape).
	Validate() error
}

// PointSet samples from a fixed, ordered list of locations.
// Random sets pick uniformly per sample; sequential sets walk the list
// round-robin and keep their position between searches.
type PointSet struct {
	points     []model.Location
	sequential bool
	next       int
}

// NewPointSet creates a set sampled uniformly at random.
func NewPointSet(points []model.Location) *PointSet {
	return &PointSet{points: clonePoints(points)}
}

// NewSequentialPointSet creates a set sampled round-robin.
func NewSequentialPointSet(points []model.Location) *PointSet {
	return &PointSet{points: clonePoints(points), sequential: true}
}

func clonePoints(points []model.Location) []model.Location {
	out := make([]model.Location, len(points))
	copy(out, points)
	return out
}

// Len returns the number of candidate points.
func (s *PointSet) Len() int {
	return len(s.points)
}

// Sequential reports whether the set is sampled round-robin.
func (s *PointSet) Sequential() bool {
	return s.sequential
}

// Sample implements Strategy.
func (s *PointSet) Sample(r *rand.Rand) (model.Location, bool) {
	if len(s.points) == 0 {
		return model.Location{}, false
	}
	if s.sequential {
		loc := s.points[s.next]
		s.next = (s.next + 1) % len(s.points)
		return loc, true
	}
	return s.points[r.IntN(len(s.points))], true
}

// Validate implements Strategy.
func (s *PointSet) Validate() error {
	if len(s.points) == 0 {
		return fmt.Errorf("point set: %w", ErrNoCandidates)
	}
	return nil
}

// sphereSampleTries bounds rejection sampling inside a sphere. Each try
// succeeds with probability ~0.52, so falling back to the center is
// practically unreachable.
const sphereSampleTries = 32

// Volume samples uniformly random interior points of a box or sphere.
type Volume struct {
	Shape         model.Shape
	Heading       uint16 // used unless RandomHeading
	RandomHeading bool
}

// Sample implements Strategy.
func (v *Volume) Sample(r *rand.Rand) (model.Location, bool) {
	if v.Shape.Validate() != nil {
		return model.Location{}, false
	}

	c := v.Shape.Center
	var loc model.Location
	switch v.Shape.Kind {
	case model.ShapeBox:
		e := v.Shape.Extents
		loc = c.Offset(between(r, e.X), between(r, e.Y), between(r, e.Z))
	case model.ShapeSphere:
		loc = c
		rad := v.Shape.Radius
		r2 := int64(rad) * int64(rad)
		for range sphereSampleTries {
			dx, dy, dz := between(r, rad), between(r, rad), between(r, rad)
			if int64(dx)*int64(dx)+int64(dy)*int64(dy)+int64(dz)*int64(dz) <= r2 {
				loc = c.Offset(dx, dy, dz)
				break
			}
		}
	}

	loc.Heading = v.Heading
	if v.RandomHeading {
		loc.Heading = uint16(r.UintN(1 << 16))
	}
	return loc, true
}

// Validate implements Strategy.
func (v *Volume) Validate() error {
	if err := v.Shape.Validate(); err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	return nil
}

// between returns a uniform integer in [-half, half].
func between(r *rand.Rand, half int32) int32 {
	if half <= 0 {
		return 0
	}
	return int32(r.Int64N(2*int64(half)+1) - int64(half))
}
