package model

import (
	"errors"
	"fmt"
)

// ShapeKind selects the geometry of a Shape.
type ShapeKind uint8

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
)

// String returns the config name of the kind.
func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	default:
		return fmt.Sprintf("ShapeKind(%d)", k)
	}
}

// ErrInvalidShape is returned by Shape.Validate for degenerate shapes.
var ErrInvalidShape = errors.New("invalid shape")

// Extents are the half sizes of an axis-aligned box.
type Extents struct {
	X, Y, Z int32
}

// Shape is a sphere or an axis-aligned box centered on Center.
// Used both as a collider and as a sampling volume.
type Shape struct {
	Kind    ShapeKind
	Center  Location
	Radius  int32   // sphere only
	Extents Extents // box only
}

// Sphere creates a sphere shape.
func Sphere(center Location, radius int32) Shape {
	return Shape{Kind: ShapeSphere, Center: center, Radius: radius}
}

// Box creates an axis-aligned box shape from its half sizes.
func Box(center Location, half Extents) Shape {
	return Shape{Kind: ShapeBox, Center: center, Extents: half}
}

// Validate reports whether the shape encloses any volume.
func (s Shape) Validate() error {
	switch s.Kind {
	case ShapeSphere:
		if s.Radius < 0 {
			return fmt.Errorf("%w: sphere radius %d", ErrInvalidShape, s.Radius)
		}
	case ShapeBox:
		e := s.Extents
		if e.X < 0 || e.Y < 0 || e.Z < 0 {
			return fmt.Errorf("%w: box extents (%d, %d, %d)", ErrInvalidShape, e.X, e.Y, e.Z)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidShape, s.Kind)
	}
	return nil
}

// MoveTo returns a copy centered on loc.
func (s Shape) MoveTo(loc Location) Shape {
	s.Center = loc
	return s
}

// Reach returns the largest horizontal distance from the center to the surface.
// World queries widen their scan window by it.
func (s Shape) Reach() int32 {
	if s.Kind == ShapeBox {
		return max(s.Extents.X, s.Extents.Y)
	}
	return s.Radius
}

// Contains reports whether p lies inside or on the shape.
func (s Shape) Contains(p Location) bool {
	switch s.Kind {
	case ShapeSphere:
		if s.Radius < 0 {
			return false
		}
		return compareLength(axisDelta(p.X, s.Center.X), axisDelta(p.Y, s.Center.Y),
			axisDelta(p.Z, s.Center.Z), uint64(s.Radius)) <= 0
	case ShapeBox:
		return within(p.X, s.Center.X, s.Extents.X) &&
			within(p.Y, s.Center.Y, s.Extents.Y) &&
			within(p.Z, s.Center.Z, s.Extents.Z)
	}
	return false
}

// IntersectsSphere reports whether the shape overlaps the sphere (p, r).
// Touching surfaces do not count as overlap.
func (s Shape) IntersectsSphere(p Location, r int32) bool {
	switch s.Kind {
	case ShapeSphere:
		sum := int64(s.Radius) + int64(r)
		if sum <= 0 {
			return false
		}
		return compareLength(axisDelta(p.X, s.Center.X), axisDelta(p.Y, s.Center.Y),
			axisDelta(p.Z, s.Center.Z), uint64(sum)) < 0
	case ShapeBox:
		// closest point of the box to p
		dx := axisGap(p.X, s.Center.X, s.Extents.X)
		dy := axisGap(p.Y, s.Center.Y, s.Extents.Y)
		dz := axisGap(p.Z, s.Center.Z, s.Extents.Z)
		if dx == 0 && dy == 0 && dz == 0 {
			return true
		}
		if r <= 0 {
			return false
		}
		return compareLength(dx, dy, dz, uint64(r)) < 0
	}
	return false
}

func within(v, center, half int32) bool {
	d := int64(v) - int64(center)
	return d >= -int64(half) && d <= int64(half)
}

// axisGap returns the distance from v to the slab [center-half, center+half].
func axisGap(v, center, half int32) uint64 {
	lo := int64(center) - int64(half)
	hi := int64(center) + int64(half)
	switch x := int64(v); {
	case x < lo:
		return uint64(lo - x)
	case x > hi:
		return uint64(x - hi)
	default:
		return 0
	}
}
