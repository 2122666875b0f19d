package model

import (
	"cmp"
	"math"
	"math/bits"
)

// Location is a position in world coordinates plus a heading.
// Value type, passed by value (immutable).
type Location struct {
	X       int32
	Y       int32
	Z       int32
	Heading uint16 // 0-65535
}

// NewLocation creates a Location with the given coordinates.
func NewLocation(x, y, z int32, heading uint16) Location {
	return Location{X: x, Y: y, Z: z, Heading: heading}
}

// WithHeading returns a copy with the heading replaced.
func (l Location) WithHeading(heading uint16) Location {
	l.Heading = heading
	return l
}

// WithCoordinates returns a copy with the coordinates replaced.
func (l Location) WithCoordinates(x, y, z int32) Location {
	l.X = x
	l.Y = y
	l.Z = z
	return l
}

// Offset returns a copy moved by (dx, dy, dz).
func (l Location) Offset(dx, dy, dz int32) Location {
	l.X += dx
	l.Y += dy
	l.Z += dz
	return l
}

// DistanceSquared returns the squared distance to other (no sqrt on the hot path).
// Saturates at math.MaxInt64.
func (l Location) DistanceSquared(other Location) int64 {
	hi, lo := sumSquares(axisDelta(l.X, other.X), axisDelta(l.Y, other.Y), axisDelta(l.Z, other.Z))
	if hi != 0 || lo > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(lo)
}

// axisDelta returns |a - b|.
func axisDelta(a, b int32) uint64 {
	d := int64(a) - int64(b)
	if d < 0 {
		d = -d
	}
	return uint64(d)
}

// sumSquares returns dx*dx + dy*dy + dz*dz as a 128-bit value.
func sumSquares(dx, dy, dz uint64) (hi, lo uint64) {
	hi, lo = bits.Mul64(dx, dx)
	for _, v := range [...]uint64{dy, dz} {
		h, l := bits.Mul64(v, v)
		var carry uint64
		lo, carry = bits.Add64(lo, l, 0)
		hi += h + carry
	}
	return hi, lo
}

// compareLength compares the length of (dx, dy, dz) with r.
func compareLength(dx, dy, dz, r uint64) int {
	hi, lo := sumSquares(dx, dy, dz)
	rhi, rlo := bits.Mul64(r, r)
	if c := cmp.Compare(hi, rhi); c != 0 {
		return c
	}
	return cmp.Compare(lo, rlo)
}
