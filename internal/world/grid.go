package world

import (
	"errors"
	"fmt"
)

// DefaultShiftBy gives 2^11 = 2048 units per region.
const DefaultShiftBy = 11

// ErrInvalidBounds is returned for empty or inverted world bounds.
var ErrInvalidBounds = errors.New("world: invalid bounds")

// Bounds is the horizontal extent of a world in game coordinates.
type Bounds struct {
	MinX, MinY int32
	MaxX, MaxY int32
}

// DefaultBounds returns the classic L2 world extent.
func DefaultBounds() Bounds {
	return Bounds{
		MinX: -131072,
		MinY: -262144,
		MaxX: 196608,
		MaxY: 229376,
	}
}

// Contains reports whether (x, y) lies within the bounds.
func (b Bounds) Contains(x, y int32) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Grid maps world coordinates to region indexes.
// Index formula: (coord >> shift) + offset, offset = -(min >> shift).
type Grid struct {
	bounds           Bounds
	shift            uint
	offsetX, offsetY int32
	regionsX         int32
	regionsY         int32
}

// NewGrid creates a grid over bounds with 2^shift units per region.
func NewGrid(bounds Bounds, shift uint) (Grid, error) {
	if bounds.MinX >= bounds.MaxX || bounds.MinY >= bounds.MaxY {
		return Grid{}, fmt.Errorf("%w: %+v", ErrInvalidBounds, bounds)
	}
	if shift == 0 || shift > 20 {
		return Grid{}, fmt.Errorf("%w: shift %d", ErrInvalidBounds, shift)
	}

	g := Grid{
		bounds:  bounds,
		shift:   shift,
		offsetX: -(bounds.MinX >> shift),
		offsetY: -(bounds.MinY >> shift),
	}
	g.regionsX = (bounds.MaxX >> shift) + g.offsetX + 1
	g.regionsY = (bounds.MaxY >> shift) + g.offsetY + 1
	return g, nil
}

// Bounds returns the grid bounds.
func (g Grid) Bounds() Bounds {
	return g.bounds
}

// RegionSize returns the side of a region in game units.
func (g Grid) RegionSize() int32 {
	return 1 << g.shift
}

// Size returns the number of regions along each axis.
func (g Grid) Size() (x, y int32) {
	return g.regionsX, g.regionsY
}

// CoordToRegionIndex converts world coordinates to a region index.
func (g Grid) CoordToRegionIndex(x, y int32) (rx, ry int32) {
	return (x >> g.shift) + g.offsetX, (y >> g.shift) + g.offsetY
}

// ClampedRegionIndex is CoordToRegionIndex with the coordinates clamped
// into the bounds first.
func (g Grid) ClampedRegionIndex(x, y int32) (rx, ry int32) {
	x = min(max(x, g.bounds.MinX), g.bounds.MaxX)
	y = min(max(y, g.bounds.MinY), g.bounds.MaxY)
	return g.CoordToRegionIndex(x, y)
}

// IsValidRegionIndex checks if a region index is within the grid.
func (g Grid) IsValidRegionIndex(rx, ry int32) bool {
	return rx >= 0 && rx < g.regionsX && ry >= 0 && ry < g.regionsY
}
