package placement

import "github.com/udisondev/spawnpool/internal/model"

// Oracle answers occupancy queries, usually backed by the host's spatial index.
type Oracle interface {
	// Occupied reports whether any blocking object other than exclude
	// overlaps the sphere of radius around at.
	Occupied(at model.Location, radius int32, exclude model.ObjectID) bool
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(at model.Location, radius int32, exclude model.ObjectID) bool

// Occupied implements Oracle.
func (f OracleFunc) Occupied(at model.Location, radius int32, exclude model.ObjectID) bool {
	return f(at, radius, exclude)
}

// Clearance returns the default occupancy check: a candidate is clear when
// nothing but self blocks radius around it. A spawner whose own collider
// fills its search volume passes its object ID as self, otherwise every
// candidate would collide with the spawner itself.
func Clearance(o Oracle, radius int32, self model.ObjectID) Check {
	return func(at model.Location) bool {
		return !o.Occupied(at, radius, self)
	}
}
