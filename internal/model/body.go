package model

import "sync"

// ObjectID identifies a body in a world. Zero is never assigned.
type ObjectID uint32

// NoObject is the zero ObjectID; excluding it excludes nothing.
const NoObject ObjectID = 0

// Body is a world object with a collider.
// Non-blocking bodies are tracked but never occupy space.
type Body struct {
	objectID ObjectID
	name     string
	blocking bool

	mu    sync.RWMutex
	shape Shape // Center is the body location
}

// NewBody creates a blocking body with the given collider.
func NewBody(objectID ObjectID, name string, collider Shape) *Body {
	return &Body{
		objectID: objectID,
		name:     name,
		blocking: true,
		shape:    collider,
	}
}

// ObjectID returns the body ID (immutable after creation).
func (b *Body) ObjectID() ObjectID {
	return b.objectID
}

// Name returns the body name.
func (b *Body) Name() string {
	return b.name
}

// Blocking reports whether the body counts for occupancy checks.
func (b *Body) Blocking() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.blocking
}

// SetBlocking toggles whether the body counts for occupancy checks.
func (b *Body) SetBlocking(blocking bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocking = blocking
}

// Location returns a copy of the body position.
func (b *Body) Location() Location {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.shape.Center
}

// SetLocation moves the body. Bodies registered in a world must be moved
// through the world so its region index stays in sync.
func (b *Body) SetLocation(loc Location) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shape.Center = loc
}

// Shape returns the collider at the current location.
func (b *Body) Shape() Shape {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.shape
}
