package testutil

import (
	"testing"

	"github.com/udisondev/spawnpool/internal/world"
)

// TestBounds is a small world used by tests: 16x16 regions of 256 units.
var TestBounds = world.Bounds{MinX: -2048, MinY: -2048, MaxX: 2047, MaxY: 2047}

// NewTestWorld creates a world over TestBounds and registers t.Cleanup
// to reset it after the test.
func NewTestWorld(t testing.TB) *world.World {
	t.Helper()
	w, err := world.NewWithShift(TestBounds, 8)
	if err != nil {
		t.Fatalf("creating test world: %v", err)
	}
	t.Cleanup(w.Reset)
	return w
}
