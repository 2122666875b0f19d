package world

import (
	"sync/atomic"

	"github.com/udisondev/spawnpool/internal/model"
)

// ObjectIDGenerator generates unique body IDs for one world.
//
// ID ranges (convention):
//
//	0x00000000:              invalid (model.NoObject)
//	0x00000001 - 0x0FFFFFFF: static geometry and spawners
//	0x10000000 - 0xFFFFFFFF: spawned instances
type ObjectIDGenerator struct {
	nextStatic  atomic.Uint32
	nextSpawned atomic.Uint32
}

// NewObjectIDGenerator creates a new ID generator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.nextSpawned.Store(0x10000000)
	return gen
}

// NextStaticID returns the next ID for static geometry or a spawner.
func (g *ObjectIDGenerator) NextStaticID() model.ObjectID {
	return model.ObjectID(g.nextStatic.Add(1))
}

// NextSpawnedID returns the next ID for a spawned instance.
func (g *ObjectIDGenerator) NextSpawnedID() model.ObjectID {
	return model.ObjectID(g.nextSpawned.Add(1))
}
