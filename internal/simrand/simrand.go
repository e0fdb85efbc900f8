// Package simrand is the single place every agent pulls its deterministic
// random source from, per spec.md §9's requirement that no agent ever touch
// a process-wide random singleton.
package simrand

import "math/rand"

// OwnType constants are the per-agent-kind multipliers in the deterministic
// seed formula seed = (index+1)*OwnType + 0x07_25.
const (
	OwnTypeCharger  = 7
	OwnTypeVehicle  = 3
	OwnTypeConsumer = 11
	OwnTypeTurbine  = 5
)

const seedOffset = 0x0725

// Seed computes the deterministic seed for the index-th agent of the given
// kind, per spec.md's formula.
func Seed(index int, ownType int) uint64 {
	return uint64((index+1)*ownType + seedOffset)
}

// New returns a *rand.Rand seeded deterministically for agent index of kind
// ownType.
func New(index int, ownType int) *rand.Rand {
	return rand.New(rand.NewSource(int64(Seed(index, ownType))))
}
