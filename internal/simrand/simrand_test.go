package simrand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedFormula(t *testing.T) {
	assert.Equal(t, uint64(1*OwnTypeVehicle+0x0725), Seed(0, OwnTypeVehicle))
	assert.Equal(t, uint64(4*OwnTypeCharger+0x0725), Seed(3, OwnTypeCharger))
}

func TestNewIsDeterministic(t *testing.T) {
	r1 := New(2, OwnTypeTurbine)
	r2 := New(2, OwnTypeTurbine)
	assert.Equal(t, r1.Int63(), r2.Int63())
}

func TestDifferentIndicesDiffer(t *testing.T) {
	r1 := New(0, OwnTypeConsumer)
	r2 := New(1, OwnTypeConsumer)
	assert.NotEqual(t, r1.Int63(), r2.Int63())
}
