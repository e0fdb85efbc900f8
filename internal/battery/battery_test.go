package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSetsInitialSoC(t *testing.T) {
	b := New(60, 0.5, 11)
	assert.InDelta(t, 0.5, b.SoC(), 1e-9)
	assert.InDelta(t, 30.0, b.Level(), 1e-9)
}

func TestAddChargeRespectsTaperAboveEightyPercent(t *testing.T) {
	b := New(60, 0.9, 11)
	before := b.Level()
	added := b.AddCharge(11)
	assert.Greater(t, added, 0.0)
	// Taper band: scaling is well under 1.0, so added energy is far below
	// the nominal 11 kW * 0.9 efficiency.
	assert.Less(t, added, 11*chargeEfficiency)
	assert.Equal(t, before+added, b.Level())
}

func TestAddChargeFullRateInMiddleBand(t *testing.T) {
	b := New(60, 0.5, 10)
	added := b.AddCharge(10)
	assert.InDelta(t, 10*chargeEfficiency, added, 1e-9)
}

func TestAddChargeTrickleBelowTenPercent(t *testing.T) {
	b := New(60, 0.05, 10)
	added := b.AddCharge(10)
	assert.InDelta(t, 10*0.1*chargeEfficiency, added, 1e-9)
}

func TestAddChargeNeverExceedsCapacity(t *testing.T) {
	b := New(60, 0.99, 50)
	b.AddCharge(50)
	assert.LessOrEqual(t, b.Level(), b.Capacity())
}

func TestRemoveChargeAppliesDischargeEfficiency(t *testing.T) {
	b := New(60, 0.5, 10)
	delivered := b.RemoveCharge(10)
	assert.InDelta(t, 10*dischargeEfficiency, delivered, 1e-9)
	assert.InDelta(t, 30-10*dischargeEfficiency, b.Level(), 1e-9)
}

func TestRemoveChargeFloorsAtZero(t *testing.T) {
	b := New(60, 0.01, 10)
	b.RemoveCharge(1000)
	assert.Equal(t, 0.0, b.Level())
}

func TestRemoveChargeFromEmptyReturnsZero(t *testing.T) {
	b := New(60, 0, 10)
	assert.Equal(t, 0.0, b.RemoveCharge(5))
}

func TestMaxAddableChargeDefaultsToMaxRate(t *testing.T) {
	b := New(60, 0.5, 7)
	assert.InDelta(t, 7*chargeEfficiency, b.MaxAddableCharge(0), 1e-9)
}
