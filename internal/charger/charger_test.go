package charger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"powercable/internal/model"
)

func newTestCharger() *State {
	return NewState("charger-1", model.Position{Latitude: 52.5, Longitude: 13.4}, 22, 100, 2)
}

func TestAddChargeClampsToRate(t *testing.T) {
	c := newTestCharger()
	added := c.AddCharge(1000)
	assert.InDelta(t, 22.0, added, 1e-9) // clamped by rate first
}

func TestCurrentPriceFallsAsBufferFills(t *testing.T) {
	c := newTestCharger()
	emptyPrice := c.CurrentPrice()
	c.AddCharge(90)
	fullerPrice := c.CurrentPrice()
	assert.Greater(t, emptyPrice, fullerPrice)
}

func TestAmountOfNeededPackagesZeroWhenFull(t *testing.T) {
	c := NewState("c", model.Position{}, 1000, 10, 1)
	c.AddCharge(10)
	assert.Equal(t, 0, c.AmountOfNeededPackages())
}

func TestReserveChargeFailsWhenInsufficientAvailable(t *testing.T) {
	c := newTestCharger()
	c.AddCharge(10)
	assert.False(t, c.ReserveCharge(20))
	assert.True(t, c.ReserveCharge(5))
}

func TestTakeReservedChargeConsumesReservedFirst(t *testing.T) {
	c := newTestCharger()
	c.AddCharge(50) // clamped by the 22 kWh rate: the buffer holds 22
	assert.True(t, c.ReserveCharge(20))

	delivered := c.TakeReservedCharge(20)
	assert.InDelta(t, 20.0, delivered, 1e-9)
	assert.InDelta(t, 2.0, c.AvailableCharge(), 1e-9)
}

func TestTakeReservedChargePartialCoversShortfallFromSpareBuffer(t *testing.T) {
	c := newTestCharger()
	c.AddCharge(50) // clamped by the 22 kWh rate: the buffer holds 22
	assert.True(t, c.ReserveCharge(10))

	// Ask for more than was reserved: the shortfall is covered from the
	// remaining unreserved buffer energy (12 kWh) rather than refused.
	delivered := c.TakeReservedCharge(25)
	assert.InDelta(t, 22.0, delivered, 1e-9)
}

func TestReleaseReservedChargeGivesBackAvailability(t *testing.T) {
	c := newTestCharger()
	c.AddCharge(50)
	c.ReserveCharge(20)
	before := c.AvailableCharge()
	c.ReleaseReservedCharge(20)
	assert.Greater(t, c.AvailableCharge(), before)
}

func TestReservePortBoundedByPortCount(t *testing.T) {
	c := newTestCharger() // 2 ports
	assert.True(t, c.ReservePort())
	assert.True(t, c.ReservePort())
	assert.False(t, c.ReservePort())
	assert.Equal(t, 0, c.FreePorts())
}

func TestReleasePortFailsWhenNoneReserved(t *testing.T) {
	c := newTestCharger()
	assert.False(t, c.ReleasePort())
}
