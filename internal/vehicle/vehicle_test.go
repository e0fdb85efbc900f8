package vehicle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"powercable/internal/model"
)

func newTestVehicle() *Vehicle {
	rng := rand.New(rand.NewSource(42))
	return New("v1", "TestEV", model.Position{Latitude: 52.5, Longitude: 13.4}, 18, 60, 11, rng)
}

func TestNewStartsParkedWithSoCInRange(t *testing.T) {
	v := newTestVehicle()
	assert.Equal(t, StatusParked, v.Status())
	soc := v.Battery().SoC()
	assert.GreaterOrEqual(t, soc, 0.4)
	assert.Less(t, soc, 1.0)
}

func TestDriveParkedDoesNotMove(t *testing.T) {
	v := newTestVehicle()
	start := v.Location()
	v.Drive()
	assert.Equal(t, start, v.Location())
	assert.Equal(t, 0.0, v.Speed())
}

func TestDriveMovesTowardNextStop(t *testing.T) {
	v := newTestVehicle()
	v.SetStatus(StatusSearchingForCharger)
	v.SetNextStop(model.Position{Latitude: 53.0, Longitude: 13.4})

	before := v.DistanceTo(v.NextStop())
	v.Drive()
	after := v.DistanceTo(v.NextStop())

	assert.Greater(t, v.Speed(), 0.0)
	assert.Less(t, after, before)
}

func TestDriveSnapsToNextStopWhenCloseEnough(t *testing.T) {
	v := newTestVehicle()
	v.SetStatus(StatusSearchingForCharger)
	// Extremely close next stop: one tick at any speed band should cover
	// the whole remaining distance and land exactly on it.
	near := model.Position{Latitude: 52.500001, Longitude: 13.400001}
	v.SetNextStop(near)

	v.Drive()
	assert.Equal(t, near, v.Location())
}

func TestDeadlineCountsDownEveryDrive(t *testing.T) {
	v := newTestVehicle()
	start := v.Deadline().TicksRemaining
	v.Drive()
	assert.Equal(t, start-1, v.Deadline().TicksRemaining)
}

func TestSpeedEfficiencyFactorGrowsWithSpeed(t *testing.T) {
	v := newTestVehicle()
	v.speedKPH = 0
	low := v.speedEfficiencyFactor()
	v.speedKPH = 90
	high := v.speedEfficiencyFactor()
	assert.Greater(t, high, low)
}

func TestRangeScalesWithBatteryLevel(t *testing.T) {
	v := newTestVehicle()
	r1 := v.Range()
	v.battery.RemoveCharge(v.battery.Level())
	r2 := v.Range()
	assert.Less(t, r2, r1)
}
