// Package vehicle implements the EV agent: the haversine motion
// integrator, the request/search/charge/park behaviour state machine, and
// the four offer-ranking algorithms (delegated to internal/offerbook).
//
// The motion formulas are ground truth from
// original_source/vehicle/src/vehicle.rs: rolling resistance and
// aerodynamic drag scale consumption with speed, and a shortfall in
// delivered energy (battery.RemoveCharge returning less than requested)
// shortens the distance actually covered rather than silently teleporting.
package vehicle

import (
	"math/rand"

	"powercable/internal/battery"
	"powercable/internal/model"
	"powercable/internal/offerbook"
)

const (
	rollingResistance = 0.0005
	aerodynamicDrag    = 0.00003

	// phaseAsHour is how many hours one simulation tick represents. A
	// 5-minute tick is 1/12 of an hour.
	phaseAsHour = 1.0 / 12.0
)

// Status names the vehicle's current behaviour state.
type Status string

const (
	StatusParked              Status = "parked"
	StatusSearchingForCharger Status = "searching_for_charger"
	StatusCharging            Status = "charging"
	StatusBroken              Status = "broken"
)

// Deadline is the target state of charge a vehicle must reach within a
// number of remaining ticks.
type Deadline struct {
	TicksRemaining int64
	TargetSoC      float64
}

// DefaultDeadline matches original_source's default: 288 ticks (24h at
// 5-minute ticks) to reach 80% state of charge.
func DefaultDeadline() Deadline {
	return Deadline{TicksRemaining: 288, TargetSoC: 0.8}
}

// Vehicle is an electric vehicle agent.
type Vehicle struct {
	name        string
	model       string
	status      Status
	location    model.Position
	nextStop    model.Position
	destination model.Position
	consumption float64 // kWh per 100km, unscaled
	scale       float64
	speedKPH    float64
	battery     *battery.Battery
	algorithm   offerbook.Algorithm
	deadline    Deadline
	rng         *rand.Rand
}

// New creates a Vehicle at location with the given model parameters,
// starting Parked with a random initial state of charge in [0.4, 1.0) drawn
// from rng, matching original_source's Vehicle::new.
func New(name, modelName string, location model.Position, consumptionPer100km, capacityKWh, maxChargeRateKW float64, rng *rand.Rand) *Vehicle {
	initialSoC := 0.4 + rng.Float64()*0.6
	return &Vehicle{
		name:        name,
		model:       modelName,
		status:      StatusParked,
		location:    location,
		nextStop:    location,
		destination: location,
		consumption: consumptionPer100km,
		scale:       1.0,
		battery:     battery.New(capacityKWh, initialSoC, maxChargeRateKW),
		algorithm:   offerbook.Best,
		deadline:    DefaultDeadline(),
		rng:         rng,
	}
}

func (v *Vehicle) Name() string              { return v.name }
func (v *Vehicle) Model() string             { return v.model }
func (v *Vehicle) Status() Status            { return v.status }
func (v *Vehicle) SetStatus(s Status)        { v.status = s }
func (v *Vehicle) Location() model.Position  { return v.location }
func (v *Vehicle) NextStop() model.Position  { return v.nextStop }
func (v *Vehicle) SetNextStop(p model.Position) { v.nextStop = p }
func (v *Vehicle) Destination() model.Position { return v.destination }

// SetDestination sets both the final destination and the immediate next
// stop, matching original_source (a fresh destination always clears any
// intermediate waypoint).
func (v *Vehicle) SetDestination(p model.Position) {
	v.nextStop = p
	v.destination = p
}

func (v *Vehicle) Battery() *battery.Battery { return v.battery }
func (v *Vehicle) Algorithm() offerbook.Algorithm { return v.algorithm }
func (v *Vehicle) SetAlgorithm(a offerbook.Algorithm) { v.algorithm = a }
func (v *Vehicle) Deadline() Deadline { return v.deadline }
func (v *Vehicle) SetDeadline(d Deadline) { v.deadline = d }
func (v *Vehicle) SetScale(s float64) { v.scale = s }
func (v *Vehicle) Speed() float64 { return v.speedKPH }

// Consumption returns the vehicle's scaled consumption in kWh per 100km.
func (v *Vehicle) Consumption() float64 {
	return v.consumption * v.scale
}

// speedEfficiencyFactor grows consumption with speed due to rolling
// resistance (linear) and aerodynamic drag (quadratic).
func (v *Vehicle) speedEfficiencyFactor() float64 {
	return 1.0 + rollingResistance*v.speedKPH + aerodynamicDrag*v.speedKPH*v.speedKPH
}

// CurrentConsumption returns consumption adjusted for the vehicle's
// current speed.
func (v *Vehicle) CurrentConsumption() float64 {
	return v.Consumption() * v.speedEfficiencyFactor()
}

// Range returns the remaining driving range in kilometres at the current
// consumption rate.
func (v *Vehicle) Range() float64 {
	c := v.Consumption()
	if c <= 0 {
		return 0
	}
	return v.battery.Level() / (c / 100.0)
}

// DistanceTo returns the great-circle distance from the vehicle's current
// location to other.
func (v *Vehicle) DistanceTo(other model.Position) float64 {
	return v.location.DistanceTo(other)
}

// speedForSoC picks a target cruising speed from the battery's current
// state of charge, matching original_source's three-band table: a
// near-empty battery is driven conservatively, a fuller one faster.
func speedForSoC(soc float64) float64 {
	switch {
	case soc < 0.2:
		return 30
	case soc < 0.5:
		return 60
	default:
		return 90
	}
}

// Drive advances the vehicle by one tick: it decrements the active
// deadline, selects a speed, draws the corresponding energy from the
// battery, and moves toward NextStop proportionally to however much of the
// wanted energy the battery could actually deliver. If the battery
// under-delivers (e.g. it is nearly empty), the vehicle falls short of
// the full step rather than the distance being granted for free.
func (v *Vehicle) Drive() {
	v.deadline.TicksRemaining--

	if v.status == StatusParked || v.status == StatusCharging || v.status == StatusBroken {
		v.speedKPH = 0
		return
	}
	v.speedKPH = speedForSoC(v.battery.SoC())

	wantedDistance := v.speedKPH * phaseAsHour
	wantedEnergy := (v.CurrentConsumption() / 100.0) * wantedDistance
	usedEnergy := v.battery.RemoveCharge(wantedEnergy)
	if usedEnergy <= 0 {
		return
	}

	chargeFactor := wantedEnergy / usedEnergy
	totalDistance := v.DistanceTo(v.nextStop) * chargeFactor
	if totalDistance <= 0 {
		return
	}

	stepRatio := wantedDistance / totalDistance
	v.location.Latitude += stepRatio * (v.nextStop.Latitude - v.location.Latitude)
	v.location.Longitude += stepRatio * (v.nextStop.Longitude - v.location.Longitude)

	if totalDistance <= wantedDistance {
		v.location = v.nextStop
	}
}
