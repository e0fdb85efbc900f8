// Package battery implements the non-linear electric-vehicle battery model:
// state-of-charge-dependent charge scaling (trickle/constant/taper) and
// separate charge/discharge efficiencies. The struct shape (config + state
// + a shared arithmetic helper) follows the teacher's
// internal/simulator.Battery; the formulas themselves are ground truth from
// original_source/vehicle/src/battery.rs.
package battery

import "math"

const (
	// chargeEfficiency and dischargeEfficiency are round-trip losses
	// applied in opposite directions: less energy reaches the battery than
	// is drawn from the grid, and less energy reaches the motor than is
	// drained from the cell.
	chargeEfficiency    = 0.9
	dischargeEfficiency = 0.94

	trickleThreshold = 0.1
	taperThreshold   = 0.8
	taperExponent    = 1.5
)

// Battery is an EV traction battery with a maximum per-tick charge rate.
type Battery struct {
	maxCapacityKWh float64
	levelKWh       float64
	maxChargeRate  float64 // kW deliverable per tick, before scaling
}

// New creates a Battery at the given initial state of charge (0..1).
func New(maxCapacityKWh, initialSoC, maxChargeRate float64) *Battery {
	return &Battery{
		maxCapacityKWh: maxCapacityKWh,
		levelKWh:       maxCapacityKWh * initialSoC,
		maxChargeRate:  maxChargeRate,
	}
}

// SoC returns the current state of charge as a fraction in [0, 1].
func (b *Battery) SoC() float64 {
	if b.maxCapacityKWh <= 0 {
		return 0
	}
	return b.levelKWh / b.maxCapacityKWh
}

// Level returns the current stored energy in kWh.
func (b *Battery) Level() float64 {
	return b.levelKWh
}

// Capacity returns the battery's maximum capacity in kWh.
func (b *Battery) Capacity() float64 {
	return b.maxCapacityKWh
}

// FreeCapacity returns the remaining headroom in kWh.
func (b *Battery) FreeCapacity() float64 {
	free := b.maxCapacityKWh - b.levelKWh
	if free < 0 {
		return 0
	}
	return free
}

// chargeScaling derates the nominal charge rate based on state of charge:
// a slow trickle below 10% SoC, full rate in the 10-80% band, and a taper
// above 80% that falls off as ((1-soc)/0.2)^1.5.
func chargeScaling(soc float64) float64 {
	switch {
	case soc < trickleThreshold:
		return 0.1
	case soc < taperThreshold:
		return 1.0
	default:
		remaining := (1.0 - soc) / (1.0 - taperThreshold)
		if remaining < 0 {
			remaining = 0
		}
		return math.Pow(remaining, taperExponent)
	}
}

// MaxAddableCharge returns how much energy can actually be added this tick
// given requestedKW (0 defaults to the battery's max charge rate), the SoC
// taper curve and charge efficiency, clamped to free capacity.
func (b *Battery) MaxAddableCharge(requestedKW float64) float64 {
	rate := requestedKW
	if rate <= 0 {
		rate = b.maxChargeRate
	}
	free := b.FreeCapacity()
	if rate > free {
		rate = free
	}
	scaled := rate * chargeScaling(b.SoC()) * chargeEfficiency
	if scaled > free {
		scaled = free
	}
	return scaled
}

// AddCharge adds up to chargeKW (0 defaults to max rate) to the battery and
// returns the energy actually added, after scaling and efficiency losses.
func (b *Battery) AddCharge(chargeKW float64) float64 {
	added := b.MaxAddableCharge(chargeKW)
	b.levelKWh += added
	if b.levelKWh > b.maxCapacityKWh {
		b.levelKWh = b.maxCapacityKWh
	}
	return added
}

// RemoveCharge draws chargeKW*dischargeEfficiency from the cell and returns
// that amount. If the cell holds less than that, it is emptied and the
// return value is the residual level times dischargeEfficiency, raised to
// 1.0 when it falls below that; an already empty cell returns 0.
func (b *Battery) RemoveCharge(chargeKW float64) float64 {
	demand := chargeKW * dischargeEfficiency
	if b.levelKWh >= demand {
		b.levelKWh -= demand
		return demand
	}

	available := b.levelKWh
	b.levelKWh = 0
	if available <= 0 {
		return 0
	}
	delivered := available * dischargeEfficiency
	if delivered < 1.0 {
		delivered = 1.0
	}
	return delivered
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
