// Package charger implements the stationary charging-point agent: a local
// energy buffer that buys wholesale packages, sells retail charge to
// vehicles under the reservation protocol in spec.md §4.2. It does not drive
// the simulated hardware port relay in internal/charger/hardware.
//
// The reservation arithmetic in this file is ground truth from
// original_source/charger/src/charger.rs — reserve/take/release must match
// it exactly, including the "reserved is consumed first" partial-Get rule.
package charger

import (
	"math"
	"sync"

	"powercable/internal/model"
	"powercable/internal/offerbook"
)

// State is the charger's buffer and reservation bookkeeping. It is the pure
// (non-bus) core the Agent in agent.go wraps.
type State struct {
	mu sync.Mutex

	name     string
	position model.Position

	rateKW        float64 // max kW addable/removable per tick
	capacityKWh   float64
	currentKWh    float64
	reservedKWh   float64
	chargingPorts int
	reservedPorts int
}

// NewState creates a charger buffer with the given static parameters,
// starting empty and with every port free.
func NewState(name string, pos model.Position, rateKW, capacityKWh float64, ports int) *State {
	return &State{
		name:          name,
		position:      pos,
		rateKW:        rateKW,
		capacityKWh:   capacityKWh,
		chargingPorts: ports,
	}
}

// Name returns the charger's identifier.
func (s *State) Name() string { return s.name }

// Position returns the charger's fixed location.
func (s *State) Position() model.Position { return s.position }

// AvailableCharge returns the buffer energy not already reserved, clamped
// at zero.
func (s *State) AvailableCharge() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availableChargeLocked()
}

func (s *State) availableChargeLocked() float64 {
	avail := s.currentKWh - s.reservedKWh
	if avail < 0 {
		return 0
	}
	return avail
}

// clampRate bounds an amount to the charger's per-tick max rate.
func (s *State) clampRate(amount float64) float64 {
	if amount > s.rateKW {
		return s.rateKW
	}
	return amount
}

// AddCharge adds up to charge kWh to the buffer (wholesale package
// delivery), clamped by rate and remaining capacity, and returns the
// amount actually added.
func (s *State) AddCharge(charge float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount := s.clampRate(charge)
	free := s.capacityKWh - s.currentKWh
	if amount > free {
		amount = free
	}
	if amount < 0 {
		amount = 0
	}
	s.currentKWh += amount
	return amount
}

// removeChargeLocked drains up to charge kWh from the buffer (retail
// delivery to a vehicle), clamped by rate and available energy.
func (s *State) removeChargeLocked(charge float64) float64 {
	amount := s.clampRate(charge)
	if amount > s.currentKWh {
		amount = s.currentKWh
	}
	if amount < 0 {
		amount = 0
	}
	s.currentKWh -= amount
	return amount
}

// FreePorts returns how many charging ports are neither occupied nor
// reserved.
func (s *State) FreePorts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chargingPorts - s.reservedPorts
}

// ChargePercentage returns the buffer's fill level in [0, 1].
func (s *State) ChargePercentage() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacityKWh <= 0 {
		return 0
	}
	return s.currentKWh / s.capacityKWh
}

// CurrentPrice is the retail price per kWh this tick: it rises as the
// buffer empties, so a near-empty charger is expensive and a near-full one
// is nearly free, incentivizing vehicles toward whichever charger has
// headroom.
func (s *State) CurrentPrice() float64 {
	return 1.1 - s.ChargePercentage()
}

// PriceIfHadCharge is the wholesale bid price for a package bought once the
// buffer holds amount kWh more than it does now: 1.0 minus the resulting
// fill level, floored at 0.1.
func (s *State) PriceIfHadCharge(amount float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacityKWh <= 0 {
		return 0.1
	}
	price := 1.0 - (s.currentKWh+amount)/s.capacityKWh
	if price < 0.1 {
		return 0.1
	}
	return price
}

// AmountOfNeededPackages returns how many fixed-size wholesale packages the
// charger should buy to approach a full buffer, 0 if already full, capped
// at 100 packages per tick so a freshly built or badly drained charger
// doesn't flood the market with bids in one go.
func (s *State) AmountOfNeededPackages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := s.capacityKWh - s.currentKWh
	if remaining <= 0 {
		return 0
	}
	n := int(math.Ceil(remaining / offerbook.OfferPackageSizeKW))
	if n > 100 {
		n = 100
	}
	return n
}

// ReserveCharge reserves charge kWh of buffer energy for a pending retail
// delivery, succeeding only if enough unreserved energy is available.
func (s *State) ReserveCharge(charge float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.availableChargeLocked() < charge {
		return false
	}
	s.reservedKWh += charge
	return true
}

// ReleaseReservedCharge gives back a reservation that was never drawn down
// (e.g. the vehicle never arrived), clamped so it cannot go negative.
func (s *State) ReleaseReservedCharge(charge float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservedKWh -= charge
	if s.reservedKWh < 0 {
		s.reservedKWh = 0
	}
}

// TakeReservedCharge draws down a vehicle's Get request. Reserved energy is
// consumed first; if the request exceeds what was reserved, the shortfall
// is covered from any additional unreserved buffer energy available (this
// mirrors original_source's take_reserved_charge, including the case where
// a vehicle asks for more than it reserved and the charger tops it up from
// spare capacity rather than refusing outright). Returns the amount
// actually delivered.
func (s *State) TakeReservedCharge(charge float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reservedKWh >= charge {
		s.reservedKWh -= charge
		return s.removeChargeLocked(charge)
	}

	fromReserved := s.reservedKWh
	remainder := charge - fromReserved
	available := s.availableChargeLocked()
	if remainder > available {
		remainder = available
	}
	s.reservedKWh = 0
	total := fromReserved + remainder
	return s.removeChargeLocked(total)
}

// ReservePort claims one free port, returning false if none are available.
func (s *State) ReservePort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reservedPorts >= s.chargingPorts {
		return false
	}
	s.reservedPorts++
	return true
}

// ReleasePort frees a previously reserved port, returning false if none
// were reserved.
func (s *State) ReleasePort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reservedPorts <= 0 {
		return false
	}
	s.reservedPorts--
	return true
}
