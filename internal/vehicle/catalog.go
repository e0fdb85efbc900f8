package vehicle

import "math/rand"

// evModel is one entry in the catalog of vehicle models a new Vehicle is
// randomly drawn from, mirroring original_source/vehicle/src/database.rs's
// random_ev table of (model, consumption, capacity, max_charge_rate).
type evModel struct {
	name              string
	consumptionPer100 float64 // kWh/100km
	capacityKWh       float64
	maxChargeRateKW   float64
}

var evCatalog = []evModel{
	{"Compact EV", 14.5, 40, 11},
	{"Midsize Sedan", 16.0, 58, 11},
	{"Family SUV", 19.5, 75, 22},
	{"Long-Range Sedan", 15.5, 82, 22},
	{"Commercial Van", 24.0, 64, 11},
}

// RandomEV draws a deterministic model from rng, returning its name and
// parameters.
func RandomEV(rng *rand.Rand) (name string, consumption, capacity, maxChargeRate float64) {
	m := evCatalog[rng.Intn(len(evCatalog))]
	return m.name, m.consumptionPer100, m.capacityKWh, m.maxChargeRateKW
}
