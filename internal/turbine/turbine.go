// Package turbine implements the wind-turbine producer agent: a power
// curve precomputed once at startup from inverse-distance-weighted
// interpolation across the nearest weather stations, then replayed
// cyclically tick after tick. Trading behaviour (accepting wholesale
// buy-offers and settling them on ack) is otherwise identical to any other
// producer, per spec.md §4.5.
package turbine

import (
	"math"

	"powercable/internal/model"
)

// curveSampleCount is how many points make up the precomputed cyclic power
// curve; the agent loops over it tick after tick.
const curveSampleCount = 96 // 8 hours at 5-minute ticks

// ratedPowerKW is the turbine's nameplate output at the reference wind
// speed used to convert interpolated wind speed into generated power.
const ratedPowerKW = 50.0

// referenceWindSpeed is the wind speed (m/s) at which the turbine reaches
// ratedPowerKW; output scales with the cube of wind speed below that,
// consistent with a wind turbine's physical power curve.
const referenceWindSpeed = 12.0

// Turbine is a wholesale power producer whose output follows a
// precomputed, cyclically replayed curve.
type Turbine struct {
	name     string
	position model.Position
	curveKW  []float64
	floorKW  float64
}

// stationSample is the plain-struct projection of a meteo.Station used for
// interpolation, decoupled from the meteo package's own type so this
// package does not import it.
type stationSample struct {
	position  model.Position
	windSpeed []float64
}

// New precomputes a power curve for a turbine at position by
// inverse-distance-weight averaging the wind speed series of the given
// station samples, then converting to power via a cubic curve.
func New(name string, position model.Position, samples []stationSample) *Turbine {
	curve := make([]float64, curveSampleCount)
	for i := 0; i < curveSampleCount; i++ {
		curve[i] = interpolatedPowerKW(position, samples, i)
	}
	return &Turbine{name: name, position: position, curveKW: curve}
}

// interpolatedPowerKW blends every sample's wind speed at tick index i
// (wrapped to that sample's own series length) using inverse-distance
// weights, then converts the blended wind speed to power.
func interpolatedPowerKW(at model.Position, samples []stationSample, i int) float64 {
	if len(samples) == 0 {
		return 0
	}
	var weightedSum, weightTotal float64
	for _, s := range samples {
		if len(s.windSpeed) == 0 {
			continue
		}
		distance := at.DistanceTo(s.position)
		weight := 1.0 / (1.0 + distance)
		speed := s.windSpeed[i%len(s.windSpeed)]
		weightedSum += weight * speed
		weightTotal += weight
	}
	if weightTotal == 0 {
		return 0
	}
	windSpeed := weightedSum / weightTotal
	return windToPowerKW(windSpeed)
}

// windToPowerKW converts wind speed to generated power using a cubic ramp
// up to ratedPowerKW, clamped at the rating (real turbines feather blades
// above rated wind speed rather than exceeding nameplate output).
func windToPowerKW(windSpeedMS float64) float64 {
	if windSpeedMS <= 0 {
		return 0
	}
	power := ratedPowerKW * math.Pow(windSpeedMS/referenceWindSpeed, 3)
	if power > ratedPowerKW {
		return ratedPowerKW
	}
	return power
}

// Name returns the turbine's identifier.
func (t *Turbine) Name() string { return t.name }

// Position returns the turbine's fixed location.
func (t *Turbine) Position() model.Position { return t.position }

// PowerAt returns the precomputed output in kW for tick, cycling through
// the curve once it is exhausted.
func (t *Turbine) PowerAt(tick uint64) float64 {
	if len(t.curveKW) == 0 {
		return 0
	}
	return t.curveKW[tick%uint64(len(t.curveKW))]
}

// newStationSample projects a meteo.Station-shaped value into the internal
// stationSample the interpolation helpers use; kept exported via
// NewFromStations below so callers never need to reference stationSample
// directly.
func newStationSample(position model.Position, windSpeed []float64) stationSample {
	return stationSample{position: position, windSpeed: windSpeed}
}

// StationInput is the caller-facing shape for one weather station's
// location and wind-speed series, decoupled from meteo.Station so this
// package does not need to import it.
type StationInput struct {
	Position  model.Position
	WindSpeed []float64
}

// NewFromStations is the constructor callers (internal/composition) use, taking
// plain StationInput values gathered from either meteo.Client or
// meteo.StaticSource.
func NewFromStations(name string, position model.Position, stations []StationInput) *Turbine {
	samples := make([]stationSample, len(stations))
	for i, s := range stations {
		samples[i] = newStationSample(s.Position, s.WindSpeed)
	}
	return New(name, position, samples)
}
