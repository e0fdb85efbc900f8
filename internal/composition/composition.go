// Package composition builds the full set of supervised agents for a
// PowerCable run from a config.Config, shared by cmd/powercable (serves a
// UI) and cmd/powercable-bench (headless), so the two entry points can
// never drift on how a population is assembled.
package composition

import (
	"log"
	"math"
	"strconv"

	"powercable/internal/bus"
	"powercable/internal/charger"
	"powercable/internal/charger/hardware"
	"powercable/internal/config"
	"powercable/internal/consumer"
	"powercable/internal/fusion"
	"powercable/internal/model"
	"powercable/internal/simrand"
	"powercable/internal/supervisor"
	"powercable/internal/transformer"
	"powercable/internal/turbine"
	"powercable/internal/turbine/meteo"
	"powercable/internal/vehicle"
)

// ownType values match spec.md §9's per-agent-type seed constants.
const (
	ownTypeCharger  = 7
	ownTypeVehicle  = 3
	ownTypeConsumer = 11
	ownTypeTurbine  = 5
)

// Result is everything a main package needs after assembling a population:
// the supervised agent specs plus the transformer aggregator, since
// callers (bench mode in particular) read final stats directly off it.
type Result struct {
	Specs       []supervisor.AgentSpec
	Transformer *transformer.Aggregator
}

// Build constructs every agent population per cfg, seeding each agent's
// own PRNG deterministically per spec.md §9 (index+1)*ownType+0x07_25. The
// seed is applied once here; a supervisor respawn reruns the same agent
// value and does not reseed it.
func Build(cfg config.Config, b *bus.Bus, logger *log.Logger) Result {
	var specs []supervisor.AgentSpec
	var stations []turbine.StationInput
	if cfg.MeteoBaseURL != "" {
		client := meteo.NewClient(cfg.MeteoBaseURL, "powercable/1.0")
		if got, err := client.NearestStations(51.0, 10.0, 5); err == nil {
			stations = toStationInputs(got)
		} else {
			logger.Printf("meteo: falling back to static stations: %v", err)
		}
	}
	if stations == nil {
		got, _ := meteo.NewStaticSource().NearestStations(51.0, 10.0, 5)
		stations = toStationInputs(got)
	}

	for i := 0; i < cfg.Agents.Turbines; i++ {
		rng := simrand.New(i, ownTypeTurbine)
		pos := cfg.Bounds.RandomPosition(rng.Float64)
		t := turbine.NewFromStations(turbineName(i), pos, stations)
		agent := turbine.NewAgent(t, b, logger)
		specs = append(specs, supervisor.AgentSpec{Name: t.Name(), Start: agent.Run})
	}

	for i := 0; i < cfg.Agents.Reactors; i++ {
		rng := simrand.New(i, ownTypeTurbine)
		pos := cfg.Bounds.RandomPosition(rng.Float64)
		r := fusion.New(reactorName(i), pos)
		agent := fusion.NewAgent(r, b, logger)
		specs = append(specs, supervisor.AgentSpec{Name: r.Name(), Start: agent.Run})
	}

	for i := 0; i < cfg.Agents.Chargers; i++ {
		rng := simrand.New(i, ownTypeCharger)
		pos := cfg.Bounds.RandomPosition(rng.Float64)
		state := charger.NewState(chargerName(i), pos, 50, 300, 4)
		agent := charger.NewAgent(state, b, logger)
		specs = append(specs, supervisor.AgentSpec{Name: state.Name(), Start: agent.Run})

		if cfg.ModbusAddr != "" {
			if _, err := hardware.NewPortController(cfg.ModbusAddr, 4); err != nil {
				logger.Printf("hardware: %s: %v", state.Name(), err)
			}
		}
	}

	for i := 0; i < cfg.Agents.Vehicles; i++ {
		rng := simrand.New(i, ownTypeVehicle)
		name, consumption, capacity, maxRate := vehicle.RandomEV(rng)
		pos := cfg.Bounds.RandomPosition(rng.Float64)
		v := vehicle.New(name+"-"+strconv.Itoa(i), name, pos, consumption, capacity, maxRate, rng)
		v.SetDestination(cfg.Bounds.RandomPosition(rng.Float64))
		agent := vehicle.NewAgent(v, b, logger)
		specs = append(specs, supervisor.AgentSpec{Name: v.Name(), Start: agent.Run})
	}

	for i := 0; i < cfg.Agents.Consumers; i++ {
		rng := simrand.New(i, ownTypeConsumer)
		pos := cfg.Bounds.RandomPosition(rng.Float64)
		timeline := consumer.NewTimeline(syntheticSLP())
		kind := consumerKind(i)
		c := consumer.New(consumerName(i), kind, pos, timeline)
		agent := consumer.NewAgent(c, b, logger)
		specs = append(specs, supervisor.AgentSpec{Name: c.Name(), Start: agent.Run})
	}

	agg := transformer.New()
	transformerAgent := transformer.NewAgent(agg, b, logger)
	specs = append(specs, supervisor.AgentSpec{Name: "transformer", Start: transformerAgent.Run})

	return Result{Specs: specs, Transformer: agg}
}

func toStationInputs(stations []meteo.Station) []turbine.StationInput {
	out := make([]turbine.StationInput, len(stations))
	for i, s := range stations {
		out[i] = turbine.StationInput{
			Position:  model.Position{Latitude: s.Latitude, Longitude: s.Longitude},
			WindSpeed: s.WindSpeed,
		}
	}
	return out
}

// syntheticSLP builds a 96-point (one day at 15-minute resolution)
// synthetic standard load profile when no real SLP CSV has been ingested,
// so consumer agents always have a timeline to replay. A real deployment
// points ingest.NewSLPParser at an actual SLP export instead.
func syntheticSLP() []model.Reading {
	readings := make([]model.Reading, 96)
	for i := range readings {
		hour := float64(i) / 4.0
		load := 3.0 + 2.0*math.Sin((hour-6)/24*2*math.Pi)
		readings[i] = model.Reading{Timestamp: int64(i) * 900, ValueKW: load}
	}
	return readings
}

func turbineName(i int) string  { return "turbine-" + strconv.Itoa(i) }
func reactorName(i int) string  { return "reactor-" + strconv.Itoa(i) }
func chargerName(i int) string  { return "charger-" + strconv.Itoa(i) }
func consumerName(i int) string { return "consumer-" + strconv.Itoa(i) }

func consumerKind(i int) consumer.Kind {
	switch i % 3 {
	case 0:
		return consumer.KindHousehold
	case 1:
		return consumer.KindCommercial
	default:
		return consumer.KindAgricultural
	}
}
