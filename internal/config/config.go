// Package config loads PowerCable's runtime configuration from a JSON file
// with flag overrides, in the style of
// devskill-org-miners-scheduler/scheduler/config.go's DefaultConfig() +
// JSON-tag struct.
package config

import (
	"encoding/json"
	"os"
	"time"

	"powercable/internal/model"
)

// Config is the set of tunables a PowerCable run needs: timing, population,
// placement bounds and external endpoints. Market, battery and vehicle
// constants are compile-time constants in their own packages and are not
// configurable here.
type Config struct {
	// Addr is the UI websocket server's listen address.
	Addr string `json:"addr"`

	// TickPeriod is how long one phase advance takes in wall-clock time.
	TickPeriod time.Duration `json:"tick_period"`

	// Agents controls how many of each agent type to spawn.
	Agents AgentCounts `json:"agents"`

	// Bounds is the geographic bounding box new agents are placed within.
	Bounds Bounds `json:"bounds"`

	// RedisAddr, if set, backs the bus's dedup ring with Redis instead of
	// an in-memory ring.
	RedisAddr string `json:"redis_addr,omitempty"`

	// MetricsDSN, if set, archives published telemetry to Postgres.
	MetricsDSN string `json:"metrics_dsn,omitempty"`

	// ModbusAddr is the simulated hardware endpoint composition.Build opens
	// a port controller against for each charger; the chargers do not
	// drive it.
	ModbusAddr string `json:"modbus_addr,omitempty"`

	// MeteoBaseURL is the historical weather API turbines pull station
	// data from. Empty means use the embedded static station table.
	MeteoBaseURL string `json:"meteo_base_url,omitempty"`
}

// AgentCounts controls the population size of each agent type.
type AgentCounts struct {
	Vehicles  int `json:"vehicles"`
	Chargers  int `json:"chargers"`
	Turbines  int `json:"turbines"`
	Reactors  int `json:"reactors"`
	Consumers int `json:"consumers"`
}

// Bounds is a geographic bounding box (approximating Germany by default).
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// RandomPosition returns a uniformly sampled position within b, using f to
// draw two values in [0, 1).
func (b Bounds) RandomPosition(f func() float64) model.Position {
	return model.Position{
		Latitude:  b.MinLat + f()*(b.MaxLat-b.MinLat),
		Longitude: b.MinLon + f()*(b.MaxLon-b.MinLon),
	}
}

// DefaultConfig returns sane defaults for a small local run, with Bounds
// approximating Germany's extent per spec.md's external-interfaces
// section.
func DefaultConfig() Config {
	return Config{
		Addr:       ":8080",
		TickPeriod: 200 * time.Millisecond,
		Agents: AgentCounts{
			Vehicles:  10,
			Chargers:  4,
			Turbines:  3,
			Reactors:  1,
			Consumers: 6,
		},
		Bounds: Bounds{MinLat: 47.3, MaxLat: 55.1, MinLon: 5.9, MaxLon: 15.0},
	}
}

// Load reads a JSON config file at path, falling back to DefaultConfig for
// any field the file omits. A missing file is not an error: it simply
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
