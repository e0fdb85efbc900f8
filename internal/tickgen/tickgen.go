// Package tickgen implements the global three-phase tick coordinator
// (Process -> Commerce -> PowerImport -> Process ...), the single clock
// every other agent synchronizes against. The single-writer-mutex + ticker
// loop shape is grounded on the teacher's internal/simulator.Engine
// (Start/Pause/SetSpeed/Step lifecycle, ticker-driven loop) and
// devskill-org-miners-scheduler's PeriodicTask initial-delay-then-ticker
// pattern; the three-phase cycling itself is spec.md §2/§4.1's own
// requirement, since the teacher's engine only ever advances linearly
// through historical data.
package tickgen

import (
	"encoding/json"
	"sync"
	"time"

	"powercable/internal/bus"
	"powercable/internal/model"
	"powercable/internal/topics"
)

// PhaseAsHour is how many wall-clock hours one tick represents in the
// simulated world: a 5-minute tick is 1/12 of an hour. The coordinator
// itself does not use it, and the vehicle package keeps its own copy
// (phaseAsHour).
const PhaseAsHour = 1.0 / 12.0

var phaseOrder = []model.Phase{model.PhaseProcess, model.PhaseCommerce, model.PhasePowerImport}

// Coordinator advances the global tick/phase clock and publishes it.
type Coordinator struct {
	mu sync.Mutex

	tick      uint64
	phaseIdx  int
	period    time.Duration
	bus       *bus.Bus
	ticker    *time.Ticker
	paused    bool
}

// New creates a Coordinator that advances one phase every period.
func New(b *bus.Bus, period time.Duration) *Coordinator {
	if period <= 0 {
		period = 200 * time.Millisecond
	}
	return &Coordinator{period: period, bus: b}
}

// Step advances exactly one phase and publishes the new TickPayload,
// returning it. This is the coordinator's test hook (mirroring the
// teacher's Engine.Step), letting integration tests drive ticks
// deterministically without waiting on a real ticker.
func (c *Coordinator) Step() model.TickPayload {
	c.mu.Lock()
	c.phaseIdx++
	if c.phaseIdx >= len(phaseOrder) {
		c.phaseIdx = 0
		c.tick++
	}
	tp := model.TickPayload{Tick: c.tick, Phase: phaseOrder[c.phaseIdx]}
	c.mu.Unlock()

	if payload, err := json.Marshal(tp); err == nil {
		c.bus.Publish(topics.Tick, bus.ExactlyOnce, true, payload)
	}
	return tp
}

// Current returns the most recently published tick/phase without
// advancing it.
func (c *Coordinator) Current() model.TickPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.TickPayload{Tick: c.tick, Phase: phaseOrder[c.phaseIdx]}
}

// SetSpeed changes the wall-clock period between phase advances. A period
// of 0 or less falls back to 200ms, whatever period New was given.
func (c *Coordinator) SetSpeed(period time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if period <= 0 {
		period = 200 * time.Millisecond
	}
	c.period = period
	if c.ticker != nil {
		c.ticker.Reset(c.period)
	}
}

// Run starts the real-time ticker loop, advancing one phase every period
// until stop is closed.
func (c *Coordinator) Run(stop <-chan struct{}) {
	c.mu.Lock()
	c.ticker = time.NewTicker(c.period)
	ticker := c.ticker
	c.mu.Unlock()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			paused := c.paused
			c.mu.Unlock()
			if !paused {
				c.Step()
			}
		}
	}
}

// Pause stops phase advancement without tearing down the ticker loop.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume restarts phase advancement after Pause.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}
