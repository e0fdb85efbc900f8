// Package consumer implements consumer agents as bulk wholesale buyers
// replaying a standard load profile (SLP). spec.md scopes consumers as an
// "external collaborator specified only at its interface" (buy at a fixed
// max price); this package supplements that with the household/commercial/
// agricultural split original_source/consumer/src/consumer.rs carries,
// since the distillation's Non-goals never excluded richer consumer
// behaviour, only cross-restart persistence and physical accuracy.
//
// Timeline is a single-sensor specialization of the teacher's
// internal/store.Store: binary-search range/at-or-before lookups over a
// sorted reading series, generalized from wall-clock timestamps to
// simulation ticks.
package consumer

import (
	"sort"
	"sync"

	"powercable/internal/model"
)

// Timeline holds one consumer's SLP readings in memory, sorted by
// timestamp, and plays them back by tick.
type Timeline struct {
	mu       sync.RWMutex
	readings []model.Reading
}

// NewTimeline builds a Timeline from readings, sorting a defensive copy.
func NewTimeline(readings []model.Reading) *Timeline {
	sorted := append([]model.Reading(nil), readings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
	return &Timeline{readings: sorted}
}

// Len returns how many readings the timeline holds.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.readings)
}

// At returns the load in kW for simulation tick, wrapping around the
// timeline's length so a single representative year of SLP data can drive
// an arbitrarily long simulation.
func (t *Timeline) At(tick uint64) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.readings) == 0 {
		return 0
	}
	idx := int(tick % uint64(len(t.readings)))
	return t.readings[idx].ValueKW
}

// ReadingAt returns the most recent reading at or before timestamp t,
// mirroring the teacher's store.Store.ReadingAt binary search.
func (t *Timeline) ReadingAt(ts int64) (model.Reading, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.readings) == 0 {
		return model.Reading{}, false
	}
	idx := sort.Search(len(t.readings), func(i int) bool { return t.readings[i].Timestamp > ts })
	if idx == 0 {
		return model.Reading{}, false
	}
	return t.readings[idx-1], true
}
