package consumer

import (
	"time"

	"powercable/internal/model"
)

// Kind distinguishes the consumer-type split original_source's
// consumer.rs carries: household consumption is flat SLP playback,
// commercial and agricultural types additionally scale with daylight.
type Kind string

const (
	KindHousehold   Kind = "household"
	KindCommercial  Kind = "commercial"
	KindAgricultural Kind = "agricultural"
)

// daylightMultiplier scales a commercial or agricultural consumer's base
// load up while the sun is up (shopfronts draw more during opening-hours
// daylight, irrigation pumps run by day) and down at night; household load
// is unaffected, matching the teacher-agnostic split in SPEC_FULL.md §D.4.
const daylightMultiplier = 1.4
const nightMultiplier = 0.7

// Consumer is a bulk wholesale buyer replaying a standard load profile.
type Consumer struct {
	name     string
	kind     Kind
	position model.Position
	timeline *Timeline
}

// New creates a Consumer.
func New(name string, kind Kind, position model.Position, timeline *Timeline) *Consumer {
	return &Consumer{name: name, kind: kind, position: position, timeline: timeline}
}

func (c *Consumer) Name() string             { return c.name }
func (c *Consumer) Kind() Kind               { return c.kind }
func (c *Consumer) Position() model.Position { return c.position }

// DemandAt returns the consumer's load in kW at tick, observed at wall-clock
// now for the purpose of the daylight multiplier (isDaylight is injected so
// callers can use suncalc.GetTimes against the consumer's own position
// without this package importing suncalc directly).
func (c *Consumer) DemandAt(tick uint64, now time.Time, isDaylight func(time.Time, model.Position) bool) float64 {
	base := c.timeline.At(tick)
	if c.kind == KindHousehold || isDaylight == nil {
		return base
	}
	if isDaylight(now, c.position) {
		return base * daylightMultiplier
	}
	return base * nightMultiplier
}
