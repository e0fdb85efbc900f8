package consumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"powercable/internal/model"
)

func newTestTimeline() *Timeline {
	return NewTimeline([]model.Reading{
		{Timestamp: 0, ValueKW: 2.0},
		{Timestamp: 300, ValueKW: 3.0},
	})
}

func TestTimelineAtWrapsAround(t *testing.T) {
	tl := newTestTimeline()
	assert.InDelta(t, 2.0, tl.At(0), 1e-9)
	assert.InDelta(t, 3.0, tl.At(1), 1e-9)
	assert.InDelta(t, 2.0, tl.At(2), 1e-9) // wraps
}

func TestTimelineReadingAtFindsMostRecentAtOrBefore(t *testing.T) {
	tl := newTestTimeline()
	r, ok := tl.ReadingAt(150)
	assert.True(t, ok)
	assert.Equal(t, int64(0), r.Timestamp)
}

func TestTimelineReadingAtBeforeFirstReturnsFalse(t *testing.T) {
	tl := newTestTimeline()
	_, ok := tl.ReadingAt(-1)
	assert.False(t, ok)
}

func TestHouseholdDemandIgnoresDaylight(t *testing.T) {
	c := New("house-1", KindHousehold, model.Position{}, newTestTimeline())
	always := func(time.Time, model.Position) bool { return true }
	never := func(time.Time, model.Position) bool { return false }
	assert.Equal(t, c.DemandAt(0, time.Now(), always), c.DemandAt(0, time.Now(), never))
}

func TestCommercialDemandScalesWithDaylight(t *testing.T) {
	c := New("shop-1", KindCommercial, model.Position{}, newTestTimeline())
	day := func(time.Time, model.Position) bool { return true }
	night := func(time.Time, model.Position) bool { return false }
	assert.Greater(t, c.DemandAt(0, time.Now(), day), c.DemandAt(0, time.Now(), night))
}
