package tickgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"powercable/internal/bus"
	"powercable/internal/model"
)

func TestStepCyclesThroughPhasesThenIncrementsTick(t *testing.T) {
	c := New(bus.New(nil, 0), time.Second)

	p1 := c.Step()
	assert.Equal(t, model.PhaseCommerce, p1.Phase)
	assert.Equal(t, uint64(0), p1.Tick)

	p2 := c.Step()
	assert.Equal(t, model.PhasePowerImport, p2.Phase)

	p3 := c.Step()
	assert.Equal(t, model.PhaseProcess, p3.Phase)
	assert.Equal(t, uint64(1), p3.Tick)
}

func TestStepPublishesRetainedTick(t *testing.T) {
	b := bus.New(nil, 0)
	c := New(b, time.Second)
	c.Step()

	ch, cancel := b.Subscribe("tickgen/tick")
	defer cancel()

	select {
	case msg := <-ch:
		assert.True(t, msg.Retained)
	case <-time.After(time.Second):
		t.Fatal("expected retained tick on subscribe")
	}
}

func TestPauseStopsRunLoopAdvancing(t *testing.T) {
	c := New(bus.New(nil, 0), 10*time.Millisecond)
	c.Pause()
	stop := make(chan struct{})
	go c.Run(stop)
	defer close(stop)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, uint64(0), c.Current().Tick)
}
