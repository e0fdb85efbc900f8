// Package integration wires real agent instances over a real bus.Bus to
// exercise the end-to-end scenarios spec.md §8 describes, without any
// network: ticks are driven directly via tickgen.Coordinator.Step,
// mirroring the teacher's Engine.Step test hook, and short time.Sleep calls
// give the agent goroutines time to handle what was published.
package integration

import (
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powercable/internal/bus"
	"powercable/internal/charger"
	"powercable/internal/fusion"
	"powercable/internal/model"
	"powercable/internal/proto"
	"powercable/internal/tickgen"
	"powercable/internal/topics"
)

func testLogger() *log.Logger {
	return log.New(nopWriter{}, "", 0)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// TestFusionReactorSellsWholesaleToCharger exercises scenario: a charger
// posts wholesale buy-offers to refill its buffer during Process, a fusion
// reactor accepts whichever clear its floor price on PowerImport, and the
// charger credits the energy once it acks the accept.
func TestFusionReactorSellsWholesaleToCharger(t *testing.T) {
	b := bus.New(testLogger(), 0)
	coord := tickgen.New(b, time.Second)

	reactor := fusion.New("reactor-1", model.Position{})
	reactorAgent := fusion.NewAgent(reactor, b, testLogger())
	stop := make(chan struct{})
	defer close(stop)
	go reactorAgent.Run(stop)

	chargerState := charger.NewState("charger-1", model.Position{}, 1000, 200, 2)
	chargerAgent := charger.NewAgent(chargerState, b, testLogger())
	go chargerAgent.Run(stop)

	time.Sleep(10 * time.Millisecond) // let subscribers register

	coord.Step() // -> Commerce (tick 0)
	coord.Step() // -> PowerImport (tick 0)
	time.Sleep(10 * time.Millisecond)
	coord.Step() // -> Process (tick 1): charger posts wholesale buy-offers
	time.Sleep(10 * time.Millisecond)
	coord.Step() // -> Commerce (tick 1)
	coord.Step() // -> PowerImport (tick 1): reactor accepts and sells
	time.Sleep(20 * time.Millisecond)

	assert.Greater(t, chargerState.AvailableCharge(), 0.0)
}

// TestRetailReservationHandshake exercises the full request->offer->accept
// ->charging/get->charging/release protocol from spec.md §4.2 directly
// against a charger agent, standing in for a vehicle. The reservation must
// already be in place right after the request, before any accept arrives.
func TestRetailReservationHandshake(t *testing.T) {
	b := bus.New(testLogger(), 0)

	chargerState := charger.NewState("charger-1", model.Position{}, 1000, 100, 1)
	chargerState.AddCharge(50)
	chargerAgent := charger.NewAgent(chargerState, b, testLogger())
	stop := make(chan struct{})
	defer close(stop)
	go chargerAgent.Run(stop)

	time.Sleep(10 * time.Millisecond)

	offerCh, cancelOffer := b.Subscribe(topics.ChargeOffer)
	defer cancelOffer()

	reqID := "req-1"
	req := model.ChargeRequest{ID: reqID, Vehicle: "vehicle-1", NeededKW: 20, ConsumptionPer100km: 15}
	b.Publish(topics.ChargeRequest, bus.AtLeastOnce, false, proto.EncodeChargeRequest(req))

	var offer model.ChargeOffer
	select {
	case msg := <-offerCh:
		o, err := proto.DecodeChargeOffer(msg.Payload)
		require.NoError(t, err)
		offer = o
	case <-time.After(time.Second):
		t.Fatal("did not receive charge offer")
	}
	assert.Equal(t, "charger-1", offer.Charger)

	// Reservation happens at request time, before any accept.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, chargerState.FreePorts(), "port should be reserved as soon as the request is answered")

	accept := model.ChargeAccept{RequestID: reqID, Vehicle: "vehicle-1", Charger: offer.Charger}
	b.Publish(topics.ChargeAccept, bus.AtLeastOnce, false, proto.EncodeChargeAccept(accept))
	time.Sleep(20 * time.Millisecond)

	ackCh, cancelAck := b.Subscribe(topics.ChargingAck)
	defer cancelAck()

	get := model.Get{RequestID: reqID, Vehicle: "vehicle-1", Charger: offer.Charger, AmountKW: offer.AmountKW}
	b.Publish(topics.ChargingGet, bus.AtLeastOnce, false, proto.EncodeGet(get))

	select {
	case msg := <-ackCh:
		ack, err := proto.DecodeGet(msg.Payload)
		require.NoError(t, err)
		assert.InDelta(t, offer.AmountKW, ack.AmountKW, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("did not receive charging ack")
	}

	release := model.Get{RequestID: reqID, Vehicle: "vehicle-1", Charger: offer.Charger}
	b.Publish(topics.ChargingRelease, bus.AtLeastOnce, false, proto.EncodeGet(release))
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, chargerState.FreePorts(), "port should be released once charging ends")
}

// TestUnrelatedChargeAcceptRollsBackReservation exercises the multi-charger
// race from spec.md §8: a charger that answered a request but was not the
// one the vehicle picked must give back its whole reservation.
func TestUnrelatedChargeAcceptRollsBackReservation(t *testing.T) {
	b := bus.New(testLogger(), 0)

	chargerState := charger.NewState("charger-1", model.Position{}, 1000, 100, 1)
	chargerState.AddCharge(50)
	chargerAgent := charger.NewAgent(chargerState, b, testLogger())
	stop := make(chan struct{})
	defer close(stop)
	go chargerAgent.Run(stop)

	time.Sleep(10 * time.Millisecond)

	reqID := "req-1"
	req := model.ChargeRequest{ID: reqID, Vehicle: "vehicle-1", NeededKW: 20, ConsumptionPer100km: 15}
	b.Publish(topics.ChargeRequest, bus.AtLeastOnce, false, proto.EncodeChargeRequest(req))
	time.Sleep(20 * time.Millisecond)

	before := chargerState.AvailableCharge()
	assert.Equal(t, 0, chargerState.FreePorts())

	accept := model.ChargeAccept{RequestID: reqID, Vehicle: "vehicle-1", Charger: "some-other-charger"}
	b.Publish(topics.ChargeAccept, bus.AtLeastOnce, false, proto.EncodeChargeAccept(accept))
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, chargerState.FreePorts(), "losing charger should release its port")
	assert.Greater(t, chargerState.AvailableCharge(), before, "losing charger should release its reserved charge")
}
