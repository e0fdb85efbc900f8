// agent.go wires a Vehicle's behaviour state machine to the bus: request a
// charger, wait for offers, accept one, drive to it, draw down reserved
// charge via the charging/get-ack exchange, then release the charger and
// park where it stands — the full handshake in spec.md §4.2 seen from the
// vehicle's side.
package vehicle

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"powercable/internal/bus"
	"powercable/internal/model"
	"powercable/internal/offerbook"
	"powercable/internal/proto"
	"powercable/internal/topics"
)

// arrivalThresholdKm is how close a vehicle must be to a charger's
// position before it is considered "arrived" and may start drawing
// reserved charge.
const arrivalThresholdKm = 0.05

// lowSoCThreshold triggers a search for a charger either because the
// vehicle is running low or its deadline target has not yet been met.
const lowSoCThreshold = 0.3

// offerWindow bounds how long a vehicle waits for ChargeOffers to arrive
// on a request before picking from whatever it has collected.
const offerWindow = 150 * time.Millisecond

// ackWindow bounds how long a vehicle waits for a charging/get's ack
// before giving up on that draw-down for the tick.
const ackWindow = 150 * time.Millisecond

// Agent runs a vehicle's message loop against a Bus.
type Agent struct {
	v      *Vehicle
	bus    *bus.Bus
	logger *log.Logger

	activeRequestID string
	activeCharger   string
}

// NewAgent constructs an Agent for v.
func NewAgent(v *Vehicle, b *bus.Bus, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{v: v, bus: b, logger: logger}
}

// Run consumes tick messages until stop is closed.
func (a *Agent) Run(stop <-chan struct{}) {
	tickCh, cancel := a.bus.Subscribe(topics.Tick)
	defer cancel()

	for {
		select {
		case <-stop:
			return
		case msg := <-tickCh:
			a.handleTick(msg.Payload)
		}
	}
}

func (a *Agent) handleTick(payload []byte) {
	var tp model.TickPayload
	if err := json.Unmarshal(payload, &tp); err != nil {
		a.logger.Printf("vehicle %s: malformed tick payload: %v", a.v.Name(), err)
		return
	}

	switch tp.Phase {
	case model.PhaseProcess:
		a.v.Drive()
		a.publishLocation()
		if a.v.Status() == StatusCharging {
			a.drawCharge()
		}
	case model.PhaseCommerce:
		if a.v.Status() == StatusParked && a.shouldSeekCharge() {
			a.seekCharger()
		} else if a.v.Status() == StatusSearchingForCharger && a.hasArrived() {
			a.v.SetStatus(StatusCharging)
		}
	}
}

func (a *Agent) shouldSeekCharge() bool {
	soc := a.v.Battery().SoC()
	return soc < lowSoCThreshold || (a.v.Deadline().TicksRemaining < 12 && soc < a.v.Deadline().TargetSoC)
}

func (a *Agent) hasArrived() bool {
	return a.v.DistanceTo(a.v.NextStop()) <= arrivalThresholdKm
}

// seekCharger publishes a ChargeRequest, briefly collects ChargeOffers on
// the shared reply topic (filtering by this request's id, since
// charger/offer is a single global topic every charger answers on), and
// accepts one via the vehicle's selection algorithm.
func (a *Agent) seekCharger() {
	reqID := uuid.NewString()
	req := model.ChargeRequest{
		ID:                  reqID,
		Vehicle:             a.v.Name(),
		Position:            a.v.Location(),
		NeededKW:            a.v.Battery().FreeCapacity(),
		ConsumptionPer100km: a.v.Consumption(),
	}

	offerCh, cancel := a.bus.Subscribe(topics.ChargeOffer)
	defer cancel()

	a.bus.Publish(topics.ChargeRequest, bus.AtLeastOnce, false, proto.EncodeChargeRequest(req))
	a.v.SetStatus(StatusSearchingForCharger)

	var offers []model.ChargeOffer
	deadline := time.After(offerWindow)
collect:
	for {
		select {
		case msg := <-offerCh:
			o, err := proto.DecodeChargeOffer(msg.Payload)
			if err != nil || o.RequestID != reqID {
				continue
			}
			offers = append(offers, o)
		case <-deadline:
			break collect
		}
	}

	chosen, ok := offerbook.Select(a.v.Algorithm(), a.v.Location(), a.v.Battery().FreeCapacity(), a.v.Consumption(), a.v.Range(), offers, a.v.rng)
	if !ok {
		a.v.SetStatus(StatusParked)
		return
	}

	accept := model.ChargeAccept{RequestID: reqID, Vehicle: a.v.Name(), Charger: chosen.Charger}
	a.bus.Publish(topics.ChargeAccept, bus.AtLeastOnce, false, proto.EncodeChargeAccept(accept))

	a.activeRequestID = reqID
	a.activeCharger = chosen.Charger
	a.v.SetNextStop(chosen.Position)
}

// drawCharge asks the active charger for energy and waits for its ack
// before crediting the battery, since the charger may deliver less than
// requested.
func (a *Agent) drawCharge() {
	if a.activeRequestID == "" {
		return
	}
	needed := a.v.Battery().FreeCapacity()
	if needed <= 0 {
		a.finishCharging()
		return
	}

	ackCh, cancel := a.bus.Subscribe(topics.ChargingAck)
	defer cancel()

	amount := a.v.Battery().MaxAddableCharge(0)
	get := model.Get{RequestID: a.activeRequestID, Vehicle: a.v.Name(), Charger: a.activeCharger, AmountKW: amount}
	a.bus.Publish(topics.ChargingGet, bus.AtLeastOnce, false, proto.EncodeGet(get))

	deadline := time.After(ackWindow)
	for {
		select {
		case msg := <-ackCh:
			ack, err := proto.DecodeGet(msg.Payload)
			if err != nil || ack.RequestID != a.activeRequestID {
				continue
			}
			a.v.Battery().AddCharge(ack.AmountKW)
			if a.v.Battery().SoC() >= a.v.Deadline().TargetSoC {
				a.finishCharging()
			}
			return
		case <-deadline:
			return
		}
	}
}

func (a *Agent) finishCharging() {
	release := model.Get{RequestID: a.activeRequestID, Vehicle: a.v.Name(), Charger: a.activeCharger}
	a.bus.Publish(topics.ChargingRelease, bus.AtLeastOnce, false, proto.EncodeGet(release))

	a.activeRequestID = ""
	a.activeCharger = ""
	a.v.SetStatus(StatusParked)
	a.v.SetDestination(a.v.Location())
}

func (a *Agent) publishLocation() {
	payload, err := json.Marshal(a.v.Location())
	if err != nil {
		return
	}
	a.bus.Publish(topics.PowerLocation, bus.AtMostOnce, true, payload)
}
