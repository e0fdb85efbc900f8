// agent.go wires a charger's State to the bus. A charger plays both sides
// of the market: it is a buyer in the wholesale auction (posting
// market/buy_offer packages to refill its buffer) and a seller in the
// retail auction (answering vehicle ChargeRequests and honoring the
// accept/get/release handshake of spec.md §4.2).
package charger

import (
	"encoding/json"
	"fmt"
	"log"

	"powercable/internal/bus"
	"powercable/internal/model"
	"powercable/internal/offerbook"
	"powercable/internal/proto"
	"powercable/internal/topics"
)

// reservation tracks one in-flight retail handshake between request and
// release. accepted is false until the vehicle's ChargeAccept names this
// charger; before that, charging/get requests are ignored.
type reservation struct {
	vehicle   string
	amountKW  float64
	portTaken bool
	accepted  bool
}

// Agent runs a charger's message loop against a Bus.
type Agent struct {
	state  *State
	bus    *bus.Bus
	logger *log.Logger

	book         *offerbook.Book // this charger's own outstanding wholesale bids
	reservations map[string]*reservation
	tick         uint64
}

// NewAgent constructs an Agent for the given buffer state.
func NewAgent(state *State, b *bus.Bus, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{
		state:        state,
		bus:          b,
		logger:       logger,
		book:         offerbook.New(),
		reservations: make(map[string]*reservation),
	}
}

// Run consumes bus messages until stop is closed. It is meant to be started
// as a goroutine by the supervisor.
func (a *Agent) Run(stop <-chan struct{}) {
	tickCh, cancelTick := a.bus.Subscribe(topics.Tick)
	defer cancelTick()
	acceptBuyCh, cancelAcceptBuy := a.bus.Subscribe(topics.AcceptBuyOffer)
	defer cancelAcceptBuy()
	reqCh, cancelReq := a.bus.Subscribe(topics.ChargeRequest)
	defer cancelReq()
	acceptCh, cancelAccept := a.bus.Subscribe(topics.ChargeAccept)
	defer cancelAccept()
	getCh, cancelGet := a.bus.Subscribe(topics.ChargingGet)
	defer cancelGet()
	releaseCh, cancelRelease := a.bus.Subscribe(topics.ChargingRelease)
	defer cancelRelease()

	for {
		select {
		case <-stop:
			return
		case msg := <-tickCh:
			a.handleTick(msg.Payload)
		case msg := <-acceptBuyCh:
			a.handleAcceptBuyOffer(msg.Payload)
		case msg := <-reqCh:
			a.handleChargeRequest(msg.Payload)
		case msg := <-acceptCh:
			a.handleChargeAccept(msg.Payload)
		case msg := <-getCh:
			a.handleChargingGet(msg.Payload)
		case msg := <-releaseCh:
			a.handleChargingRelease(msg.Payload)
		}
	}
}

func (a *Agent) handleTick(payload []byte) {
	var tp model.TickPayload
	if err := json.Unmarshal(payload, &tp); err != nil {
		a.logger.Printf("charger %s: malformed tick payload: %v", a.state.Name(), err)
		return
	}
	a.tick = tp.Tick
	if tp.Phase == model.PhaseProcess {
		a.postWholesaleBids()
	}
}

// postWholesaleBids replaces the charger's outstanding buy-offers with a
// fresh set sized to close the gap to a full buffer, one package at a time
// so package i is priced at the fill level the buffer would have once the
// i packages before it had arrived, matching original_source's per-package
// bid construction.
func (a *Agent) postWholesaleBids() {
	a.book.ClearAll()
	n := a.state.AmountOfNeededPackages()
	for i := 0; i < n; i++ {
		price := a.state.PriceIfHadCharge(float64(i) * offerbook.OfferPackageSizeKW)
		offer := model.Offer{
			ID:       fmt.Sprintf("%s-%d-%d", a.state.Name(), a.tick, i),
			Price:    price,
			AmountKW: offerbook.OfferPackageSizeKW,
			Position: a.state.Position(),
		}
		a.book.AddOffer(offer)
		a.bus.Publish(topics.BuyOffer, bus.AtLeastOnce, false, proto.EncodeOffer(offer))
	}
}

// handleAcceptBuyOffer settles a producer's claim on one of this charger's
// own bids. Offers not found in the book belong to another buyer's auction
// entirely and are ignored; this is the book-ownership check spec.md §4.4
// requires before crediting anything.
func (a *Agent) handleAcceptBuyOffer(payload []byte) {
	accept, err := proto.DecodeOffer(payload)
	if err != nil {
		a.logger.Printf("charger %s: malformed accept: %v", a.state.Name(), err)
		return
	}
	offer, ok := a.book.GetOffer(accept.ID)
	if !ok {
		return
	}
	a.book.RemoveOffer(accept.ID)
	offer.AckFor = accept.AcceptedBy
	a.bus.Publish(topics.AckAcceptBuyOffer, bus.AtLeastOnce, false, proto.EncodeOffer(offer))
	a.state.AddCharge(offer.AmountKW)
}

func (a *Agent) handleChargeRequest(payload []byte) {
	req, err := proto.DecodeChargeRequest(payload)
	if err != nil {
		a.logger.Printf("charger %s: malformed charge request: %v", a.state.Name(), err)
		return
	}
	if a.state.FreePorts() <= 0 {
		return
	}

	travel := req.Position.DistanceTo(a.state.Position()) * req.ConsumptionPer100km / 100
	wanted := req.NeededKW + travel
	available := a.state.AvailableCharge()
	amount := wanted
	if amount > available {
		amount = available
	}
	if amount <= 0 {
		return
	}
	if !a.state.ReservePort() {
		return
	}
	if !a.state.ReserveCharge(amount) {
		a.state.ReleasePort()
		return
	}

	a.reservations[req.ID] = &reservation{vehicle: req.Vehicle, amountKW: amount, portTaken: true}

	offer := model.ChargeOffer{
		RequestID: req.ID,
		Charger:   a.state.Name(),
		Position:  a.state.Position(),
		Price:     a.state.CurrentPrice(),
		AmountKW:  amount,
	}
	a.bus.Publish(topics.ChargeOffer, bus.AtLeastOnce, false, proto.EncodeChargeOffer(offer))
}

// handleChargeAccept reacts to a vehicle's global ChargeAccept broadcast.
// Every charger receives every accept; one whose own reservation the
// vehicle didn't pick must roll its reservation all the way back, since
// this always happens before any charging/get has drawn it down.
func (a *Agent) handleChargeAccept(payload []byte) {
	accept, err := proto.DecodeChargeAccept(payload)
	if err != nil {
		a.logger.Printf("charger %s: malformed charge accept: %v", a.state.Name(), err)
		return
	}
	r, ok := a.reservations[accept.RequestID]
	if !ok {
		return
	}
	if accept.Charger != a.state.Name() {
		a.release(accept.RequestID, r, true)
		return
	}
	r.accepted = true
}

func (a *Agent) handleChargingGet(payload []byte) {
	get, err := proto.DecodeGet(payload)
	if err != nil {
		a.logger.Printf("charger %s: malformed charging get: %v", a.state.Name(), err)
		return
	}
	if get.Charger != a.state.Name() {
		return
	}
	r, ok := a.reservations[get.RequestID]
	if !ok || !r.accepted {
		return
	}
	delivered := a.state.TakeReservedCharge(get.AmountKW)
	ack := model.Get{RequestID: get.RequestID, Vehicle: get.Vehicle, Charger: a.state.Name(), AmountKW: delivered}
	a.bus.Publish(topics.ChargingAck, bus.AtLeastOnce, false, proto.EncodeGet(ack))
}

// handleChargingRelease ends a charging session. Only the port is freed
// here: reserved charge already drawn down by charging/get calls must not
// be released a second time.
func (a *Agent) handleChargingRelease(payload []byte) {
	rel, err := proto.DecodeGet(payload)
	if err != nil {
		a.logger.Printf("charger %s: malformed charging release: %v", a.state.Name(), err)
		return
	}
	if rel.Charger != a.state.Name() {
		return
	}
	r, ok := a.reservations[rel.RequestID]
	if !ok {
		return
	}
	a.release(rel.RequestID, r, false)
}

// release tears down a reservation, optionally giving back its remaining
// reserved charge (only appropriate for a rollback that happened before any
// charge was drawn down; an explicit end-of-charging release must not
// double-release energy charging/get already consumed).
func (a *Agent) release(requestID string, r *reservation, releaseCharge bool) {
	if releaseCharge {
		a.state.ReleaseReservedCharge(r.amountKW)
	}
	if r.portTaken {
		a.state.ReleasePort()
	}
	delete(a.reservations, requestID)
}
