package turbine

import (
	"encoding/json"
	"log"

	"powercable/internal/bus"
	"powercable/internal/model"
	"powercable/internal/offerbook"
	"powercable/internal/proto"
	"powercable/internal/topics"
)

// Agent runs a turbine's message loop against a Bus: it tracks its
// precomputed output as a per-tick remaining-power budget and sells it off
// by accepting buy-offers from its book, cheapest first, until the budget
// runs out — matching original_source/turbine/src/handler/handle_tick.rs.
type Agent struct {
	t      *Turbine
	bus    *bus.Bus
	logger *log.Logger

	book           *offerbook.Book
	remainingPower float64
}

// NewAgent constructs an Agent for t.
func NewAgent(t *Turbine, b *bus.Bus, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{t: t, bus: b, logger: logger, book: offerbook.New()}
}

// Run consumes bus messages until stop is closed.
func (a *Agent) Run(stop <-chan struct{}) {
	tickCh, cancelTick := a.bus.Subscribe(topics.Tick)
	defer cancelTick()
	buyCh, cancelBuy := a.bus.Subscribe(topics.BuyOffer)
	defer cancelBuy()
	ackCh, cancelAck := a.bus.Subscribe(topics.AckAcceptBuyOffer)
	defer cancelAck()

	for {
		select {
		case <-stop:
			return
		case msg := <-tickCh:
			a.handleTick(msg.Payload)
		case msg := <-buyCh:
			a.handleBuyOffer(msg.Payload)
		case msg := <-ackCh:
			a.handleAck(msg.Payload)
		}
	}
}

func (a *Agent) handleBuyOffer(payload []byte) {
	o, err := proto.DecodeOffer(payload)
	if err != nil {
		a.logger.Printf("turbine %s: malformed buy offer: %v", a.t.Name(), err)
		return
	}
	a.book.AddOffer(o)
}

func (a *Agent) handleTick(payload []byte) {
	var tp model.TickPayload
	if err := json.Unmarshal(payload, &tp); err != nil {
		a.logger.Printf("turbine %s: malformed tick payload: %v", a.t.Name(), err)
		return
	}
	switch tp.Phase {
	case model.PhaseProcess:
		a.remainingPower = a.t.PowerAt(tp.Tick)
	case model.PhaseCommerce:
		a.sell()
	}
}

// sell accepts the cheapest non-sent buy-offers in the book until
// remaining power is spent, publishing an accept for each.
func (a *Agent) sell() {
	if a.remainingPower <= 0 {
		return
	}
	for _, offer := range a.book.AcceptBest(a.remainingPower, a.t.Name()) {
		a.remainingPower -= offer.AmountKW
		a.bus.Publish(topics.AcceptBuyOffer, bus.AtLeastOnce, false, proto.EncodeOffer(offer))
	}
}

// handleAck resolves a buyer's ack against this turbine's own accepted
// offers: a loss restores the offer's amount to remaining power and the
// turbine immediately retries the accept loop against whatever else is
// outstanding, matching the turbine-vs-reactor race spec.md §8.3 requires.
func (a *Agent) handleAck(payload []byte) {
	ack, err := proto.DecodeOffer(payload)
	if err != nil {
		a.logger.Printf("turbine %s: malformed ack: %v", a.t.Name(), err)
		return
	}
	reclaimed, _, ok := a.book.ResolveAck(ack, a.t.Name())
	if !ok {
		return
	}
	if reclaimed > 0 {
		a.remainingPower += reclaimed
		a.sell()
	}
}
