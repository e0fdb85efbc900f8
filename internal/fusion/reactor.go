// Package fusion implements the fusion reactor producer agent: a
// guaranteed-available, floor-priced wholesale seller. Unlike the turbine
// it has no remaining-output cap to ration against — spec.md §4.6 treats
// fusion capacity as unconstrained, so the reactor simply drains every
// buy-offer that clears its floor price each tick.
package fusion

import (
	"encoding/json"
	"log"

	"powercable/internal/bus"
	"powercable/internal/model"
	"powercable/internal/offerbook"
	"powercable/internal/proto"
	"powercable/internal/topics"
)

// FloorPrice is the reactor's fixed marginal price per kWh; a buy-offer
// priced below this is never worth accepting.
const FloorPrice = 0.90

// Reactor is a floor-priced, unrationed wholesale producer.
type Reactor struct {
	name     string
	position model.Position
}

// New creates a Reactor at position.
func New(name string, position model.Position) *Reactor {
	return &Reactor{name: name, position: position}
}

// Name returns the reactor's identifier.
func (r *Reactor) Name() string { return r.name }

// Position returns the reactor's fixed location.
func (r *Reactor) Position() model.Position { return r.position }

// Agent runs a reactor's message loop against a Bus.
type Agent struct {
	r      *Reactor
	bus    *bus.Bus
	logger *log.Logger

	book *offerbook.Book
}

// NewAgent constructs an Agent for r.
func NewAgent(r *Reactor, b *bus.Bus, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{r: r, bus: b, logger: logger, book: offerbook.New()}
}

// Run drives the reactor's buy-offer intake and acceptance cycle until
// stop is closed.
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

// handleBuyOffer admits o into the book only if it clears the reactor's
// floor price; anything cheaper is never worth tracking.
func (a *Agent) handleBuyOffer(payload []byte) {
	o, err := proto.DecodeOffer(payload)
	if err != nil {
		a.logger.Printf("fusion %s: malformed buy offer: %v", a.r.Name(), err)
		return
	}
	if o.Price < FloorPrice {
		return
	}
	a.book.AddOffer(o)
}

func (a *Agent) handleTick(payload []byte) {
	var tp model.TickPayload
	if err := json.Unmarshal(payload, &tp); err != nil {
		a.logger.Printf("fusion %s: malformed tick payload: %v", a.r.Name(), err)
		return
	}
	if tp.Phase != model.PhasePowerImport {
		return
	}
	for _, offer := range a.book.AcceptAll(a.r.Name()) {
		a.bus.Publish(topics.AcceptBuyOffer, bus.AtLeastOnce, false, proto.EncodeOffer(offer))
	}
}

// handleAck resolves a buyer's ack against this reactor's own accepted
// offers. Fusion has no remaining-power budget to restore on loss, but it
// still must drop the offer from its own book either way.
func (a *Agent) handleAck(payload []byte) {
	ack, err := proto.DecodeOffer(payload)
	if err != nil {
		a.logger.Printf("fusion %s: malformed ack: %v", a.r.Name(), err)
		return
	}
	a.book.ResolveAck(ack, a.r.Name())
}
