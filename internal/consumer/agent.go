// agent.go wires a Consumer to the bus. A consumer is a pure wholesale
// buyer: every Process tick it determines its demand and posts buy-offers
// for it, then during Commerce/PowerImport it runs the same
// accept/ack book-ownership handshake a charger's wholesale side does,
// generalizing spec.md §4.4's buyer role to the grid's bulk demand.
package consumer

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"powercable/internal/bus"
	"powercable/internal/model"
	"powercable/internal/offerbook"
	"powercable/internal/proto"
	"powercable/internal/topics"
)

// Agent runs a consumer's message loop against a Bus.
type Agent struct {
	c      *Consumer
	bus    *bus.Bus
	logger *log.Logger

	book          *offerbook.Book
	pendingDemand float64
	tick          uint64
}

// NewAgent constructs an Agent for c.
func NewAgent(c *Consumer, b *bus.Bus, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{c: c, bus: b, logger: logger, book: offerbook.New()}
}

// Run consumes bus messages until stop is closed.
func (a *Agent) Run(stop <-chan struct{}) {
	tickCh, cancelTick := a.bus.Subscribe(topics.Tick)
	defer cancelTick()
	acceptCh, cancelAccept := a.bus.Subscribe(topics.AcceptBuyOffer)
	defer cancelAccept()

	for {
		select {
		case <-stop:
			return
		case msg := <-tickCh:
			a.handleTick(msg.Payload)
		case msg := <-acceptCh:
			a.handleAcceptBuyOffer(msg.Payload)
		}
	}
}

func (a *Agent) handleTick(payload []byte) {
	var tp model.TickPayload
	if err := json.Unmarshal(payload, &tp); err != nil {
		a.logger.Printf("consumer %s: malformed tick payload: %v", a.c.Name(), err)
		return
	}
	a.tick = tp.Tick

	switch tp.Phase {
	case model.PhaseProcess:
		a.pendingDemand = a.c.DemandAt(tp.Tick, time.Now(), IsDaylight)
		a.postBuyOffers()
	}
}

// postBuyOffers replaces the consumer's outstanding bids with a fresh set
// sized to cover this tick's demand, one fixed-size package at a time,
// capped at 100 packages per tick.
func (a *Agent) postBuyOffers() {
	a.book.ClearAll()
	if a.pendingDemand <= 0 {
		return
	}
	n := int(a.pendingDemand/offerbook.OfferPackageSizeKW) + 1
	if n > 100 {
		n = 100
	}
	for i := 0; i < n; i++ {
		offer := model.Offer{
			ID:       fmt.Sprintf("%s-%d-%d", a.c.Name(), a.tick, i),
			Price:    ClampPrice,
			AmountKW: offerbook.OfferPackageSizeKW,
			Position: a.c.Position(),
		}
		a.book.AddOffer(offer)
		a.bus.Publish(topics.BuyOffer, bus.AtLeastOnce, false, proto.EncodeOffer(offer))
	}
}

// ClampPrice is the fixed price consumers are willing to pay, resolved
// from spec.md's Open Question on consumer buy-price: high enough to
// always clear against any producer's floor price.
const ClampPrice = 1.0

// handleAcceptBuyOffer settles a producer's claim on one of this
// consumer's own bids, same book-ownership check a charger applies.
func (a *Agent) handleAcceptBuyOffer(payload []byte) {
	accept, err := proto.DecodeOffer(payload)
	if err != nil {
		a.logger.Printf("consumer %s: malformed accept: %v", a.c.Name(), err)
		return
	}
	offer, ok := a.book.GetOffer(accept.ID)
	if !ok {
		return
	}
	a.book.RemoveOffer(accept.ID)
	offer.AckFor = accept.AcceptedBy
	a.bus.Publish(topics.AckAcceptBuyOffer, bus.AtLeastOnce, false, proto.EncodeOffer(offer))
}
