// Package transformer implements the grid-wide telemetry aggregator: it
// watches consumption/generation/market topics and republishes running
// sums and price statistics as ChartEntry series, generalizing the
// teacher's single-household Engine accumulator fields
// (gridImportWh/gridExportWh, broadcastSummary) to the whole simulated
// grid.
package transformer

import (
	"encoding/json"
	"log"
	"sync"

	"powercable/internal/bus"
	"powercable/internal/model"
	"powercable/internal/proto"
	"powercable/internal/topics"
)

// Aggregator accumulates running totals across the grid's consumption,
// generation and market-clearing activity.
type Aggregator struct {
	mu sync.Mutex

	totalConsumptionKWh float64
	totalGenerationKWh  float64
	tradeCount          int64
	priceSum            float64
	priceMin            float64
	priceMax            float64
	earningsByParty     map[string]float64
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{earningsByParty: make(map[string]float64)}
}

// RecordConsumption adds amountKWh to the running consumption total.
func (a *Aggregator) RecordConsumption(amountKWh float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalConsumptionKWh += amountKWh
}

// RecordGeneration adds amountKWh to the running generation total.
func (a *Aggregator) RecordGeneration(amountKWh float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalGenerationKWh += amountKWh
}

// RecordTrade folds one confirmed wholesale sale into the price and
// earnings statistics: seller is the producer named in the winning ack
// (market/ack_accept_buy_offer's AckFor), not merely whoever accepted —
// an accept with no matching ack never happened as far as the grid ledger
// is concerned.
func (a *Aggregator) RecordTrade(seller string, price, amountKW float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tradeCount == 0 || price < a.priceMin {
		a.priceMin = price
	}
	if a.tradeCount == 0 || price > a.priceMax {
		a.priceMax = price
	}
	a.priceSum += price
	a.tradeCount++
	a.earningsByParty[seller] += price * amountKW
}

// Diff returns generation minus consumption: positive means the grid is
// net-exporting, negative means it is drawing down reserves.
func (a *Aggregator) Diff() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalGenerationKWh - a.totalConsumptionKWh
}

// PriceStats returns the running mean, min and max cleared price.
func (a *Aggregator) PriceStats() (mean, min, max float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tradeCount == 0 {
		return 0, 0, 0
	}
	return a.priceSum / float64(a.tradeCount), a.priceMin, a.priceMax
}

// Earnings returns a snapshot of accumulated earnings per seller.
func (a *Aggregator) Earnings() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]float64, len(a.earningsByParty))
	for k, v := range a.earningsByParty {
		out[k] = v
	}
	return out
}

// Agent runs an Aggregator's message loop against a Bus, republishing
// updated stats after every tick.
type Agent struct {
	agg    *Aggregator
	bus    *bus.Bus
	logger *log.Logger
}

// NewAgent constructs an Agent wrapping agg.
func NewAgent(agg *Aggregator, b *bus.Bus, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{agg: agg, bus: b, logger: logger}
}

// Run consumes bus messages until stop is closed.
func (a *Agent) Run(stop <-chan struct{}) {
	tickCh, cancelTick := a.bus.Subscribe(topics.Tick)
	defer cancelTick()
	consumptionCh, cancelC := a.bus.Subscribe(topics.TransformerConsumption)
	defer cancelC()
	generationCh, cancelG := a.bus.Subscribe(topics.TransformerGeneration)
	defer cancelG()
	ackCh, cancelAck := a.bus.Subscribe(topics.AckAcceptBuyOffer)
	defer cancelAck()

	for {
		select {
		case <-stop:
			return
		case msg := <-tickCh:
			a.handleTick(msg.Payload)
		case msg := <-consumptionCh:
			a.agg.RecordConsumption(decodeFloatJSON(msg.Payload))
		case msg := <-generationCh:
			a.agg.RecordGeneration(decodeFloatJSON(msg.Payload))
		case msg := <-ackCh:
			if ack, err := proto.DecodeOffer(msg.Payload); err == nil && ack.AckFor != "" {
				a.agg.RecordTrade(ack.AckFor, ack.Price, ack.AmountKW)
			}
		}
	}
}

func decodeFloatJSON(payload []byte) float64 {
	var v float64
	_ = json.Unmarshal(payload, &v)
	return v
}

func (a *Agent) handleTick(payload []byte) {
	var tp model.TickPayload
	if err := json.Unmarshal(payload, &tp); err != nil {
		a.logger.Printf("transformer: malformed tick payload: %v", err)
		return
	}
	if tp.Phase != model.PhasePowerImport {
		return
	}

	diffEntry := model.ChartEntry{Timestamp: int64(tp.Tick), Series: "diff", Value: a.agg.Diff()}
	if payload, err := json.Marshal(diffEntry); err == nil {
		a.bus.Publish(topics.TransformerDiff, bus.AtMostOnce, true, payload)
	}

	mean, min, max := a.agg.PriceStats()
	priceEntry := struct {
		Timestamp int64   `json:"timestamp"`
		Mean      float64 `json:"mean"`
		Min       float64 `json:"min"`
		Max       float64 `json:"max"`
	}{int64(tp.Tick), mean, min, max}
	if payload, err := json.Marshal(priceEntry); err == nil {
		a.bus.Publish(topics.TransformerPriceStats, bus.AtMostOnce, true, payload)
	}

	if payload, err := json.Marshal(a.agg.Earnings()); err == nil {
		a.bus.Publish(topics.TransformerEarnings, bus.AtMostOnce, true, payload)
	}
}
