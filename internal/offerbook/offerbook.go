// Package offerbook implements the producer-side wholesale offer ledger
// spec.md §3 describes and the vehicle-side retail offer-ranking
// algorithms of §4.3.3. The ledger is a single two-map type reused
// identically by buyers (charger, consumer, tracking offers they posted)
// and sellers (turbine, fusion reactor, tracking offers they received),
// matching original_source/powercable/src/offer/offer_handler.rs, which
// the Rust reference shares across both sides of the auction the same way.
package offerbook

import (
	"math/rand"
	"sort"

	"powercable/internal/model"
)

// OfferPackageSizeKW is the fixed wholesale package size spec.md's glossary
// and §3 Offer definition both name: every buy-offer is exactly this many
// kWh, and a producer never accepts below it without exhausting its book.
const OfferPackageSizeKW = 25.0

// Book is the producer-side offer ledger: two id-keyed maps, one for
// offers currently outstanding and one for ids already committed to an
// accept or ack. It is not safe for concurrent use; each agent owns one.
type Book struct {
	outstanding map[string]model.Offer
	sent        map[string]model.Offer
}

// New returns an empty Book.
func New() *Book {
	return &Book{outstanding: make(map[string]model.Offer), sent: make(map[string]model.Offer)}
}

// AddOffer records o as outstanding, overwriting any prior offer under the
// same id (a buyer reusing an id across ticks refreshes it this way).
func (b *Book) AddOffer(o model.Offer) {
	b.outstanding[o.ID] = o
}

// RemoveOffer drops id from the outstanding set.
func (b *Book) RemoveOffer(id string) {
	delete(b.outstanding, id)
}

// GetOffer looks up an outstanding offer by id.
func (b *Book) GetOffer(id string) (model.Offer, bool) {
	o, ok := b.outstanding[id]
	return o, ok
}

// HasOffers reports whether any offer is outstanding.
func (b *Book) HasOffers() bool {
	return len(b.outstanding) > 0
}

// GetBestNonSent returns the lowest-price offer among outstanding that has
// not already been recorded in sent, ties broken by id for determinism.
// Matches original_source's get_best_non_sent_offer exactly (min price,
// not max): the protocol serves the cheapest outstanding bid first.
func (b *Book) GetBestNonSent() (model.Offer, bool) {
	var best model.Offer
	found := false
	for id, o := range b.outstanding {
		if _, isSent := b.sent[id]; isSent {
			continue
		}
		if !found || o.Price < best.Price || (o.Price == best.Price && id < best.ID) {
			best = o
			found = true
		}
	}
	return best, found
}

// HasSentOffer reports whether id has already been committed to an accept
// or ack.
func (b *Book) HasSentOffer(id string) bool {
	_, ok := b.sent[id]
	return ok
}

// AddSentOffer records o as committed.
func (b *Book) AddSentOffer(o model.Offer) {
	b.sent[o.ID] = o
}

// GetSentOffer looks up a committed offer by id.
func (b *Book) GetSentOffer(id string) (model.Offer, bool) {
	o, ok := b.sent[id]
	return o, ok
}

// RemoveSentOffer drops id from the sent set, letting a future offer under
// the same id be freshly committed once more.
func (b *Book) RemoveSentOffer(id string) {
	delete(b.sent, id)
}

// ClearAll empties both maps, matching original_source's
// remove_all_offers call at the start of every buyer Process phase.
func (b *Book) ClearAll() {
	b.outstanding = make(map[string]model.Offer)
	b.sent = make(map[string]model.Offer)
}

// AcceptBest runs a seller's Commerce-phase accept loop: while remaining
// power exceeds one package and a non-sent offer is outstanding, it claims
// the cheapest one for seller, records it in sent, and adds it to the
// returned batch. Matches the turbine's trading behaviour in spec.md §4.5.
func (b *Book) AcceptBest(remainingPowerKW float64, seller string) []model.Offer {
	var accepted []model.Offer
	remaining := remainingPowerKW
	for remaining > OfferPackageSizeKW {
		offer, ok := b.GetBestNonSent()
		if !ok {
			break
		}
		offer.AcceptedBy = seller
		b.AddSentOffer(offer)
		accepted = append(accepted, offer)
		remaining -= offer.AmountKW
	}
	return accepted
}

// AcceptAll claims every outstanding non-sent offer for seller
// unconditionally, matching the fusion reactor's guaranteed-availability
// draining in spec.md §4.6 (no remaining-power rationing, unlike
// AcceptBest).
func (b *Book) AcceptAll(seller string) []model.Offer {
	var accepted []model.Offer
	for {
		offer, ok := b.GetBestNonSent()
		if !ok {
			break
		}
		offer.AcceptedBy = seller
		b.AddSentOffer(offer)
		accepted = append(accepted, offer)
	}
	return accepted
}

// ResolveAck settles a market/ack_accept_buy_offer broadcast against this
// seller's own sent offers. ok is false if this seller never sent (never
// accepted) this id — the ack belongs to somebody else's auction entirely.
// won is true if ack.AckFor names this seller; reclaimedKW is the amount to
// add back to remaining_power when a competitor won instead.
func (b *Book) ResolveAck(ack model.Offer, seller string) (reclaimedKW float64, won bool, ok bool) {
	sent, had := b.GetSentOffer(ack.ID)
	if !had {
		return 0, false, false
	}
	b.RemoveSentOffer(ack.ID)
	b.RemoveOffer(ack.ID)
	if ack.AckFor != seller {
		return sent.AmountKW, false, true
	}
	return 0, true, true
}

// Algorithm names one of a vehicle's four offer-ranking strategies.
type Algorithm string

const (
	Best     Algorithm = "best"
	Random   Algorithm = "random"
	Closest  Algorithm = "closest"
	Cheapest Algorithm = "cheapest"
)

// Select picks one ChargeOffer from offers according to algorithm, from the
// perspective of a vehicle currently at from with freeCapacityKWh left to
// fill, consumptionPer100km its driving cost, and rangeKm how far it can
// currently travel. Offers beyond rangeKm are discarded before ranking
// (spec.md §4.3.3). rng is required only for Random; pass nil otherwise.
// Returns false if no offer is within range.
func Select(algorithm Algorithm, from model.Position, freeCapacityKWh, consumptionPer100km, rangeKm float64, offers []model.ChargeOffer, rng *rand.Rand) (model.ChargeOffer, bool) {
	reachable := make([]model.ChargeOffer, 0, len(offers))
	for _, o := range offers {
		if from.DistanceTo(o.Position) <= rangeKm {
			reachable = append(reachable, o)
		}
	}
	if len(reachable) == 0 {
		return model.ChargeOffer{}, false
	}

	switch algorithm {
	case Random:
		return reachable[rng.Intn(len(reachable))], true

	case Closest:
		sort.SliceStable(reachable, func(i, j int) bool {
			di := from.DistanceTo(reachable[i].Position)
			dj := from.DistanceTo(reachable[j].Position)
			if di != dj {
				return di < dj
			}
			return reachable[i].Charger < reachable[j].Charger
		})
		return reachable[0], true

	case Cheapest:
		sort.SliceStable(reachable, func(i, j int) bool {
			if reachable[i].Price != reachable[j].Price {
				return reachable[i].Price < reachable[j].Price
			}
			return reachable[i].Charger < reachable[j].Charger
		})
		return reachable[0], true

	default: // Best
		sort.SliceStable(reachable, func(i, j int) bool {
			ci := reachable[i].Price * reachable[i].AmountKW
			cj := reachable[j].Price * reachable[j].AmountKW
			if ci != cj {
				return ci < cj
			}
			return reachable[i].Charger < reachable[j].Charger
		})
		for _, o := range reachable {
			energyForWay := from.DistanceTo(o.Position) * consumptionPer100km / 100
			needed := freeCapacityKWh + energyForWay
			if o.AmountKW >= needed {
				return o, true
			}
		}
		return reachable[0], true
	}
}
