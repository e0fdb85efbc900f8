package offerbook

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powercable/internal/model"
)

func chargeOffers() []model.ChargeOffer {
	return []model.ChargeOffer{
		{Charger: "c-far-cheap", Position: model.Position{Latitude: 52.6, Longitude: 13.5}, Price: 0.3, AmountKW: 25},
		{Charger: "c-near-expensive", Position: model.Position{Latitude: 52.52, Longitude: 13.41}, Price: 0.9, AmountKW: 25},
		{Charger: "c-near-cheap", Position: model.Position{Latitude: 52.521, Longitude: 13.406}, Price: 0.35, AmountKW: 25},
	}
}

const bigRange = 1000.0

func TestSelectClosestPicksNearestByDistance(t *testing.T) {
	from := model.Position{Latitude: 52.52, Longitude: 13.405}
	offer, ok := Select(Closest, from, 10, 15, bigRange, chargeOffers(), nil)
	assert.True(t, ok)
	assert.Equal(t, "c-near-cheap", offer.Charger)
}

func TestSelectCheapestPicksLowestPrice(t *testing.T) {
	from := model.Position{Latitude: 52.52, Longitude: 13.405}
	offer, ok := Select(Cheapest, from, 10, 15, bigRange, chargeOffers(), nil)
	assert.True(t, ok)
	assert.Equal(t, "c-far-cheap", offer.Charger)
}

func TestSelectBestPicksCheapestCostAbleToCoverNeed(t *testing.T) {
	// cost = price*amount is 7.5, 22.5 and 8.75; every offer here carries
	// enough amount to cover the need, so Best simply ranks by cost and
	// takes the cheapest (0.3*25=7.5).
	from := model.Position{Latitude: 52.52, Longitude: 13.405}
	offer, ok := Select(Best, from, 5, 15, bigRange, chargeOffers(), nil)
	assert.True(t, ok)
	assert.Equal(t, "c-far-cheap", offer.Charger)
}

func TestSelectBestSkipsOffersTooSmallForNeed(t *testing.T) {
	from := model.Position{Latitude: 52.52, Longitude: 13.405}
	offers := []model.ChargeOffer{
		{Charger: "small-cheap", Position: from, Price: 0.1, AmountKW: 2},
		{Charger: "big-enough", Position: from, Price: 0.5, AmountKW: 20},
	}
	offer, ok := Select(Best, from, 15, 10, bigRange, offers, nil)
	assert.True(t, ok)
	assert.Equal(t, "big-enough", offer.Charger)
}

func TestSelectRandomUsesProvidedRNG(t *testing.T) {
	from := model.Position{}
	rng := rand.New(rand.NewSource(1))
	offer, ok := Select(Random, from, 10, 15, bigRange, chargeOffers(), rng)
	assert.True(t, ok)
	assert.NotEmpty(t, offer.Charger)
}

func TestSelectEmptyOffersReturnsFalse(t *testing.T) {
	_, ok := Select(Best, model.Position{}, 10, 15, bigRange, nil, nil)
	assert.False(t, ok)
}

func TestSelectDiscardsOffersBeyondRange(t *testing.T) {
	from := model.Position{Latitude: 52.52, Longitude: 13.405}
	offer, ok := Select(Cheapest, from, 10, 15, 5, chargeOffers(), nil)
	require.True(t, ok)
	assert.NotEqual(t, "c-far-cheap", offer.Charger) // out of range despite being cheapest
}

func TestSelectAllOffersBeyondRangeReturnsFalse(t *testing.T) {
	from := model.Position{Latitude: 52.52, Longitude: 13.405}
	_, ok := Select(Best, from, 10, 15, 0.001, chargeOffers(), nil)
	assert.False(t, ok)
}

func TestBookAddAndGetBestNonSentPicksLowestPrice(t *testing.T) {
	b := New()
	b.AddOffer(model.Offer{ID: "a", Price: 0.5, AmountKW: 25})
	b.AddOffer(model.Offer{ID: "b", Price: 0.2, AmountKW: 25})
	b.AddOffer(model.Offer{ID: "c", Price: 0.8, AmountKW: 25})

	best, ok := b.GetBestNonSent()
	require.True(t, ok)
	assert.Equal(t, "b", best.ID)
}

func TestBookGetBestNonSentSkipsSent(t *testing.T) {
	b := New()
	b.AddOffer(model.Offer{ID: "a", Price: 0.5, AmountKW: 25})
	b.AddOffer(model.Offer{ID: "b", Price: 0.2, AmountKW: 25})
	b.AddSentOffer(model.Offer{ID: "b", Price: 0.2, AmountKW: 25})

	best, ok := b.GetBestNonSent()
	require.True(t, ok)
	assert.Equal(t, "a", best.ID)
}

func TestBookAcceptBestStopsAtOnePackageRemaining(t *testing.T) {
	b := New()
	b.AddOffer(model.Offer{ID: "a", Price: 0.2, AmountKW: OfferPackageSizeKW})
	b.AddOffer(model.Offer{ID: "b", Price: 0.3, AmountKW: OfferPackageSizeKW})

	accepted := b.AcceptBest(OfferPackageSizeKW*1.5, "turbine-1")
	require.Len(t, accepted, 1)
	assert.Equal(t, "a", accepted[0].ID)
	assert.Equal(t, "turbine-1", accepted[0].AcceptedBy)
	assert.True(t, b.HasSentOffer("a"))
}

func TestBookAcceptAllIgnoresRemainingPower(t *testing.T) {
	b := New()
	b.AddOffer(model.Offer{ID: "a", Price: 0.95, AmountKW: OfferPackageSizeKW})
	b.AddOffer(model.Offer{ID: "b", Price: 0.91, AmountKW: OfferPackageSizeKW})

	accepted := b.AcceptAll("fusion-1")
	assert.Len(t, accepted, 2)
}

func TestBookResolveAckRestoresOnLoss(t *testing.T) {
	b := New()
	offer := model.Offer{ID: "a", Price: 0.2, AmountKW: 25}
	b.AddOffer(offer)
	b.AddSentOffer(offer)

	ack := model.Offer{ID: "a", AckFor: "competitor-1"}
	reclaimed, won, ok := b.ResolveAck(ack, "turbine-1")
	require.True(t, ok)
	assert.False(t, won)
	assert.InDelta(t, 25.0, reclaimed, 1e-9)
	assert.False(t, b.HasSentOffer("a"))
}

func TestBookResolveAckConfirmsWin(t *testing.T) {
	b := New()
	offer := model.Offer{ID: "a", Price: 0.2, AmountKW: 25}
	b.AddOffer(offer)
	b.AddSentOffer(offer)

	ack := model.Offer{ID: "a", AckFor: "turbine-1"}
	reclaimed, won, ok := b.ResolveAck(ack, "turbine-1")
	require.True(t, ok)
	assert.True(t, won)
	assert.Equal(t, 0.0, reclaimed)
}

func TestBookResolveAckUnknownIDIsNoop(t *testing.T) {
	b := New()
	_, _, ok := b.ResolveAck(model.Offer{ID: "ghost"}, "turbine-1")
	assert.False(t, ok)
}

func TestBookClearAllEmptiesBothMaps(t *testing.T) {
	b := New()
	offer := model.Offer{ID: "a", Price: 0.2, AmountKW: 25}
	b.AddOffer(offer)
	b.AddSentOffer(offer)
	b.ClearAll()
	assert.False(t, b.HasOffers())
	assert.False(t, b.HasSentOffer("a"))
}
