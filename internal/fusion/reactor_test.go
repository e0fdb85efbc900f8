package fusion

import (
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powercable/internal/model"
	"powercable/internal/offerbook"
	"powercable/internal/proto"
)

// The floor check lives in Agent.handleBuyOffer; once an offer is in the
// book, AcceptAll claims it whatever its price.
func TestReactorBookAcceptAllDoesNotFilterByPrice(t *testing.T) {
	r := New("reactor-1", model.Position{})
	assert.Equal(t, "reactor-1", r.Name())

	b := offerbook.New()
	b.AddOffer(model.Offer{ID: "a", Price: FloorPrice, AmountKW: 25})
	b.AddOffer(model.Offer{ID: "b", Price: FloorPrice - 0.01, AmountKW: 25})

	accepted := b.AcceptAll(r.Name())
	require.Len(t, accepted, 2)
}

func TestAgentHandleBuyOfferRejectsBelowFloor(t *testing.T) {
	r := New("reactor-1", model.Position{})
	a := NewAgent(r, nil, log.New(testDiscard{}, "", 0))

	a.handleBuyOffer(proto.EncodeOffer(model.Offer{ID: "cheap", Price: FloorPrice - 0.1, AmountKW: 25}))
	a.handleBuyOffer(proto.EncodeOffer(model.Offer{ID: "pricey", Price: FloorPrice, AmountKW: 25}))

	_, cheapAdmitted := a.book.GetOffer("cheap")
	_, pricyAdmitted := a.book.GetOffer("pricey")
	assert.False(t, cheapAdmitted)
	assert.True(t, pricyAdmitted)
}

type testDiscard struct{}

func (testDiscard) Write(p []byte) (int, error) { return len(p), nil }
