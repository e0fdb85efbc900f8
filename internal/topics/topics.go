// Package topics centralizes the bus topic strings used across agents, so
// every package names them the same way instead of re-deriving string
// literals independently. Names and directions follow spec.md §6's
// external-interface table verbatim.
package topics

const (
	// Tick publishes the retained TickPayload once per phase advance.
	Tick = "tickgen/tick"

	// BuyOffer carries a consumer/charger's binary-encoded wholesale bid.
	BuyOffer = "market/buy_offer"

	// AcceptBuyOffer carries a producer's binary-encoded claim on a bid
	// (AcceptedBy set).
	AcceptBuyOffer = "market/accept_buy_offer"

	// AckAcceptBuyOffer carries the buyer's binary-encoded confirmation of
	// whichever producer it actually credited (AckFor set).
	AckAcceptBuyOffer = "market/ack_accept_buy_offer"

	// ChargeRequest carries a vehicle's binary-encoded retail request.
	ChargeRequest = "charger/request"

	// ChargeOffer carries a charger's binary-encoded reply to a request.
	ChargeOffer = "charger/offer"

	// ChargeAccept carries a vehicle's binary-encoded acceptance.
	ChargeAccept = "charger/accept"

	// ChargingGet carries a vehicle's binary-encoded draw-down request
	// while plugged in.
	ChargingGet = "charger/charging/get"

	// ChargingAck carries a charger's binary-encoded reply naming how much
	// was actually delivered.
	ChargingAck = "charger/charging/ack"

	// ChargingRelease carries a vehicle's binary-encoded end-of-charging
	// notice.
	ChargingRelease = "charger/charging/release"

	// PowerLocation publishes JSON vehicle/producer position pings for the
	// UI map.
	PowerLocation = "power/location"

	// TransformerConsumption/TransformerGeneration/TransformerStats/
	// TransformerDiff are the aggregator's input and output topics.
	TransformerConsumption = "power/transformer/consumption"
	TransformerGeneration  = "power/transformer/generation"
	TransformerStats       = "power/transformer/stats"
	TransformerDiff        = "power/transformer/diff"
	TransformerPriceStats  = "power/transformer/stats/price"
	TransformerEarnings    = "power/transformer/stats/earnings"
)

// VehicleStateFor returns the per-vehicle topic a vehicle publishes its
// JSON state snapshot on.
func VehicleStateFor(name string) string { return "vehicle/" + name }
