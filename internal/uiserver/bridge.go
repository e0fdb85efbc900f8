package uiserver

import (
	"encoding/json"

	"powercable/internal/bus"
	"powercable/internal/topics"
)

// Envelope wraps a bus topic and payload for the browser, matching the
// teacher's ws.Envelope{Type, Payload} JSON wrapping convention.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Bridge relays a fixed set of JSON-friendly bus topics to every connected
// UI client. Binary market/retail topics are deliberately not bridged: the
// map only needs positions, ticks and aggregate stats.
type Bridge struct {
	hub *Hub
	bus *bus.Bus
}

// NewBridge wires hub to receive updates from bus.
func NewBridge(hub *Hub, b *bus.Bus) *Bridge {
	return &Bridge{hub: hub, bus: b}
}

var bridgedTopics = []string{
	topics.Tick,
	topics.PowerLocation,
	topics.TransformerStats,
	topics.TransformerDiff,
	topics.TransformerPriceStats,
	topics.TransformerEarnings,
}

// Run subscribes to every bridged topic and forwards messages to the hub
// until stop is closed.
func (b *Bridge) Run(stop <-chan struct{}) {
	type sub struct {
		topic  string
		ch     <-chan bus.Message
		cancel func()
	}
	subs := make([]sub, 0, len(bridgedTopics))
	for _, t := range bridgedTopics {
		ch, cancel := b.bus.Subscribe(t)
		subs = append(subs, sub{topic: t, ch: ch, cancel: cancel})
	}
	defer func() {
		for _, s := range subs {
			s.cancel()
		}
	}()

	cases := make(chan struct {
		topic   string
		payload []byte
	}, 256)

	for _, s := range subs {
		go func(s sub) {
			for {
				select {
				case <-stop:
					return
				case msg, ok := <-s.ch:
					if !ok {
						return
					}
					select {
					case cases <- struct {
						topic   string
						payload []byte
					}{s.topic, msg.Payload}:
					case <-stop:
						return
					}
				}
			}
		}(s)
	}

	for {
		select {
		case <-stop:
			return
		case item := <-cases:
			env := Envelope{Topic: item.topic, Payload: item.payload}
			if payload, err := json.Marshal(env); err == nil {
				b.hub.Broadcast(payload)
			}
		}
	}
}
