// Package bus implements the in-process publish/subscribe message router
// every PowerCable agent communicates over. It generalizes the teacher's
// websocket Hub/Client broadcast registry (one group, one connection type)
// into a topic-keyed router with retained messages, QoS levels and
// message-id deduplication, giving the same delivery contract spec.md
// describes for an external MQTT broker without requiring one.
package bus

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// QoS mirrors the MQTT quality-of-service levels spec.md's topic table
// assigns per topic.
type QoS int

const (
	AtMostOnce QoS = iota
	AtLeastOnce
	ExactlyOnce
)

// Message is a single delivered bus message.
type Message struct {
	ID       string
	Topic    string
	QoS      QoS
	Retained bool
	Payload  []byte
}

// Dedup is the interface a bus dedup-ring backing store must satisfy.
// The default implementation is in-memory; RedisDedup (dedup_redis.go)
// backs it with a shared cache so dedup survives an agent restart.
type Dedup interface {
	// SeenRecently records id for subscriber sub and reports whether it
	// had already been recorded (and should therefore be suppressed).
	SeenRecently(sub string, id string) bool
}

type memoryDedup struct {
	mu   sync.Mutex
	seen map[string]map[string]struct{}
	cap  int
}

func newMemoryDedup(capacity int) *memoryDedup {
	return &memoryDedup{seen: make(map[string]map[string]struct{}), cap: capacity}
}

func (m *memoryDedup) SeenRecently(sub, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, ok := m.seen[sub]
	if !ok {
		ids = make(map[string]struct{})
		m.seen[sub] = ids
	}
	if _, ok := ids[id]; ok {
		return true
	}
	if len(ids) >= m.cap {
		// Bounded ring: drop the whole set rather than track insertion
		// order for a single evicted entry. Dedup windows are short-lived
		// by design (spec.md's guarantee is "at least once", not exactly
		// one forever).
		ids = make(map[string]struct{})
		m.seen[sub] = ids
	}
	ids[id] = struct{}{}
	return false
}

type subscriber struct {
	id string
	ch chan Message
}

type topicState struct {
	subs     []*subscriber
	retained *Message
}

// Bus is a topic-addressed publish/subscribe router.
type Bus struct {
	mu     sync.RWMutex
	topics map[string]*topicState
	dedup  Dedup
	logger *log.Logger
}

// New creates a Bus with an in-memory dedup ring of the given per-subscriber
// capacity. Call SetDedup with a RedisDedup (NewRedisDedup) to back it
// externally.
func New(logger *log.Logger, dedupCapacity int) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	if dedupCapacity <= 0 {
		dedupCapacity = 1024
	}
	return &Bus{
		topics: make(map[string]*topicState),
		dedup:  newMemoryDedup(dedupCapacity),
		logger: logger,
	}
}

// SetDedup swaps in an external dedup backing store (see RedisDedup).
func (b *Bus) SetDedup(d Dedup) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dedup = d
}

func (b *Bus) stateFor(topic string) *topicState {
	st, ok := b.topics[topic]
	if !ok {
		st = &topicState{}
		b.topics[topic] = st
	}
	return st
}

// Publish sends payload to every current subscriber of topic, assigning it
// a fresh message ID. If retained is true the message is replayed to any
// subscriber that joins topic afterwards, mirroring spec.md's retained
// tick/offer-book snapshots.
func (b *Bus) Publish(topic string, qos QoS, retained bool, payload []byte) Message {
	msg := Message{ID: uuid.NewString(), Topic: topic, QoS: qos, Retained: retained, Payload: payload}

	b.mu.Lock()
	st := b.stateFor(topic)
	if retained {
		m := msg
		st.retained = &m
	}
	subs := make([]*subscriber, len(st.subs))
	copy(subs, st.subs)
	dedup := b.dedup
	b.mu.Unlock()

	for _, s := range subs {
		if qos == ExactlyOnce && dedup != nil && dedup.SeenRecently(s.id, msg.ID) {
			continue
		}
		select {
		case s.ch <- msg:
		default:
			b.logger.Printf("bus: dropping message on topic %q for subscriber %s: channel full", topic, s.id)
		}
	}
	return msg
}

// Subscribe registers for topic and returns a channel of deliveries plus a
// cancel func that unregisters it. If a retained message exists for topic
// it is delivered immediately on the returned channel.
func (b *Bus) Subscribe(topic string) (<-chan Message, func()) {
	sub := &subscriber{id: uuid.NewString(), ch: make(chan Message, 64)}

	b.mu.Lock()
	st := b.stateFor(topic)
	st.subs = append(st.subs, sub)
	retained := st.retained
	b.mu.Unlock()

	if retained != nil {
		select {
		case sub.ch <- *retained:
		default:
		}
	}

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		st := b.topics[topic]
		if st == nil {
			return
		}
		for i, s := range st.subs {
			if s == sub {
				st.subs = append(st.subs[:i], st.subs[i+1:]...)
				close(sub.ch)
				break
			}
		}
	}
	return sub.ch, cancel
}

// SubscriberCount reports how many active subscribers a topic has. Chiefly
// useful in tests.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st, ok := b.topics[topic]
	if !ok {
		return 0
	}
	return len(st.subs)
}
