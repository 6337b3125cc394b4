// Package bus is a small topic based publish/subscribe hub.
//
// Publishing never blocks: every subscription owns an unbounded mailbox and a
// one-slot ready channel. Consumers select on Ready and then Drain the mailbox.
package bus

import (
	"sync"

	"github.com/aretw0/vemulator/pkg/domain"
)

// Topic names a stream of events.
type Topic string

const (
	// TopicFieldUpdate carries display value changes.
	TopicFieldUpdate Topic = "field.update"
	// TopicHexUpdate carries hex wire value changes.
	TopicHexUpdate Topic = "hex.update"
	// TopicOverwrite is published when a field's scenario queue is replaced.
	TopicOverwrite Topic = "field.overwrite"
)

// Event is a single notification. Value/Old are set for field updates, Hex/OldHex
// for hex updates. Overwrite events only carry the key.
type Event struct {
	Topic  Topic
	Key    domain.FieldKey
	Value  domain.Value
	Old    domain.Value
	Hex    string
	OldHex string
}

// Changed reports whether the event moved the value.
func (e Event) Changed() bool {
	if e.Topic == TopicHexUpdate {
		return e.Hex != e.OldHex
	}
	return !e.Value.Equal(e.Old) || e.Value.Kind() != e.Old.Kind()
}

// Bus fans events out to subscriptions by topic.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]*Subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]*Subscription)}
}

// Subscribe registers interest in one or more topics.
func (b *Bus) Subscribe(topics ...Topic) *Subscription {
	s := &Subscription{
		bus:    b,
		topics: topics,
		ready:  make(chan struct{}, 1),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range topics {
		b.subs[t] = append(b.subs[t], s)
	}
	return s
}

// Publish delivers e to every subscription on e.Topic.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := b.subs[e.Topic]
	b.mu.RUnlock()
	for _, s := range subs {
		s.push(e)
	}
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range s.topics {
		list := b.subs[t]
		for i, x := range list {
			if x == s {
				b.subs[t] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Subscription is a mailbox fed by the bus.
type Subscription struct {
	bus    *Bus
	topics []Topic
	ready  chan struct{}

	mu      sync.Mutex
	pending []Event
	closed  bool
}

func (s *Subscription) push(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, e)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Ready signals that at least one event is waiting.
func (s *Subscription) Ready() <-chan struct{} { return s.ready }

// Drain returns and clears every pending event in publish order.
func (s *Subscription) Drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// Close detaches the subscription. Pending events are discarded.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.pending = nil
	s.mu.Unlock()
	s.bus.remove(s)
}
