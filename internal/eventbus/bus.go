package eventbus

import (
	"sync"
	"sync/atomic"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"github.com/google/uuid"
)

const defaultBuffer = 4

// Event is one emitted payload.
type Event struct {
	Topic   string
	Payload any
}

// Subscription receives events for a single topic on C. Events that arrive
// while C is full are dropped for this subscriber only.
type Subscription struct {
	ID    string
	Topic string
	C     <-chan Event

	ch      chan Event
	bus     *Bus
	dropped atomic.Uint64
}

// Dropped returns how many events this subscriber missed.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.remove(s)
}

// Bus is a fire-and-forget broadcaster. Emit never waits on a subscriber.
type Bus struct {
	mu       sync.RWMutex
	topics   map[string]map[string]*Subscription
	buffer   int
	closed   bool
	dropHook func(topic string)
}

type Option func(*Bus)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithDropHook is called whenever a delivery to a full subscriber is dropped.
func WithDropHook(fn func(topic string)) Option {
	return func(b *Bus) {
		b.dropHook = fn
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{
		topics: make(map[string]map[string]*Subscription),
		buffer: defaultBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Subscribe registers a listener for topic. On a closed bus the returned
// subscription's channel is already closed.
func (b *Bus) Subscribe(topic string) *Subscription {
	ch := make(chan Event, b.buffer)
	sub := &Subscription{
		ID:    uuid.NewString(),
		Topic: topic,
		C:     ch,
		ch:    ch,
		bus:   b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return sub
	}

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[string]*Subscription)
		b.topics[topic] = subs
	}
	subs[sub.ID] = sub

	return sub
}

// Emit delivers payload to every current subscriber of topic without
// blocking. It reports ErrNoSubscribers when nobody is listening and
// ErrBusClosed after Close; either way the event is simply lost.
func (b *Bus) Emit(topic string, payload any) error {
	errFactory := errors.New()

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errFactory.New(ErrBusClosed)
	}

	subs := b.topics[topic]
	if len(subs) == 0 {
		return errFactory.WithData(ErrNoSubscribers, topic)
	}

	event := Event{Topic: topic, Payload: payload}
	for _, sub := range subs {
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
			if b.dropHook != nil {
				b.dropHook(topic)
			}
		}
	}

	return nil
}

// Subscribers returns the number of listeners on topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.topics[topic])
}

// Close closes every subscription. Later emits fail with ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for topic, subs := range b.topics {
		for id, sub := range subs {
			close(sub.ch)
			delete(subs, id)
		}
		delete(b.topics, topic)
	}
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[sub.Topic]
	if !ok {
		return
	}
	if _, ok := subs[sub.ID]; !ok {
		return
	}

	delete(subs, sub.ID)
	close(sub.ch)
	if len(subs) == 0 {
		delete(b.topics, sub.Topic)
	}
}
