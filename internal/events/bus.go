// Package events provides the process-wide domain event bus and the Redis
// Streams relay that feeds external payment-rail events into it.
package events

import "sync"

// Type identifies a kind of domain event on the bus.
type Type string

// Handler receives every published event of the subscribed type.
type Handler func(payload any)

// Bus is a process-wide publish/subscribe registry keyed by event type.
// Subscriptions are bound at service start and torn down at service stop.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type][]Handler
	closed bool
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Type][]Handler)}
}

// Subscribe registers a handler for the given event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.subs[t] = append(b.subs[t], h)
}

// Publish delivers the payload to every handler subscribed to the type.
// Handlers run synchronously on the publisher's goroutine; they are expected
// to hand work off (e.g. enqueue onto a processor) rather than block.
func (b *Bus) Publish(t Type, payload any) {
	b.mu.RLock()
	handlers := b.subs[t]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}

// Close drops all subscriptions; further publishes deliver nothing.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.subs = make(map[Type][]Handler)
}
