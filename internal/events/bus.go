// Package events provides the in-process notification bus the orchestrator
// uses to tell unrelated views about voucher and pricebook changes. The bus
// is an injected value with explicit subscription lifecycle, not a
// process-wide singleton.
package events

import (
	"sort"
	"sync"
)

// Topics published by the back office.
const (
	TopicVoucherIssued    = "voucher.issued"
	TopicVoucherDeleted   = "voucher.deleted"
	TopicPricebookChanged = "pricebook.changed"
)

// Event is a published notification
type Event struct {
	Topic   string
	Payload interface{}
}

// Handler receives published events
type Handler func(Event)

// Bus is a synchronous topic-based publish/subscribe hub. Handlers run on
// the publisher's goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns an unsubscribe
// function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish delivers the event to every current subscriber of the topic.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	ids := make([]int, 0, len(b.subs[topic]))
	for id := range b.subs[topic] {
		ids = append(ids, id)
	}
	// map iteration order is random; deliver in subscription order
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, b.subs[topic][id])
	}
	b.mu.RUnlock()

	ev := Event{Topic: topic, Payload: payload}
	for _, h := range handlers {
		h(ev)
	}
}
