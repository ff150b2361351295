// Package poll delivers board records to subscribers exactly once, in
// chronological order, by polling the board's full log against a local
// seen-id set. A push source wakes the poller for an immediate cycle
// rather than delivering records itself, so watching never weakens the
// delivery contract.
package poll

import (
	"log"
	"sync"

	"github.com/parlorgames/parlor/internal/id"
	"github.com/parlorgames/parlor/internal/message"
)

// Handler consumes one decoded record.
type Handler func(message.Decoded)

// Bus fans records out to registered subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string]Handler)}
}

// Subscribe registers a handler and returns its subscription id.
func (b *Bus) Subscribe(h Handler) (string, error) {
	subID, err := id.NewID()
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	b.subscribers[subID] = h
	b.mu.Unlock()
	return subID, nil
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (b *Bus) Unsubscribe(subID string) {
	b.mu.Lock()
	delete(b.subscribers, subID)
	b.mu.Unlock()
}

// Publish delivers one record to every current subscriber. A panicking
// subscriber is logged and skipped; it never blocks delivery to others.
func (b *Bus) Publish(dec message.Decoded) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		deliver(h, dec)
	}
}

func deliver(h Handler, dec message.Decoded) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus subscriber panicked on record %s: %v", dec.ID, r)
		}
	}()
	h(dec)
}
