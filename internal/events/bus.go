package events

import (
	"context"
	"sync"
)

// Handler receives events published on a subscribed channel.
type Handler func(ctx context.Context, e Event)

// Bus is the subscribe-for-changes primitive: publish an event to a channel,
// deliver it to every handler currently subscribed to that channel. The
// returned unsubscribe func stops further delivery to that handler.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(channel string, h Handler) (unsubscribe func())
}

// MemoryBus is the in-process Bus used in tests and single-node deployments.
// Delivery is synchronous in the publisher's goroutine, so a publish returns
// only after every subscriber has observed the event.
type MemoryBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string]map[int]Handler)}
}

func (b *MemoryBus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	subscribers := make([]Handler, 0, len(b.handlers[e.Channel()]))
	for _, h := range b.handlers[e.Channel()] {
		subscribers = append(subscribers, h)
	}
	b.mu.RUnlock()

	for _, h := range subscribers {
		h(ctx, e)
	}
	return nil
}

func (b *MemoryBus) Subscribe(channel string, h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.handlers[channel] == nil {
		b.handlers[channel] = make(map[int]Handler)
	}
	b.handlers[channel][id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.handlers[channel]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.handlers, channel)
			}
		}
	}
}
