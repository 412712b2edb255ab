// Package live is the client-facing view of a conversation: an ordered
// subscription over the message log plus the dwell-and-mark-seen loop.
package live

import (
	"context"
	"sync"

	"reelchat/internal/domain/chat"
	"reelchat/internal/events"
	"reelchat/internal/repository"
	"reelchat/pkg/logger"
)

// Feed turns the message log plus the event bus into restartable live
// subscriptions: a fresh subscription replays the full current state, then
// delivers a fresh full snapshot after every change.
type Feed struct {
	messages repository.MessageRepository
	bus      events.Bus
	log      *logger.Logger
}

func NewFeed(messages repository.MessageRepository, bus events.Bus, log *logger.Logger) *Feed {
	return &Feed{messages: messages, bus: bus, log: log}
}

// Subscription is one live view over a conversation's ordered log. Updates
// carries full snapshots, ascending by createdAt. Close releases the bus
// registration; without it the callback leaks for the process lifetime.
type Subscription struct {
	updates     chan []chat.Message
	unsubscribe func()

	mu     sync.Mutex
	closed bool
}

// Updates is the snapshot channel. It closes after Close.
func (s *Subscription) Updates() <-chan []chat.Message {
	return s.updates
}

// Close stops delivery and closes the Updates channel. Idempotent.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.unsubscribe()

	s.mu.Lock()
	close(s.updates)
	s.mu.Unlock()
}

// push delivers a snapshot, replacing any stale buffered one so a slow
// consumer always wakes up to the latest state.
func (s *Subscription) push(msgs []chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.updates <- msgs:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Subscribe opens a live subscription on the conversation. The first value
// on Updates is the full current log; each change event afterwards delivers
// a new full snapshot.
func (f *Feed) Subscribe(ctx context.Context, conversationID string) (*Subscription, error) {
	msgs, err := f.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{updates: make(chan []chat.Message, 1)}
	sub.updates <- msgs

	sub.unsubscribe = f.bus.Subscribe(events.ConversationChannel(conversationID), func(ctx context.Context, e events.Event) {
		fresh, err := f.messages.ListByConversation(ctx, conversationID)
		if err != nil {
			f.log.Warnf("snapshot reload for %s after %s: %v", conversationID, e.Type, err)
			return
		}
		sub.push(fresh)
	})

	return sub, nil
}
