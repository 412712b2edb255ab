package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"reelchat/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus over Redis Pub/Sub so live updates reach
// subscribers on every node, not just the one that handled the write.
type RedisBus struct {
	client   *redis.Client
	log      *logger.Logger
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
	pubsub   *redis.PubSub
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
}

func NewRedisBus(client *redis.Client, log *logger.Logger) *RedisBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBus{
		client:   client,
		log:      log,
		handlers: make(map[string]map[int]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (b *RedisBus) Start() error {
	b.mu.Lock()
	b.pubsub = b.client.PSubscribe(b.ctx, "channel:*")
	b.running = true
	b.mu.Unlock()
	go b.listen()
	return nil
}

func (b *RedisBus) Stop() error {
	b.cancel()
	b.mu.Lock()
	b.running = false
	pubsub := b.pubsub
	b.mu.Unlock()
	if pubsub != nil {
		return pubsub.Close()
	}
	return nil
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	running := b.running
	b.mu.RUnlock()
	if !running {
		return fmt.Errorf("event bus not started")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.client.Publish(ctx, e.Channel(), data).Err()
}

func (b *RedisBus) Subscribe(channel string, h Handler) func() {
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

func (b *RedisBus) listen() {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg := <-ch:
			if msg == nil {
				continue
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				if b.log != nil {
					b.log.Warnf("dropping malformed event on %s: %v", msg.Channel, err)
				}
				continue
			}
			b.dispatch(msg.Channel, e)
		}
	}
}

func (b *RedisBus) dispatch(channel string, e Event) {
	b.mu.RLock()
	subscribers := make([]Handler, 0, len(b.handlers[channel]))
	for _, h := range b.handlers[channel] {
		subscribers = append(subscribers, h)
	}
	b.mu.RUnlock()

	for _, h := range subscribers {
		go h(b.ctx, e)
	}
}
