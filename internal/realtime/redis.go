package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "dialaservice:changes:"

func channelFor(table string) string {
	return channelPrefix + table
}

// RedisBroker shares change events between API instances over Redis pub/sub.
// It keeps its open subscriptions so Close can end them.
type RedisBroker struct {
	rdb    *redis.Client
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]*Subscription
	closed bool
}

func NewRedisBroker(rdb *redis.Client, logger *slog.Logger) *RedisBroker {
	return &RedisBroker{
		rdb:    rdb,
		logger: logger,
		subs:   make(map[int]*Subscription),
	}
}

func (b *RedisBroker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *RedisBroker) Publish(ctx context.Context, ev ChangeEvent) error {
	if b.isClosed() {
		return ErrClosed
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if err := b.rdb.Publish(ctx, channelFor(ev.Table), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, filter Filter) (*Subscription, error) {
	if b.isClosed() {
		return nil, ErrClosed
	}
	pubsub := b.rdb.Subscribe(ctx, channelFor(filter.Table))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", filter.Table, err)
	}

	messages := pubsub.Channel()
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan ChangeEvent, subscriberBuffer)
	s := &Subscription{events: events}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		pubsub.Close()
		return nil, ErrClosed
	}
	id := b.nextID
	b.nextID++
	s.stop = func() {
		cancel()
		pubsub.Close()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
	b.subs[id] = s
	b.mu.Unlock()

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				s.Close()
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("Ignoring malformed change event", "channel", msg.Channel, "error", err)
					continue
				}
				if !filter.Matches(ev) {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					s.Close()
					return
				}
			}
		}
	}()
	return s, nil
}

// Close ends every open subscription. The Redis client is owned and closed by
// the caller.
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	open := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		open = append(open, s)
	}
	b.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
	return nil
}
