package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrClosed = errors.New("broker closed")

// MemoryBroker delivers events inside one process. Used when no Redis is
// configured.
type MemoryBroker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*memorySub
	closed bool
	logger *slog.Logger
}

type memorySub struct {
	filter Filter
	events chan ChangeEvent
}

func NewMemoryBroker(logger *slog.Logger) *MemoryBroker {
	return &MemoryBroker{
		subs:   make(map[int]*memorySub),
		logger: logger,
	}
}

// Publish never blocks on a slow subscriber; the event is dropped for that
// subscriber instead.
func (b *MemoryBroker) Publish(ctx context.Context, ev ChangeEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for id, sub := range b.subs {
		if !sub.filter.Matches(ev) {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			b.logger.Warn("Dropping realtime event for slow subscriber",
				"subscriber", id,
				"table", ev.Table,
			)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, filter Filter) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	id := b.nextID
	b.nextID++
	sub := &memorySub{filter: filter, events: make(chan ChangeEvent, subscriberBuffer)}
	b.subs[id] = sub

	s := &Subscription{events: sub.events}
	s.stop = func() { b.remove(id) }

	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return s, nil
}

func (b *MemoryBroker) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.events)
	}
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.events)
	}
	return nil
}
