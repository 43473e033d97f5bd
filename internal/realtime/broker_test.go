package realtime

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type row struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`
	Status     string `json:"status"`
}

func TestFilterMatches(t *testing.T) {
	ev, err := NewChangeEvent("jobs", Update, row{ID: "1", ProviderID: "p1", Status: "accepted"})
	if err != nil {
		t.Fatalf("NewChangeEvent: %v", err)
	}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"table only", Filter{Table: "jobs"}, true},
		{"other table", Filter{Table: "providers"}, false},
		{"column match", Filter{Table: "jobs", Column: "provider_id", Value: "p1"}, true},
		{"column mismatch", Filter{Table: "jobs", Column: "provider_id", Value: "p2"}, false},
		{"missing column", Filter{Table: "jobs", Column: "customer_id", Value: "p1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(ev); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemoryBrokerDeliversMatchingEvents(t *testing.T) {
	b := NewMemoryBroker(testLogger())
	defer b.Close()

	ctx := context.Background()
	sub, err := b.Subscribe(ctx, Filter{Table: "jobs", Column: "provider_id", Value: "p1"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	Emit(ctx, b, testLogger(), "jobs", Update, row{ID: "other", ProviderID: "p2"})
	Emit(ctx, b, testLogger(), "jobs", Update, row{ID: "mine", ProviderID: "p1"})

	select {
	case ev := <-sub.Events():
		if ev.Record["id"] != "mine" {
			t.Errorf("got event for %v, want mine", ev.Record["id"])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected extra event %v", ev)
	default:
	}
}

func TestMemoryBrokerUnsubscribeOnContextCancel(t *testing.T) {
	b := NewMemoryBroker(testLogger())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := b.Subscribe(ctx, Filter{Table: "providers"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed after cancel")
	}
}

func TestMemoryBrokerClosed(t *testing.T) {
	b := NewMemoryBroker(testLogger())
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := b.Subscribe(context.Background(), Filter{Table: "jobs"}); err != ErrClosed {
		t.Errorf("Subscribe after close = %v, want ErrClosed", err)
	}
	if err := b.Publish(context.Background(), ChangeEvent{Table: "jobs"}); err != ErrClosed {
		t.Errorf("Publish after close = %v, want ErrClosed", err)
	}
}

func TestChannelFor(t *testing.T) {
	if got := channelFor("jobs"); got != "dialaservice:changes:jobs" {
		t.Errorf("channelFor() = %q", got)
	}
}

func newRedisBroker(t *testing.T) *RedisBroker {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisBroker(rdb, testLogger())
}

func TestRedisBrokerDeliversMatchingEvents(t *testing.T) {
	b := newRedisBroker(t)
	defer b.Close()

	ctx := context.Background()
	sub, err := b.Subscribe(ctx, Filter{Table: "jobs", Column: "provider_id", Value: "p1"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	Emit(ctx, b, testLogger(), "jobs", Update, row{ID: "other", ProviderID: "p2"})
	Emit(ctx, b, testLogger(), "jobs", Update, row{ID: "mine", ProviderID: "p1"})

	select {
	case ev := <-sub.Events():
		if ev.Record["id"] != "mine" {
			t.Errorf("got event for %v, want mine", ev.Record["id"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestRedisBrokerCloseEndsSubscriptions(t *testing.T) {
	b := newRedisBroker(t)

	subs := make([]*Subscription, 0, 2)
	for _, table := range []string{"jobs", "providers"} {
		sub, err := b.Subscribe(context.Background(), Filter{Table: table})
		if err != nil {
			t.Fatalf("Subscribe %s: %v", table, err)
		}
		subs = append(subs, sub)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for i, sub := range subs {
		select {
		case _, ok := <-sub.Events():
			if ok {
				t.Fatalf("subscription %d delivered after close", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscription %d still open after Close", i)
		}
	}

	if _, err := b.Subscribe(context.Background(), Filter{Table: "jobs"}); err != ErrClosed {
		t.Errorf("Subscribe after close = %v, want ErrClosed", err)
	}
	if err := b.Publish(context.Background(), ChangeEvent{Table: "jobs"}); err != ErrClosed {
		t.Errorf("Publish after close = %v, want ErrClosed", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
