// Package realtime fans row change events out to dashboard subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Change types, named the way Postgres replication reports them.
const (
	Insert = "INSERT"
	Update = "UPDATE"
	Delete = "DELETE"
)

const subscriberBuffer = 16

type ChangeEvent struct {
	Table  string                 `json:"table"`
	Type   string                 `json:"type"`
	Record map[string]interface{} `json:"record"`
	At     time.Time              `json:"at"`
}

// NewChangeEvent flattens row into the event record through its JSON form so
// filters can match on wire column names.
func NewChangeEvent(table, changeType string, row interface{}) (ChangeEvent, error) {
	ev := ChangeEvent{Table: table, Type: changeType, At: time.Now().UTC()}
	raw, err := json.Marshal(row)
	if err != nil {
		return ev, fmt.Errorf("failed to encode %s row: %w", table, err)
	}
	if err := json.Unmarshal(raw, &ev.Record); err != nil {
		return ev, fmt.Errorf("failed to flatten %s row: %w", table, err)
	}
	return ev, nil
}

// Filter selects events on one table, optionally narrowed to rows whose
// Column equals Value.
type Filter struct {
	Table  string
	Column string
	Value  string
}

func (f Filter) Matches(ev ChangeEvent) bool {
	if ev.Table != f.Table {
		return false
	}
	if f.Column == "" {
		return true
	}
	v, ok := ev.Record[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}

type Broker interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	Subscribe(ctx context.Context, filter Filter) (*Subscription, error)
	Close() error
}

// Subscription delivers matching events until Close is called or the
// subscribing context ends.
type Subscription struct {
	events chan ChangeEvent
	once   sync.Once
	stop   func()
}

func (s *Subscription) Events() <-chan ChangeEvent {
	return s.events
}

func (s *Subscription) Close() {
	s.once.Do(s.stop)
}

// Emit publishes row as a change on table. A nil broker is ignored and
// failures are only logged.
func Emit(ctx context.Context, b Broker, logger *slog.Logger, table, changeType string, row interface{}) {
	if b == nil {
		return
	}
	ev, err := NewChangeEvent(table, changeType, row)
	if err == nil {
		err = b.Publish(ctx, ev)
	}
	if err != nil {
		logger.Warn("Failed to publish change event", "table", table, "type", changeType, "error", err)
	}
}
