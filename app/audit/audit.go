// Package audit records an append-only trail of what happened to each order.
//
// Entries go to a Sink. The Mongo sink batches writes in the background so
// recording never blocks checkout; the memory sink keeps a bounded ring for
// single-process deployments and tests.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry is one audited fact about an order.
type Entry struct {
	OrderID uint      `bson:"order_id"       json:"orderId"`
	Action  string    `bson:"action"         json:"action"`
	From    string    `bson:"from,omitempty" json:"from,omitempty"`
	To      string    `bson:"to"             json:"to"`
	Amount  int64     `bson:"amount"         json:"amount"`
	Email   string    `bson:"email,omitempty" json:"email,omitempty"`
	At      time.Time `bson:"at"             json:"at"`
}

const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
)

// Sink accepts entries. Record must not block for long.
type Sink interface {
	Record(ctx context.Context, e Entry)
	// Trail returns an order's entries oldest first.
	Trail(ctx context.Context, orderID uint) ([]Entry, error)
	Close(ctx context.Context) error
}

// ─── Memory sink ─────────────────────────────────────────────────────────────

// Memory keeps the most recent entries in process.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

// NewMemory keeps at most max entries; older ones are discarded first.
func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 1000
	}
	return &Memory{max: max}
}

func (m *Memory) Record(_ context.Context, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.max; over > 0 {
		m.entries = append([]Entry(nil), m.entries[over:]...)
	}
}

func (m *Memory) Trail(_ context.Context, orderID uint) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Entry{}
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (m *Memory) Close(context.Context) error { return nil }
