// Package audit delivers rollover carry events to external sinks.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/tinoosan/budget/internal/ledger"
)

// Sink receives carry events produced by a rollover.
type Sink interface {
	Publish(ctx context.Context, events []ledger.CarryEvent) error
}

// Message is the wire form of a carry event.
type Message struct {
	Kind         string    `json:"kind"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	Currency     string    `json:"currency"`
	Budget       string    `json:"budget"`
	Spent        string    `json:"spent"`
	Amount       string    `json:"amount"`
	CarryBefore  string    `json:"carry_before"`
	CarryAfter   string    `json:"carry_after"`
	At           time.Time `json:"at"`
}

// NewMessage converts an event to its wire form. Amounts are decimal strings.
func NewMessage(ev ledger.CarryEvent) Message {
	return Message{
		Kind:         string(ev.Kind),
		CategoryID:   ev.CategoryID.String(),
		CategoryName: ev.CategoryName,
		From:         ev.From.String(),
		To:           ev.To.String(),
		Currency:     ev.Budget.Curr().Code(),
		Budget:       ev.Budget.Decimal().String(),
		Spent:        ev.Spent.Decimal().String(),
		Amount:       ev.Amount.Decimal().String(),
		CarryBefore:  ev.CarryBefore.Decimal().String(),
		CarryAfter:   ev.CarryAfter.Decimal().String(),
		At:           ev.At.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Logger writes each event as a structured log line.
type Logger struct {
	Log *slog.Logger
}

func (l Logger) Publish(ctx context.Context, events []ledger.CarryEvent) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	for _, ev := range events {
		m := NewMessage(ev)
		log.InfoContext(ctx, "carry event",
			"kind", m.Kind,
			"category_id", m.CategoryID,
			"category", m.CategoryName,
			"from", m.From,
			"to", m.To,
			"amount", m.Amount,
			"carry_after", m.CarryAfter,
		)
	}
	return nil
}

// Multi fans events out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, events []ledger.CarryEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Counter is called once per published event; the HTTP layer uses it to feed
// a Prometheus counter.
type Counter func(kind string)

// Counting wraps a sink and reports each event to count before delegating.
func Counting(next Sink, count Counter) Sink {
	return countingSink{next: next, count: count}
}

type countingSink struct {
	next  Sink
	count Counter
}

func (c countingSink) Publish(ctx context.Context, events []ledger.CarryEvent) error {
	for _, ev := range events {
		c.count(string(ev.Kind))
	}
	if c.next == nil {
		return nil
	}
	return c.next.Publish(ctx, events)
}
