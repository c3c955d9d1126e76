package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/rabbitmq/amqp091-go"

	"github.com/tinoosan/budget/internal/ledger"
)

type fakeChannel struct {
	declared  []string
	bound     string
	published []amqp091.Publishing
	keys      []string
	failBind  bool
	closed    bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.declared = append(f.declared, "exchange:"+name+":"+kind)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	f.declared = append(f.declared, "queue:"+name)
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error {
	if f.failBind {
		return errors.New("access refused")
	}
	f.bound = exchange + "->" + name + "@" + key
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { f.closed = true; return nil }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNew_DeclaresTopology(t *testing.T) {
	ch := &fakeChannel{}
	if _, err := New(ch, "budget", "budget.carry", quiet()); err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(ch.declared) != 2 || ch.declared[0] != "exchange:budget:direct" || ch.bound != "budget->budget.carry@budget.carry" {
		t.Fatalf("unexpected topology: %v bound=%s", ch.declared, ch.bound)
	}
}

func TestNew_SetupFailureClosesChannel(t *testing.T) {
	ch := &fakeChannel{failBind: true}
	if _, err := New(ch, "budget", "q", quiet()); err == nil || !ch.closed {
		t.Fatalf("expected setup error and closed channel, err=%v closed=%v", err, ch.closed)
	}
}

func TestPublish_PersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	p, err := New(ch, "budget", "budget.carry", quiet())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ev := ledger.CarryEvent{
		Kind:        ledger.CarryKindOverspent,
		CategoryID:  uuid.New(),
		From:        ledger.Period{Year: 2025, Month: time.January},
		To:          ledger.Period{Year: 2025, Month: time.February},
		Budget:      money.MustParseAmount("USD", "10"),
		Spent:       money.MustParseAmount("USD", "15"),
		Amount:      money.MustParseAmount("USD", "5"),
		CarryBefore: money.MustParseAmount("USD", "0"),
		CarryAfter:  money.MustParseAmount("USD", "0"),
	}
	if err := p.Publish(context.Background(), []ledger.CarryEvent{ev}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(ch.published) != 1 || ch.keys[0] != "budget.carry" {
		t.Fatalf("unexpected publishes: %d keys=%v", len(ch.published), ch.keys)
	}
	msg := ch.published[0]
	if msg.DeliveryMode != amqp091.Persistent || msg.ContentType != "application/json" || msg.Type != "overspent" {
		t.Fatalf("unexpected publishing: %+v", msg)
	}
	var body map[string]string
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["amount"] != ev.Amount.Decimal().String() || body["category_id"] != ev.CategoryID.String() {
		t.Fatalf("unexpected body: %v", body)
	}
}
