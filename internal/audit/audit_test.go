package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/budget/internal/ledger"
)

type stubSink struct {
	got int
	err error
}

func (s *stubSink) Publish(_ context.Context, evs []ledger.CarryEvent) error {
	s.got += len(evs)
	return s.err
}

func sampleEvent() ledger.CarryEvent {
	usd := func(s string) money.Amount { return money.MustParseAmount("USD", s) }
	return ledger.CarryEvent{
		Kind:         ledger.CarryKindCarried,
		CategoryID:   uuid.New(),
		CategoryName: "Fun",
		From:         ledger.Period{Year: 2025, Month: time.January},
		To:           ledger.Period{Year: 2025, Month: time.February},
		Budget:       usd("100"),
		Spent:        usd("40"),
		Amount:       usd("60"),
		CarryBefore:  usd("0"),
		CarryAfter:   usd("60"),
		At:           time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMessageJSON(t *testing.T) {
	b, err := NewMessage(sampleEvent()).ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["kind"] != "carried" || m["from"] != "2025-01" || m["to"] != "2025-02" || m["currency"] != "USD" {
		t.Fatalf("unexpected message: %s", b)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	ok, bad := &stubSink{}, &stubSink{err: errors.New("boom")}
	err := Multi{ok, nil, bad}.Publish(context.Background(), []ledger.CarryEvent{sampleEvent()})
	if err == nil || ok.got != 1 || bad.got != 1 {
		t.Fatalf("expected fan-out with error, got err=%v ok=%d bad=%d", err, ok.got, bad.got)
	}
}

func TestCountingSink(t *testing.T) {
	kinds := map[string]int{}
	next := &stubSink{}
	s := Counting(next, func(k string) { kinds[k]++ })
	if err := s.Publish(context.Background(), []ledger.CarryEvent{sampleEvent(), sampleEvent()}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if kinds["carried"] != 2 || next.got != 2 {
		t.Fatalf("unexpected counts: %v next=%d", kinds, next.got)
	}
}
