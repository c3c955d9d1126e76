package budget

import (
    "context"
    "fmt"

    "github.com/google/uuid"
    "github.com/govalues/money"

    "github.com/tinoosan/budget/internal/ledger"
    "github.com/tinoosan/budget/internal/schema"
)

// EnsureRollover compares the current period with the last processed one and
// runs the transition once when it advanced. A book that never recorded a
// period records the current one without carrying anything. When several
// months were skipped only the last recorded period is rolled into the
// current one.
func (b *Book) EnsureRollover(ctx context.Context) ([]ledger.CarryEvent, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    current := ledger.PeriodOf(b.now())
    switch {
    case b.last.IsZero():
        b.last = current
        b.log.Info("rollover period initialised", "period", current.String())
        return nil, b.flush(ctx, schema.KeyLastRollover)
    case b.last == current:
        return nil, nil
    case current.Before(b.last):
        b.log.Warn("clock is behind last processed period; rollover skipped", "last", b.last.String(), "current", current.String())
        return nil, nil
    }
    return b.rollover(ctx, b.last, current)
}

// Rollover applies the transition from -> to. It only acts when from is the
// last processed period, so repeating a transition is a no-op.
func (b *Book) Rollover(ctx context.Context, from, to ledger.Period) ([]ledger.CarryEvent, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.last != from || !from.Before(to) {
        b.log.Debug("rollover not applicable", "from", from.String(), "to", to.String(), "last", b.last.String())
        return nil, nil
    }
    return b.rollover(ctx, from, to)
}

func (b *Book) rollover(ctx context.Context, from, to ledger.Period) ([]ledger.CarryEvent, error) {
    expenses := b.entries.ExpensesInPeriod(from)
    totals, err := b.engine.TotalsForPeriod(b.entries.IncomesInPeriod(from), expenses, from)
    if err != nil { return nil, err }

    // compute everything before mutating so a failure leaves carry untouched
    at := b.now()
    carries := make(map[uuid.UUID]money.Amount)
    var events []ledger.CarryEvent
    for _, c := range b.cats.List() {
        spent, err := b.engine.CategorySpend(c, expenses, from)
        if err != nil { return nil, err }
        carry, ev, err := b.engine.Rollover(c, from, to, totals.Income, spent)
        if err != nil { return nil, fmt.Errorf("rollover %s: %w", c.Name, err) }
        carries[c.ID] = carry
        if ev != nil {
            ev.At = at
            events = append(events, *ev)
        }
    }
    for id, carry := range carries {
        if err := b.cats.ApplyCarry(id, carry); err != nil { return nil, err }
    }
    b.last = to

    b.log.Info("rollover applied", "from", from.String(), "to", to.String(), "events", len(events))
    if err := b.flush(ctx, schema.KeyCategories, schema.KeyLastRollover); err != nil { return events, err }
    if b.audit != nil && len(events) > 0 {
        if err := b.audit.Publish(ctx, events); err != nil {
            b.log.Warn("audit publish failed", "events", len(events), "err", err)
        }
    }
    return events, nil
}
