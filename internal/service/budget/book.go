// Package budget owns the single in-memory budget book: entries, categories,
// the savings goal and the last processed rollover period. Every command runs
// under one mutex and flushes the keys it touched to the persistence adapter.
package budget

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "sync"
    "time"

    "github.com/govalues/decimal"
    "github.com/govalues/money"

    "github.com/tinoosan/budget/internal/errs"
    "github.com/tinoosan/budget/internal/ledger"
    "github.com/tinoosan/budget/internal/migration"
    "github.com/tinoosan/budget/internal/schema"
    "github.com/tinoosan/budget/internal/service/category"
    "github.com/tinoosan/budget/internal/service/entry"
)

// Auditor receives rollover events after they are applied and persisted.
type Auditor interface {
    Publish(ctx context.Context, events []ledger.CarryEvent) error
}

// Options configure Open.
type Options struct {
    Currency money.Currency
    Policy   ledger.CarryPolicy
    IDs      ledger.IDGenerator
    Clock    ledger.Clock
    Logger   *slog.Logger
    Audit    Auditor
    // Seed and ReassignDuplicateExpenses are passed to the migration.
    Seed                      []migration.SeedCategory
    ReassignDuplicateExpenses bool
    // DeferPeriodCheck skips EnsureRollover in Open; the caller runs it.
    DeferPeriodCheck          bool
}

// Book is the state container and command surface.
type Book struct {
    mu      sync.Mutex
    kv      schema.KV
    engine  ledger.Engine
    entries *entry.Store
    cats    *category.Registry
    goal    *ledger.SavingsGoal
    last    ledger.Period
    now     ledger.Clock
    log     *slog.Logger
    audit   Auditor
}

// Open migrates kv if needed, loads the book and runs the period check.
func Open(ctx context.Context, kv schema.KV, opts Options) (*Book, error) {
    if opts.IDs == nil { opts.IDs = ledger.UUIDs{} }
    if opts.Clock == nil { opts.Clock = ledger.SystemClock(time.UTC) }
    if opts.Logger == nil { opts.Logger = slog.Default() }
    b := &Book{
        kv:     kv,
        engine: ledger.NewEngine(opts.Currency, opts.Policy),
        now:    opts.Clock,
        log:    opts.Logger,
        audit:  opts.Audit,
    }
    b.cats = category.New(opts.Currency, opts.IDs, opts.Clock)
    b.entries = entry.New(opts.Currency, opts.IDs, opts.Clock, b.cats)
    b.cats.SetCascader(b.entries)

    st, rep, err := migration.Run(ctx, kv, migration.Options{
        Currency:                  opts.Currency,
        IDs:                       opts.IDs,
        Now:                       opts.Clock,
        Logger:                    opts.Logger,
        Seed:                      opts.Seed,
        ReassignDuplicateExpenses: opts.ReassignDuplicateExpenses,
    })
    if err != nil { return nil, errs.Storage(fmt.Errorf("migrate: %w", err)) }
    if rep.Skipped {
        if st, err = schema.Load(ctx, kv, opts.Currency); err != nil { return nil, errs.Storage(err) }
    }
    b.restore(st)

    if opts.DeferPeriodCheck { return b, nil }
    // a failed period check leaves the book usable; the next check retries
    if _, err := b.EnsureRollover(ctx); err != nil {
        b.log.Error("period check failed", "last", b.last.String(), "err", err)
    }
    return b, nil
}

// restore installs persisted state, moving timestamps into the clock's location
// so period bucketing follows the configured time zone.
func (b *Book) restore(st schema.State) {
    loc := b.now().Location()
    for i := range st.Incomes { st.Incomes[i].OccurredAt = st.Incomes[i].OccurredAt.In(loc) }
    for i := range st.Expenses { st.Expenses[i].OccurredAt = st.Expenses[i].OccurredAt.In(loc) }
    for i := range st.Categories { st.Categories[i].CreatedAt = st.Categories[i].CreatedAt.In(loc) }
    b.cats.Restore(st.Categories)
    b.entries.Restore(st.Incomes, st.Expenses)
    b.goal = st.Goal
    b.last = st.LastRollover
}

func (b *Book) state() schema.State {
    return schema.State{
        Incomes:      b.entries.Incomes(),
        Expenses:     b.entries.Expenses(),
        Categories:   b.cats.List(),
        Goal:         b.goal,
        LastRollover: b.last,
    }
}

// flush persists keys. The in-memory mutation stands when it fails.
func (b *Book) flush(ctx context.Context, keys ...string) error {
    if err := schema.Save(ctx, b.kv, b.state(), keys...); err != nil {
        b.log.Error("flush failed", "keys", keys, "err", err)
        return errs.Storage(err)
    }
    return nil
}

func (b *Book) amount(field string, d decimal.Decimal) (money.Amount, error) {
    a, err := b.engine.Amount(d)
    if err != nil { return money.Amount{}, errs.Invalid(field, err.Error()) }
    return a, nil
}

// Currency is the book currency.
func (b *Book) Currency() money.Currency { return b.engine.Currency }

// CurrentPeriod is the period containing the clock's now.
func (b *Book) CurrentPeriod() ledger.Period { return ledger.PeriodOf(b.now()) }

// LastRollover is the last processed period.
func (b *Book) LastRollover() ledger.Period {
    b.mu.Lock()
    defer b.mu.Unlock()
    return b.last
}

// Snapshot returns a copy of the book state.
func (b *Book) Snapshot() ledger.Snapshot {
    b.mu.Lock()
    defer b.mu.Unlock()
    return b.snapshot()
}

func (b *Book) snapshot() ledger.Snapshot {
    var goal *ledger.SavingsGoal
    if b.goal != nil { g := *b.goal; goal = &g }
    return ledger.Snapshot{Incomes: b.entries.Incomes(), Expenses: b.entries.Expenses(), Categories: b.cats.List(), Goal: goal}
}

// IsStorage reports whether err is a persistence failure, in which case the
// returned value of a command still reflects the applied in-memory change.
func IsStorage(err error) bool { return errors.Is(err, errs.ErrStorage) }
