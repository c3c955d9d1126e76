// Package migration converts legacy persisted shapes into the current schema
// exactly once. Decoding is fail-soft: malformed records are coerced to safe
// defaults and logged, never returned as errors. Only storage failures are
// reported to the caller.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/govalues/money"

	"github.com/tinoosan/budget/internal/ledger"
	"github.com/tinoosan/budget/internal/schema"
)

// Legacy keys recognised by the migration.
const (
	KeyTransactions      = "transactions"
	KeyIncomes           = "incomes"
	KeyExpenses          = "expenses"
	KeyIncomeNames       = "incomeNames"
	KeyIncomeAmounts     = "incomeAmounts"
	KeyExpenseNames      = "expenseNames"
	KeyExpenseAmounts    = "expenseAmounts"
	KeyExpenseCategories = "expenseCategories"
	KeyCategories        = "categories"
	KeyBudgets           = "budgets"
	KeySavingsGoal       = "savingsGoal"
	KeyLastMonth         = "lastMonth"
)

// LegacyKeys lists every legacy key in read order.
var LegacyKeys = []string{
	KeyCategories, KeyBudgets,
	KeyTransactions, KeyIncomes, KeyExpenses,
	KeyIncomeNames, KeyIncomeAmounts,
	KeyExpenseNames, KeyExpenseAmounts, KeyExpenseCategories,
	KeySavingsGoal, KeyLastMonth,
}

// FallbackCategoryName names the category synthesized for expenses whose
// category cannot be resolved, and for books left without any category.
const FallbackCategoryName = "Uncategorized"

// Options configure a migration run.
type Options struct {
	Currency money.Currency
	IDs      ledger.IDGenerator
	Now      ledger.Clock
	Logger   *slog.Logger
	// Seed is applied when the legacy data holds no categories. Nil selects
	// DefaultSeed; an empty non-nil slice disables seeding.
	Seed []SeedCategory
	// ReassignDuplicateExpenses moves expenses that reference a dropped
	// duplicate category onto the kept one instead of dropping them.
	ReassignDuplicateExpenses bool
}

// Report summarises what a run did.
type Report struct {
	// Skipped is true when the current schema was already present.
	Skipped bool

	// LegacyKeys are the legacy keys found (and deleted).
	LegacyKeys []string

	Coerced            int
	DroppedCategories  int
	DroppedExpenses    int
	ReassignedExpenses int
	Seeded             bool
}

// Run migrates kv to the current schema unless the schema marker is already
// present. The returned state is what was written.
func Run(ctx context.Context, kv schema.KV, opts Options) (schema.State, Report, error) {
	present, err := schema.Present(ctx, kv)
	if err != nil {
		return schema.State{}, Report{}, fmt.Errorf("check schema marker: %w", err)
	}
	if present {
		return schema.State{}, Report{Skipped: true}, nil
	}

	raw := make(map[string][]byte, len(LegacyKeys))
	var found []string
	for _, k := range LegacyKeys {
		b, ok, err := kv.Load(ctx, k)
		if err != nil {
			return schema.State{}, Report{}, fmt.Errorf("load legacy %s: %w", k, err)
		}
		if ok {
			raw[k] = b
			found = append(found, k)
		}
	}

	st, rep := Convert(raw, opts)
	rep.LegacyKeys = found

	if err := schema.SaveAll(ctx, kv, st); err != nil {
		return schema.State{}, Report{}, err
	}
	for _, k := range found {
		if err := kv.Delete(ctx, k); err != nil {
			return schema.State{}, Report{}, fmt.Errorf("delete legacy %s: %w", k, err)
		}
	}
	opts.logger().Info("migration complete",
		"legacy_keys", found,
		"incomes", len(st.Incomes),
		"expenses", len(st.Expenses),
		"categories", len(st.Categories),
		"coerced", rep.Coerced,
		"dropped_categories", rep.DroppedCategories,
		"dropped_expenses", rep.DroppedExpenses,
	)
	return st, rep, nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now()
}

func (o Options) ids() ledger.IDGenerator {
	if o.IDs == nil {
		return ledger.UUIDs{}
	}
	return o.IDs
}
