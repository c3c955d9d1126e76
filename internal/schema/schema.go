// Package schema defines the persisted key-value layout of a budget book and
// the JSON records stored under each key.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/budget/internal/ledger"
)

// KV is the persistence adapter contract: atomic per-key get/set/delete.
// Load reports found=false for absent keys.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Current schema keys.
const (
	KeyMarker       = "budget.schema"
	KeyIncomes      = "budget.incomes"
	KeyExpenses     = "budget.expenses"
	KeyCategories   = "budget.categories"
	KeyGoal         = "budget.goal"
	KeyLastRollover = "budget.last_rollover"

	// Version is the value stored under KeyMarker.
	Version = "2"
)

// DataKeys are the keys holding book state, in flush order.
var DataKeys = []string{KeyCategories, KeyIncomes, KeyExpenses, KeyGoal, KeyLastRollover}

type IncomeRecord struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type ExpenseRecord struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount"`
	CategoryID  string    `json:"category_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type CategoryRecord struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AllocationType  string    `json:"allocation_type"`
	AllocationValue string    `json:"allocation_value"`
	CarryForward    string    `json:"carry_forward"`
	CreatedAt       time.Time `json:"created_at"`
}

type GoalRecord struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// State is the complete persisted book.
type State struct {
	Incomes      []ledger.IncomeEntry
	Expenses     []ledger.ExpenseEntry
	Categories   []ledger.Category
	Goal         *ledger.SavingsGoal
	LastRollover ledger.Period
}

// Encode renders the value stored under key for st.
func Encode(key string, st State) ([]byte, error) {
	switch key {
	case KeyMarker:
		return json.Marshal(Version)
	case KeyIncomes:
		recs := make([]IncomeRecord, 0, len(st.Incomes))
		for _, in := range st.Incomes {
			recs = append(recs, IncomeRecord{ID: in.ID.String(), Description: in.Description, Amount: in.Amount.Decimal().String(), OccurredAt: in.OccurredAt.UTC()})
		}
		return json.Marshal(recs)
	case KeyExpenses:
		recs := make([]ExpenseRecord, 0, len(st.Expenses))
		for _, ex := range st.Expenses {
			recs = append(recs, ExpenseRecord{ID: ex.ID.String(), Description: ex.Description, Amount: ex.Amount.Decimal().String(), CategoryID: ex.CategoryID.String(), OccurredAt: ex.OccurredAt.UTC()})
		}
		return json.Marshal(recs)
	case KeyCategories:
		recs := make([]CategoryRecord, 0, len(st.Categories))
		for _, c := range st.Categories {
			recs = append(recs, CategoryRecord{
				ID:              c.ID.String(),
				Name:            c.Name,
				AllocationType:  string(c.AllocationType),
				AllocationValue: c.AllocationValue.String(),
				CarryForward:    c.CarryForward.Decimal().String(),
				CreatedAt:       c.CreatedAt.UTC(),
			})
		}
		return json.Marshal(recs)
	case KeyGoal:
		if st.Goal == nil {
			return []byte("null"), nil
		}
		return json.Marshal(GoalRecord{Type: string(st.Goal.Type), Value: st.Goal.Value.String()})
	case KeyLastRollover:
		return json.Marshal(st.LastRollover.String())
	default:
		return nil, fmt.Errorf("schema: unknown key %q", key)
	}
}

// Save writes the given keys of st. The marker is written last so a partially
// written store is not mistaken for a complete one.
func Save(ctx context.Context, kv KV, st State, keys ...string) error {
	for _, k := range keys {
		b, err := Encode(k, st)
		if err != nil {
			return err
		}
		if err := kv.Save(ctx, k, b); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return nil
}

// SaveAll writes every data key followed by the schema marker.
func SaveAll(ctx context.Context, kv KV, st State) error {
	return Save(ctx, kv, st, append(append([]string(nil), DataKeys...), KeyMarker)...)
}

// Present reports whether the current schema marker exists.
func Present(ctx context.Context, kv KV) (bool, error) {
	_, ok, err := kv.Load(ctx, KeyMarker)
	return ok, err
}

// Load reads the current schema. Missing data keys decode as empty.
func Load(ctx context.Context, kv KV, curr money.Currency) (State, error) {
	var st State
	load := func(key string, dst any) error {
		b, ok, err := kv.Load(ctx, key)
		if err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
		if !ok || len(b) == 0 {
			return nil
		}
		if err := json.Unmarshal(b, dst); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return nil
	}

	var cats []CategoryRecord
	if err := load(KeyCategories, &cats); err != nil {
		return State{}, err
	}
	for _, r := range cats {
		c, err := r.toCategory(curr)
		if err != nil {
			return State{}, fmt.Errorf("decode %s: %w", KeyCategories, err)
		}
		st.Categories = append(st.Categories, c)
	}

	var ins []IncomeRecord
	if err := load(KeyIncomes, &ins); err != nil {
		return State{}, err
	}
	for _, r := range ins {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return State{}, fmt.Errorf("decode %s: %w", KeyIncomes, err)
		}
		amt, err := money.ParseAmount(curr.Code(), r.Amount)
		if err != nil {
			return State{}, fmt.Errorf("decode %s %s: %w", KeyIncomes, r.ID, err)
		}
		st.Incomes = append(st.Incomes, ledger.IncomeEntry{ID: id, Description: r.Description, Amount: amt, OccurredAt: r.OccurredAt})
	}

	var exs []ExpenseRecord
	if err := load(KeyExpenses, &exs); err != nil {
		return State{}, err
	}
	for _, r := range exs {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return State{}, fmt.Errorf("decode %s: %w", KeyExpenses, err)
		}
		cid, err := uuid.Parse(r.CategoryID)
		if err != nil {
			return State{}, fmt.Errorf("decode %s %s: %w", KeyExpenses, r.ID, err)
		}
		amt, err := money.ParseAmount(curr.Code(), r.Amount)
		if err != nil {
			return State{}, fmt.Errorf("decode %s %s: %w", KeyExpenses, r.ID, err)
		}
		st.Expenses = append(st.Expenses, ledger.ExpenseEntry{ID: id, Description: r.Description, Amount: amt, CategoryID: cid, OccurredAt: r.OccurredAt})
	}

	var goal *GoalRecord
	if err := load(KeyGoal, &goal); err != nil {
		return State{}, err
	}
	if goal != nil {
		v, err := decimal.Parse(goal.Value)
		if err != nil {
			return State{}, fmt.Errorf("decode %s: %w", KeyGoal, err)
		}
		st.Goal = &ledger.SavingsGoal{Type: ledger.AllocationType(goal.Type), Value: v}
	}

	var last string
	if err := load(KeyLastRollover, &last); err != nil {
		return State{}, err
	}
	if last != "" {
		p, err := ledger.ParsePeriod(last)
		if err != nil {
			return State{}, fmt.Errorf("decode %s: %w", KeyLastRollover, err)
		}
		st.LastRollover = p
	}
	return st, nil
}

func (r CategoryRecord) toCategory(curr money.Currency) (ledger.Category, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return ledger.Category{}, err
	}
	v, err := decimal.Parse(r.AllocationValue)
	if err != nil {
		return ledger.Category{}, fmt.Errorf("category %s allocation: %w", r.ID, err)
	}
	carry := r.CarryForward
	if carry == "" {
		carry = "0"
	}
	cf, err := money.ParseAmount(curr.Code(), carry)
	if err != nil {
		return ledger.Category{}, fmt.Errorf("category %s carry: %w", r.ID, err)
	}
	return ledger.Category{ID: id, Name: r.Name, AllocationType: ledger.AllocationType(r.AllocationType), AllocationValue: v, CarryForward: cf, CreatedAt: r.CreatedAt}, nil
}
