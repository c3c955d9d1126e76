package ledger

import (
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/govalues/decimal"
    "github.com/govalues/money"
)

// AllocationType selects how a category budget (or the savings goal target) is derived.
type AllocationType string

const (
    // AllocationFixed is a fixed monetary amount per period.
    AllocationFixed AllocationType = "fixed"
    // AllocationPercentOfIncome is a percentage (0..100) of the period's income.
    AllocationPercentOfIncome AllocationType = "percent_of_income"
)

// Valid reports whether t is a known allocation type.
func (t AllocationType) Valid() bool {
    return t == AllocationFixed || t == AllocationPercentOfIncome
}

// IncomeEntry records money received.
type IncomeEntry struct {
    ID          uuid.UUID
    Description string
    Amount      money.Amount
    OccurredAt  time.Time
}

// ExpenseEntry records money spent against a category. CategoryID always
// resolves to a live category; deleting the category deletes the expense.
type ExpenseEntry struct {
    ID          uuid.UUID
    Description string
    Amount      money.Amount
    CategoryID  uuid.UUID
    OccurredAt  time.Time
}

// Category is a named budget bucket.
type Category struct {
    ID   uuid.UUID
    Name string
    // AllocationType/AllocationValue describe the per-period budget. For
    // percent categories the value is a percentage in [0,100]; for fixed
    // categories it is an amount in the book currency.
    AllocationType  AllocationType
    AllocationValue decimal.Decimal
    // CarryForward is unused budget accumulated by rollover. It is never
    // edited directly.
    CarryForward money.Amount
    CreatedAt    time.Time
}

// NameKey is the case-insensitive identity of a category name.
func (c Category) NameKey() string { return NameKey(c.Name) }

// NameKey normalizes a category name for uniqueness checks.
func NameKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// SavingsGoal is the optional singleton savings target.
type SavingsGoal struct {
    Type  AllocationType
    Value decimal.Decimal
}

// Snapshot is a read-only view of the book state handed to the engine.
type Snapshot struct {
    Incomes    []IncomeEntry
    Expenses   []ExpenseEntry
    Categories []Category
    Goal       *SavingsGoal
}
