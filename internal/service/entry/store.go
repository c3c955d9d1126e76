// Package entry holds raw income and expense entries. Entries are immutable
// except through explicit edit/delete; edits never re-timestamp.
package entry

import (
    "strings"

    "github.com/google/uuid"
    "github.com/govalues/money"

    "github.com/tinoosan/budget/internal/errs"
    "github.com/tinoosan/budget/internal/ledger"
)

// Categories resolves category references for expenses.
type Categories interface {
    Exists(id uuid.UUID) bool
}

// Store keeps entries in insertion order. It is not safe for concurrent use;
// the owning book serializes access.
type Store struct {
    curr     money.Currency
    ids      ledger.IDGenerator
    now      ledger.Clock
    cats     Categories
    incomes  []ledger.IncomeEntry
    expenses []ledger.ExpenseEntry
}

// New returns an empty store for amounts in curr.
func New(curr money.Currency, ids ledger.IDGenerator, now ledger.Clock, cats Categories) *Store {
    return &Store{curr: curr, ids: ids, now: now, cats: cats}
}

func (s *Store) validateAmount(a money.Amount) error {
    if a.Curr() != s.curr { return errs.Invalid("amount", "currency must be "+s.curr.Code()) }
    if !a.IsPos() { return errs.Invalid("amount", "must be positive") }
    if !ledger.InRange(a.Decimal()) { return errs.Invalid("amount", "must be less than "+ledger.MaxAmount.String()) }
    return nil
}

func (s *Store) validateCategory(id uuid.UUID) error {
    if id == uuid.Nil { return errs.Invalid("category_id", "required") }
    if s.cats == nil || !s.cats.Exists(id) { return errs.Invalid("category_id", "unknown category") }
    return nil
}

// AddIncome records a new income with a fresh id and the current time.
func (s *Store) AddIncome(description string, amount money.Amount) (ledger.IncomeEntry, error) {
    if err := s.validateAmount(amount); err != nil { return ledger.IncomeEntry{}, err }
    in := ledger.IncomeEntry{ID: s.ids.NewID(), Description: strings.TrimSpace(description), Amount: amount, OccurredAt: s.now()}
    s.incomes = append(s.incomes, in)
    return in, nil
}

// AddExpense records a new expense against an existing category.
func (s *Store) AddExpense(description string, amount money.Amount, categoryID uuid.UUID) (ledger.ExpenseEntry, error) {
    if err := s.validateAmount(amount); err != nil { return ledger.ExpenseEntry{}, err }
    if err := s.validateCategory(categoryID); err != nil { return ledger.ExpenseEntry{}, err }
    ex := ledger.ExpenseEntry{ID: s.ids.NewID(), Description: strings.TrimSpace(description), Amount: amount, CategoryID: categoryID, OccurredAt: s.now()}
    s.expenses = append(s.expenses, ex)
    return ex, nil
}

// EditIncome replaces description and amount; OccurredAt is preserved.
func (s *Store) EditIncome(id uuid.UUID, description string, amount money.Amount) (ledger.IncomeEntry, error) {
    i := s.incomeIndex(id)
    if i < 0 { return ledger.IncomeEntry{}, errs.ErrNotFound }
    if err := s.validateAmount(amount); err != nil { return ledger.IncomeEntry{}, err }
    s.incomes[i].Description = strings.TrimSpace(description)
    s.incomes[i].Amount = amount
    return s.incomes[i], nil
}

// EditExpense replaces description, amount and category; OccurredAt is preserved.
func (s *Store) EditExpense(id uuid.UUID, description string, amount money.Amount, categoryID uuid.UUID) (ledger.ExpenseEntry, error) {
    i := s.expenseIndex(id)
    if i < 0 { return ledger.ExpenseEntry{}, errs.ErrNotFound }
    if err := s.validateAmount(amount); err != nil { return ledger.ExpenseEntry{}, err }
    if err := s.validateCategory(categoryID); err != nil { return ledger.ExpenseEntry{}, err }
    s.expenses[i].Description = strings.TrimSpace(description)
    s.expenses[i].Amount = amount
    s.expenses[i].CategoryID = categoryID
    return s.expenses[i], nil
}

// DeleteIncome removes an income.
func (s *Store) DeleteIncome(id uuid.UUID) error {
    i := s.incomeIndex(id)
    if i < 0 { return errs.ErrNotFound }
    s.incomes = append(s.incomes[:i], s.incomes[i+1:]...)
    return nil
}

// DeleteExpense removes an expense.
func (s *Store) DeleteExpense(id uuid.UUID) error {
    i := s.expenseIndex(id)
    if i < 0 { return errs.ErrNotFound }
    s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
    return nil
}

// DeleteExpensesByCategory drops every expense of categoryID and reports how
// many were removed. It is the cascade hook for category deletion.
func (s *Store) DeleteExpensesByCategory(categoryID uuid.UUID) int {
    kept := s.expenses[:0]
    for _, ex := range s.expenses {
        if ex.CategoryID != categoryID { kept = append(kept, ex) }
    }
    n := len(s.expenses) - len(kept)
    // clear the tail so dropped entries are not retained by the backing array
    for i := len(kept); i < len(s.expenses); i++ { s.expenses[i] = ledger.ExpenseEntry{} }
    s.expenses = kept
    return n
}

// Income returns the income with id.
func (s *Store) Income(id uuid.UUID) (ledger.IncomeEntry, error) {
    i := s.incomeIndex(id)
    if i < 0 { return ledger.IncomeEntry{}, errs.ErrNotFound }
    return s.incomes[i], nil
}

// Expense returns the expense with id.
func (s *Store) Expense(id uuid.UUID) (ledger.ExpenseEntry, error) {
    i := s.expenseIndex(id)
    if i < 0 { return ledger.ExpenseEntry{}, errs.ErrNotFound }
    return s.expenses[i], nil
}

// Incomes returns a copy of all incomes in insertion order.
func (s *Store) Incomes() []ledger.IncomeEntry {
    return append([]ledger.IncomeEntry(nil), s.incomes...)
}

// Expenses returns a copy of all expenses in insertion order.
func (s *Store) Expenses() []ledger.ExpenseEntry {
    return append([]ledger.ExpenseEntry(nil), s.expenses...)
}

// IncomesInPeriod returns incomes whose OccurredAt falls in p, in insertion order.
func (s *Store) IncomesInPeriod(p ledger.Period) []ledger.IncomeEntry {
    out := make([]ledger.IncomeEntry, 0)
    for _, in := range s.incomes {
        if p.Contains(in.OccurredAt) { out = append(out, in) }
    }
    return out
}

// ExpensesInPeriod returns expenses whose OccurredAt falls in p, in insertion order.
func (s *Store) ExpensesInPeriod(p ledger.Period) []ledger.ExpenseEntry {
    out := make([]ledger.ExpenseEntry, 0)
    for _, ex := range s.expenses {
        if p.Contains(ex.OccurredAt) { out = append(out, ex) }
    }
    return out
}

// Restore replaces the store contents with previously persisted entries.
// No validation is applied; the migration layer has already normalized them.
func (s *Store) Restore(incomes []ledger.IncomeEntry, expenses []ledger.ExpenseEntry) {
    s.incomes = append([]ledger.IncomeEntry(nil), incomes...)
    s.expenses = append([]ledger.ExpenseEntry(nil), expenses...)
}

func (s *Store) incomeIndex(id uuid.UUID) int {
    for i := range s.incomes {
        if s.incomes[i].ID == id { return i }
    }
    return -1
}

func (s *Store) expenseIndex(id uuid.UUID) int {
    for i := range s.expenses {
        if s.expenses[i].ID == id { return i }
    }
    return -1
}
