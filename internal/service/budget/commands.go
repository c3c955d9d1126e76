package budget

import (
    "context"

    "github.com/google/uuid"
    "github.com/govalues/decimal"

    "github.com/tinoosan/budget/internal/ledger"
    "github.com/tinoosan/budget/internal/schema"
    "github.com/tinoosan/budget/internal/service/category"
)

// Commands return the applied entity together with any error. When the error
// wraps errs.ErrStorage the entity reflects the in-memory state that stands.

// Incomes lists incomes in insertion order, restricted to p when non-nil.
func (b *Book) Incomes(p *ledger.Period) []ledger.IncomeEntry {
    b.mu.Lock()
    defer b.mu.Unlock()
    if p == nil { return b.entries.Incomes() }
    return b.entries.IncomesInPeriod(*p)
}

// Income returns one income.
func (b *Book) Income(id uuid.UUID) (ledger.IncomeEntry, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    return b.entries.Income(id)
}

func (b *Book) CreateIncome(ctx context.Context, description string, amount decimal.Decimal) (ledger.IncomeEntry, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    a, err := b.amount("amount", amount)
    if err != nil { return ledger.IncomeEntry{}, err }
    in, err := b.entries.AddIncome(description, a)
    if err != nil { return ledger.IncomeEntry{}, err }
    return in, b.flush(ctx, schema.KeyIncomes)
}

func (b *Book) UpdateIncome(ctx context.Context, id uuid.UUID, description string, amount decimal.Decimal) (ledger.IncomeEntry, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    a, err := b.amount("amount", amount)
    if err != nil { return ledger.IncomeEntry{}, err }
    in, err := b.entries.EditIncome(id, description, a)
    if err != nil { return ledger.IncomeEntry{}, err }
    return in, b.flush(ctx, schema.KeyIncomes)
}

// IncomePatch holds the fields of a partial income update; nil keeps the
// stored value.
type IncomePatch struct {
    Description *string
    Amount      *decimal.Decimal
}

// PatchIncome merges p into the stored income and validates the result.
func (b *Book) PatchIncome(ctx context.Context, id uuid.UUID, p IncomePatch) (ledger.IncomeEntry, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    cur, err := b.entries.Income(id)
    if err != nil { return ledger.IncomeEntry{}, err }
    desc, a := cur.Description, cur.Amount
    if p.Description != nil { desc = *p.Description }
    if p.Amount != nil {
        if a, err = b.amount("amount", *p.Amount); err != nil { return ledger.IncomeEntry{}, err }
    }
    in, err := b.entries.EditIncome(id, desc, a)
    if err != nil { return ledger.IncomeEntry{}, err }
    return in, b.flush(ctx, schema.KeyIncomes)
}

func (b *Book) DeleteIncome(ctx context.Context, id uuid.UUID) error {
    b.mu.Lock()
    defer b.mu.Unlock()
    if err := b.entries.DeleteIncome(id); err != nil { return err }
    return b.flush(ctx, schema.KeyIncomes)
}

// Expenses lists expenses in insertion order, restricted to p when non-nil.
func (b *Book) Expenses(p *ledger.Period) []ledger.ExpenseEntry {
    b.mu.Lock()
    defer b.mu.Unlock()
    if p == nil { return b.entries.Expenses() }
    return b.entries.ExpensesInPeriod(*p)
}

// Expense returns one expense.
func (b *Book) Expense(id uuid.UUID) (ledger.ExpenseEntry, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    return b.entries.Expense(id)
}

func (b *Book) CreateExpense(ctx context.Context, description string, amount decimal.Decimal, categoryID uuid.UUID) (ledger.ExpenseEntry, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    a, err := b.amount("amount", amount)
    if err != nil { return ledger.ExpenseEntry{}, err }
    ex, err := b.entries.AddExpense(description, a, categoryID)
    if err != nil { return ledger.ExpenseEntry{}, err }
    return ex, b.flush(ctx, schema.KeyExpenses)
}

func (b *Book) UpdateExpense(ctx context.Context, id uuid.UUID, description string, amount decimal.Decimal, categoryID uuid.UUID) (ledger.ExpenseEntry, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    a, err := b.amount("amount", amount)
    if err != nil { return ledger.ExpenseEntry{}, err }
    ex, err := b.entries.EditExpense(id, description, a, categoryID)
    if err != nil { return ledger.ExpenseEntry{}, err }
    return ex, b.flush(ctx, schema.KeyExpenses)
}

// ExpensePatch holds the fields of a partial expense update.
type ExpensePatch struct {
    Description *string
    Amount      *decimal.Decimal
    CategoryID  *uuid.UUID
}

// PatchExpense merges p into the stored expense and validates the result.
func (b *Book) PatchExpense(ctx context.Context, id uuid.UUID, p ExpensePatch) (ledger.ExpenseEntry, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    cur, err := b.entries.Expense(id)
    if err != nil { return ledger.ExpenseEntry{}, err }
    desc, a, cat := cur.Description, cur.Amount, cur.CategoryID
    if p.Description != nil { desc = *p.Description }
    if p.CategoryID != nil { cat = *p.CategoryID }
    if p.Amount != nil {
        if a, err = b.amount("amount", *p.Amount); err != nil { return ledger.ExpenseEntry{}, err }
    }
    ex, err := b.entries.EditExpense(id, desc, a, cat)
    if err != nil { return ledger.ExpenseEntry{}, err }
    return ex, b.flush(ctx, schema.KeyExpenses)
}

func (b *Book) DeleteExpense(ctx context.Context, id uuid.UUID) error {
    b.mu.Lock()
    defer b.mu.Unlock()
    if err := b.entries.DeleteExpense(id); err != nil { return err }
    return b.flush(ctx, schema.KeyExpenses)
}

// Categories lists categories in insertion order.
func (b *Book) Categories() []ledger.Category {
    b.mu.Lock()
    defer b.mu.Unlock()
    return b.cats.List()
}

// Category returns one category.
func (b *Book) Category(id uuid.UUID) (ledger.Category, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    return b.cats.Get(id)
}

func (b *Book) CreateCategory(ctx context.Context, name string, t ledger.AllocationType, value decimal.Decimal) (ledger.Category, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    c, err := b.cats.Add(name, t, value)
    if err != nil { return ledger.Category{}, err }
    return c, b.flush(ctx, schema.KeyCategories)
}

// UpdateCategory renames or changes the rule of a category. Expenses are keyed
// by id and follow the rename without rewriting.
func (b *Book) UpdateCategory(ctx context.Context, id uuid.UUID, name string, t ledger.AllocationType, value decimal.Decimal) (ledger.Category, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    c, err := b.cats.Update(id, name, t, value)
    if err != nil { return ledger.Category{}, err }
    return c, b.flush(ctx, schema.KeyCategories)
}

// CategoryPatch holds the fields of a partial category update.
type CategoryPatch struct {
    Name            *string
    AllocationType  *ledger.AllocationType
    AllocationValue *decimal.Decimal
}

// PatchCategory merges p into the stored category and validates the result.
func (b *Book) PatchCategory(ctx context.Context, id uuid.UUID, p CategoryPatch) (ledger.Category, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    cur, err := b.cats.Get(id)
    if err != nil { return ledger.Category{}, err }
    name, t, value := cur.Name, cur.AllocationType, cur.AllocationValue
    if p.Name != nil { name = *p.Name }
    if p.AllocationType != nil { t = *p.AllocationType }
    if p.AllocationValue != nil { value = *p.AllocationValue }
    c, err := b.cats.Update(id, name, t, value)
    if err != nil { return ledger.Category{}, err }
    return c, b.flush(ctx, schema.KeyCategories)
}

// DeleteCategory removes a category and every expense in it. It returns the
// number of expenses removed.
func (b *Book) DeleteCategory(ctx context.Context, id uuid.UUID) (int, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    n, err := b.cats.Delete(id)
    if err != nil { return 0, err }
    b.log.Info("category deleted", "category_id", id, "expenses_removed", n)
    return n, b.flush(ctx, schema.KeyCategories, schema.KeyExpenses)
}

// Goal returns the savings goal, or nil.
func (b *Book) Goal() *ledger.SavingsGoal {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.goal == nil { return nil }
    g := *b.goal
    return &g
}

// SetGoal replaces the savings goal.
func (b *Book) SetGoal(ctx context.Context, t ledger.AllocationType, value decimal.Decimal) (ledger.SavingsGoal, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    if err := category.ValidateRule(t, value); err != nil { return ledger.SavingsGoal{}, err }
    g := ledger.SavingsGoal{Type: t, Value: value}
    b.goal = &g
    return g, b.flush(ctx, schema.KeyGoal)
}

// ClearGoal removes the savings goal. Clearing an absent goal is a no-op.
func (b *Book) ClearGoal(ctx context.Context) error {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.goal == nil { return nil }
    b.goal = nil
    return b.flush(ctx, schema.KeyGoal)
}
