// Package category implements the category registry: case-insensitive unique
// names, allocation rules, and cascade deletion of dependent expenses.
package category

import (
    "strings"

    "github.com/google/uuid"
    "github.com/govalues/decimal"
    "github.com/govalues/money"

    "github.com/tinoosan/budget/internal/errs"
    "github.com/tinoosan/budget/internal/ledger"
)

// Cascader removes the expenses of a deleted category.
type Cascader interface {
    DeleteExpensesByCategory(categoryID uuid.UUID) int
}

var hundred = decimal.MustNew(100, 0)

// Registry keeps categories in insertion order. Not safe for concurrent use.
type Registry struct {
    curr    money.Currency
    ids     ledger.IDGenerator
    now     ledger.Clock
    cascade Cascader
    cats    []ledger.Category
}

// New returns an empty registry. cascade may be set later with SetCascader
// when the entry store is built on top of the registry.
func New(curr money.Currency, ids ledger.IDGenerator, now ledger.Clock) *Registry {
    return &Registry{curr: curr, ids: ids, now: now}
}

// SetCascader wires the collaborator invoked by Delete.
func (r *Registry) SetCascader(c Cascader) { r.cascade = c }

// ValidateRule checks an allocation rule independent of names.
func ValidateRule(t ledger.AllocationType, v decimal.Decimal) error {
    switch t {
    case ledger.AllocationFixed:
        if v.IsNeg() { return errs.Invalid("allocation_value", "must not be negative") }
        if !ledger.InRange(v) { return errs.Invalid("allocation_value", "must be less than "+ledger.MaxAmount.String()) }
    case ledger.AllocationPercentOfIncome:
        if v.IsNeg() || v.Cmp(hundred) > 0 { return errs.Invalid("allocation_value", "percentage must be within [0,100]") }
    default:
        return errs.Invalid("allocation_type", "must be fixed or percent_of_income")
    }
    return nil
}

func (r *Registry) validate(id uuid.UUID, name string, t ledger.AllocationType, v decimal.Decimal) error {
    if name == "" { return errs.Invalid("name", "required") }
    if err := ValidateRule(t, v); err != nil { return err }
    key := ledger.NameKey(name)
    for _, c := range r.cats {
        if c.ID != id && c.NameKey() == key { return errs.Invalid("name", "already exists") }
    }
    return nil
}

// Add creates a category with zero carry-forward.
func (r *Registry) Add(name string, t ledger.AllocationType, v decimal.Decimal) (ledger.Category, error) {
    name = strings.TrimSpace(name)
    if err := r.validate(uuid.Nil, name, t, v); err != nil { return ledger.Category{}, err }
    zero, err := money.NewAmountFromDecimal(r.curr, decimal.MustNew(0, 0))
    if err != nil { return ledger.Category{}, err }
    c := ledger.Category{ID: r.ids.NewID(), Name: name, AllocationType: t, AllocationValue: v, CarryForward: zero, CreatedAt: r.now()}
    r.cats = append(r.cats, c)
    return c, nil
}

// Update renames and/or changes the allocation rule of id. The id is kept, so
// expenses keyed by it resolve to the new name. CarryForward is untouched.
func (r *Registry) Update(id uuid.UUID, name string, t ledger.AllocationType, v decimal.Decimal) (ledger.Category, error) {
    i := r.index(id)
    if i < 0 { return ledger.Category{}, errs.ErrNotFound }
    name = strings.TrimSpace(name)
    if err := r.validate(id, name, t, v); err != nil { return ledger.Category{}, err }
    r.cats[i].Name = name
    r.cats[i].AllocationType = t
    r.cats[i].AllocationValue = v
    return r.cats[i], nil
}

// Delete removes id and cascades to its expenses. It returns the number of
// expenses removed.
func (r *Registry) Delete(id uuid.UUID) (int, error) {
    i := r.index(id)
    if i < 0 { return 0, errs.ErrNotFound }
    r.cats = append(r.cats[:i], r.cats[i+1:]...)
    if r.cascade == nil { return 0, nil }
    return r.cascade.DeleteExpensesByCategory(id), nil
}

// ApplyCarry sets the carry-forward of id. Only rollover calls it.
func (r *Registry) ApplyCarry(id uuid.UUID, carry money.Amount) error {
    i := r.index(id)
    if i < 0 { return errs.ErrNotFound }
    if carry.IsNeg() { return errs.Invalid("carry_forward", "must not be negative") }
    r.cats[i].CarryForward = carry
    return nil
}

// Get returns the category with id.
func (r *Registry) Get(id uuid.UUID) (ledger.Category, error) {
    i := r.index(id)
    if i < 0 { return ledger.Category{}, errs.ErrNotFound }
    return r.cats[i], nil
}

// ByName looks a category up case-insensitively.
func (r *Registry) ByName(name string) (ledger.Category, bool) {
    key := ledger.NameKey(name)
    for _, c := range r.cats {
        if c.NameKey() == key { return c, true }
    }
    return ledger.Category{}, false
}

// Exists reports whether id resolves to a live category.
func (r *Registry) Exists(id uuid.UUID) bool { return r.index(id) >= 0 }

// List returns a copy of all categories in insertion order.
func (r *Registry) List() []ledger.Category {
    return append([]ledger.Category(nil), r.cats...)
}

// Restore replaces the registry contents with persisted categories.
func (r *Registry) Restore(cats []ledger.Category) {
    r.cats = append([]ledger.Category(nil), cats...)
}

func (r *Registry) index(id uuid.UUID) int {
    for i := range r.cats {
        if r.cats[i].ID == id { return i }
    }
    return -1
}
