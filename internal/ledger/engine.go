package ledger

import (
    "fmt"

    "github.com/govalues/decimal"
    "github.com/govalues/money"
)

// CarryPolicy decides how carry-forward combines with percent-of-income
// allocations. Fixed allocations always add carry linearly.
type CarryPolicy string

const (
    // CarryAfterPercent: value/100 * income + carry.
    CarryAfterPercent CarryPolicy = "carry_after"
    // CarryBeforePercent: value/100 * (income + carry).
    CarryBeforePercent CarryPolicy = "carry_before"
    // CarryNone: value/100 * income; carry is tracked but not spendable.
    CarryNone CarryPolicy = "carry_none"
)

// Valid reports whether p is a known policy.
func (p CarryPolicy) Valid() bool {
    switch p {
    case CarryAfterPercent, CarryBeforePercent, CarryNone:
        return true
    }
    return false
}

var hundred = decimal.MustNew(100, 0)

// MaxAmount bounds a single entry amount or fixed allocation so that period
// sums stay inside the range the currency can represent.
var MaxAmount = decimal.MustNew(1_000_000_000_000, 0)

// InRange reports whether |d| is below MaxAmount.
func InRange(d decimal.Decimal) bool { return d.Abs().Cmp(MaxAmount) < 0 }

// Totals are the income/expense/balance figures of one period.
type Totals struct {
    Income  money.Amount
    Expense money.Amount
    Balance money.Amount
}

// Status is the budget position of one category in one period.
type Status struct {
    Allocated  money.Amount
    Spent      money.Amount
    Remaining  money.Amount
    OverBudget bool
}

// Progress is the savings goal position for one period.
type Progress struct {
    Target money.Amount
    // Saved is the period balance floored at zero.
    Saved           money.Amount
    Achieved        bool
    PercentAchieved decimal.Decimal
}

// Engine derives summary figures from a snapshot. It holds no state.
type Engine struct {
    Currency money.Currency
    Policy   CarryPolicy
}

// NewEngine returns an engine for the given book currency. An empty policy
// selects CarryAfterPercent.
func NewEngine(curr money.Currency, policy CarryPolicy) Engine {
    if policy == "" { policy = CarryAfterPercent }
    return Engine{Currency: curr, Policy: policy}
}

// Zero returns a zero amount in the book currency.
func (e Engine) Zero() money.Amount {
    a, _ := money.NewAmountFromMinorUnits(e.Currency.Code(), 0)
    return a
}

// Amount converts a decimal into a book currency amount.
func (e Engine) Amount(d decimal.Decimal) (money.Amount, error) {
    return money.NewAmountFromDecimal(e.Currency, d)
}

// TotalsForPeriod sums incomes and expenses whose OccurredAt falls in p.
func (e Engine) TotalsForPeriod(incomes []IncomeEntry, expenses []ExpenseEntry, p Period) (Totals, error) {
    income, expense := e.Zero(), e.Zero()
    var err error
    for _, in := range incomes {
        if !p.Contains(in.OccurredAt) { continue }
        if income, err = income.Add(in.Amount); err != nil {
            return Totals{}, fmt.Errorf("sum income %s: %w", in.ID, err)
        }
    }
    for _, ex := range expenses {
        if !p.Contains(ex.OccurredAt) { continue }
        if expense, err = expense.Add(ex.Amount); err != nil {
            return Totals{}, fmt.Errorf("sum expense %s: %w", ex.ID, err)
        }
    }
    balance, err := income.Sub(expense)
    if err != nil { return Totals{}, fmt.Errorf("balance: %w", err) }
    return Totals{Income: income, Expense: expense, Balance: balance}, nil
}

// AllocatedAmount is the total budget of c for a period with the given income,
// carry-forward included according to the policy.
func (e Engine) AllocatedAmount(c Category, periodIncome money.Amount) (money.Amount, error) {
    switch c.AllocationType {
    case AllocationFixed:
        base, err := e.Amount(c.AllocationValue)
        if err != nil { return money.Amount{}, err }
        return base.Add(c.CarryForward)
    case AllocationPercentOfIncome:
        basis := periodIncome
        if e.Policy == CarryBeforePercent {
            var err error
            if basis, err = basis.Add(c.CarryForward); err != nil { return money.Amount{}, err }
        }
        share, err := e.percentOf(basis, c.AllocationValue)
        if err != nil { return money.Amount{}, err }
        if e.Policy == CarryAfterPercent {
            return share.Add(c.CarryForward)
        }
        return share, nil
    default:
        return money.Amount{}, fmt.Errorf("category %s: unknown allocation type %q", c.ID, c.AllocationType)
    }
}

func (e Engine) percentOf(base money.Amount, pct decimal.Decimal) (money.Amount, error) {
    rate, err := pct.Quo(hundred)
    if err != nil { return money.Amount{}, err }
    return base.Mul(rate)
}

// CategorySpend sums the expenses of c that fall in p.
func (e Engine) CategorySpend(c Category, expenses []ExpenseEntry, p Period) (money.Amount, error) {
    spent := e.Zero()
    var err error
    for _, ex := range expenses {
        if ex.CategoryID != c.ID || !p.Contains(ex.OccurredAt) { continue }
        if spent, err = spent.Add(ex.Amount); err != nil {
            return money.Amount{}, fmt.Errorf("sum category %s: %w", c.ID, err)
        }
    }
    return spent, nil
}

// CategoryStatus reports allocated/spent/remaining for c in p.
func (e Engine) CategoryStatus(c Category, expenses []ExpenseEntry, p Period, periodIncome money.Amount) (Status, error) {
    allocated, err := e.AllocatedAmount(c, periodIncome)
    if err != nil { return Status{}, err }
    spent, err := e.CategorySpend(c, expenses, p)
    if err != nil { return Status{}, err }
    remaining, err := allocated.Sub(spent)
    if err != nil { return Status{}, err }
    cmp, err := spent.Cmp(allocated)
    if err != nil { return Status{}, err }
    return Status{Allocated: allocated, Spent: spent, Remaining: remaining, OverBudget: cmp > 0}, nil
}

// GoalTarget is the savings target for a period with the given income.
func (e Engine) GoalTarget(g SavingsGoal, periodIncome money.Amount) (money.Amount, error) {
    switch g.Type {
    case AllocationFixed:
        return e.Amount(g.Value)
    case AllocationPercentOfIncome:
        return e.percentOf(periodIncome, g.Value)
    default:
        return money.Amount{}, fmt.Errorf("unknown goal type %q", g.Type)
    }
}

// SavingsProgress compares the period balance with the goal target. A
// negative balance counts as nothing saved; a zero target is fully achieved.
func (e Engine) SavingsProgress(g SavingsGoal, t Totals) (Progress, error) {
    target, err := e.GoalTarget(g, t.Income)
    if err != nil { return Progress{}, err }
    cmp, err := t.Balance.Cmp(target)
    if err != nil { return Progress{}, err }
    saved := t.Balance
    if saved.IsNeg() { saved = e.Zero() }
    pct := hundred
    if target.IsPos() {
        ratio, err := saved.Decimal().Quo(target.Decimal())
        if err != nil { return Progress{}, err }
        if pct, err = ratio.Mul(hundred); err != nil { return Progress{}, err }
    }
    return Progress{Target: target, Saved: saved, Achieved: cmp >= 0, PercentAchieved: pct}, nil
}
