package budget

import (
    "github.com/tinoosan/budget/internal/ledger"
)

// Summary is the period overview handed to presenters.
type Summary struct {
    Period   ledger.Period
    Totals   ledger.Totals
    Goal     *ledger.SavingsGoal
    Progress *ledger.Progress
}

// CategoryStatus pairs a category with its period status.
type CategoryStatus struct {
    Category ledger.Category
    ledger.Status
}

// ComputeSummary derives totals and goal progress for p.
func (b *Book) ComputeSummary(p ledger.Period) (Summary, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    totals, err := b.engine.TotalsForPeriod(b.entries.IncomesInPeriod(p), b.entries.ExpensesInPeriod(p), p)
    if err != nil { return Summary{}, err }
    s := Summary{Period: p, Totals: totals}
    if b.goal != nil {
        g := *b.goal
        pr, err := b.engine.SavingsProgress(g, totals)
        if err != nil { return Summary{}, err }
        s.Goal, s.Progress = &g, &pr
    }
    return s, nil
}

// ComputeCategoryStatuses derives the status of every category for p, in
// category insertion order. Carry-forward is not versioned per period, so the
// allocation of a past period includes the carry the category holds now.
func (b *Book) ComputeCategoryStatuses(p ledger.Period) ([]CategoryStatus, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    return b.categoryStatuses(p)
}

func (b *Book) categoryStatuses(p ledger.Period) ([]CategoryStatus, error) {
    expenses := b.entries.ExpensesInPeriod(p)
    totals, err := b.engine.TotalsForPeriod(b.entries.IncomesInPeriod(p), expenses, p)
    if err != nil { return nil, err }
    cats := b.cats.List()
    out := make([]CategoryStatus, 0, len(cats))
    for _, c := range cats {
        st, err := b.engine.CategoryStatus(c, expenses, p, totals.Income)
        if err != nil { return nil, err }
        out = append(out, CategoryStatus{Category: c, Status: st})
    }
    return out, nil
}
