package v1

import (
    "encoding/json"
    "time"

    "github.com/google/uuid"
    "github.com/govalues/decimal"
    "github.com/govalues/money"

    "github.com/tinoosan/budget/internal/errs"
    "github.com/tinoosan/budget/internal/ledger"
    "github.com/tinoosan/budget/internal/service/budget"
)

// Amounts travel as decimal strings; requests also accept JSON numbers.

type incomeRequest struct {
    Description string      `json:"description"`
    Amount      json.Number `json:"amount"`
}

type incomePatch struct {
    Description *string      `json:"description"`
    Amount      *json.Number `json:"amount"`
}

type expenseRequest struct {
    Description string      `json:"description"`
    Amount      json.Number `json:"amount"`
    CategoryID  uuid.UUID   `json:"category_id"`
}

type expensePatch struct {
    Description *string      `json:"description"`
    Amount      *json.Number `json:"amount"`
    CategoryID  *uuid.UUID   `json:"category_id"`
}

type categoryRequest struct {
    Name            string                `json:"name"`
    AllocationType  ledger.AllocationType `json:"allocation_type"`
    AllocationValue json.Number           `json:"allocation_value"`
}

type categoryPatch struct {
    Name            *string                `json:"name"`
    AllocationType  *ledger.AllocationType `json:"allocation_type"`
    AllocationValue *json.Number           `json:"allocation_value"`
}

type goalRequest struct {
    Type  ledger.AllocationType `json:"type"`
    Value json.Number           `json:"value"`
}

type rolloverRequest struct {
    From string `json:"from"`
    To   string `json:"to"`
}

type incomeResponse struct {
    ID          uuid.UUID `json:"id"`
    Description string    `json:"description"`
    Amount      string    `json:"amount"`
    Currency    string    `json:"currency"`
    OccurredAt  time.Time `json:"occurred_at"`
    Period      string    `json:"period"`
}

type expenseResponse struct {
    ID          uuid.UUID `json:"id"`
    Description string    `json:"description"`
    Amount      string    `json:"amount"`
    Currency    string    `json:"currency"`
    CategoryID  uuid.UUID `json:"category_id"`
    OccurredAt  time.Time `json:"occurred_at"`
    Period      string    `json:"period"`
}

type categoryResponse struct {
    ID              uuid.UUID             `json:"id"`
    Name            string                `json:"name"`
    AllocationType  ledger.AllocationType `json:"allocation_type"`
    AllocationValue string                `json:"allocation_value"`
    CarryForward    string                `json:"carry_forward"`
    CreatedAt       time.Time             `json:"created_at"`
}

type categoryStatusResponse struct {
    categoryResponse
    Allocated  string `json:"allocated"`
    Spent      string `json:"spent"`
    Remaining  string `json:"remaining"`
    OverBudget bool   `json:"over_budget"`
}

type goalResponse struct {
    Type  ledger.AllocationType `json:"type"`
    Value string                `json:"value"`
}

type progressResponse struct {
    Target          string `json:"target"`
    Saved           string `json:"saved"`
    Achieved        bool   `json:"achieved"`
    PercentAchieved string `json:"percent_achieved"`
}

type summaryResponse struct {
    Period   string            `json:"period"`
    Currency string            `json:"currency"`
    Income   string            `json:"income"`
    Expense  string            `json:"expense"`
    Balance  string            `json:"balance"`
    Goal     *goalResponse     `json:"goal,omitempty"`
    Progress *progressResponse `json:"progress,omitempty"`
}

type listResponse[T any] struct {
    Items []T `json:"items"`
}

func amountString(a money.Amount) string { return a.Decimal().String() }

// parseDecimal converts a request number into a decimal, reporting bad input
// as a field validation error.
func parseDecimal(field string, n json.Number) (decimal.Decimal, error) {
    if n == "" { return decimal.Decimal{}, errs.Invalid(field, "is required") }
    d, err := decimal.Parse(n.String())
    if err != nil { return decimal.Decimal{}, errs.Invalid(field, "must be a decimal number") }
    return d, nil
}

func toIncomeResponse(in ledger.IncomeEntry) incomeResponse {
    return incomeResponse{
        ID:          in.ID,
        Description: in.Description,
        Amount:      amountString(in.Amount),
        Currency:    in.Amount.Curr().Code(),
        OccurredAt:  in.OccurredAt,
        Period:      ledger.PeriodOf(in.OccurredAt).String(),
    }
}

func toExpenseResponse(ex ledger.ExpenseEntry) expenseResponse {
    return expenseResponse{
        ID:          ex.ID,
        Description: ex.Description,
        Amount:      amountString(ex.Amount),
        Currency:    ex.Amount.Curr().Code(),
        CategoryID:  ex.CategoryID,
        OccurredAt:  ex.OccurredAt,
        Period:      ledger.PeriodOf(ex.OccurredAt).String(),
    }
}

func toCategoryResponse(c ledger.Category) categoryResponse {
    return categoryResponse{
        ID:              c.ID,
        Name:            c.Name,
        AllocationType:  c.AllocationType,
        AllocationValue: c.AllocationValue.String(),
        CarryForward:    amountString(c.CarryForward),
        CreatedAt:       c.CreatedAt,
    }
}

func toStatusResponse(cs budget.CategoryStatus) categoryStatusResponse {
    return categoryStatusResponse{
        categoryResponse: toCategoryResponse(cs.Category),
        Allocated:        amountString(cs.Allocated),
        Spent:            amountString(cs.Spent),
        Remaining:        amountString(cs.Remaining),
        OverBudget:       cs.OverBudget,
    }
}

func toGoalResponse(g ledger.SavingsGoal) goalResponse {
    return goalResponse{Type: g.Type, Value: g.Value.String()}
}

func toSummaryResponse(s budget.Summary, curr money.Currency) summaryResponse {
    out := summaryResponse{
        Period:   s.Period.String(),
        Currency: curr.Code(),
        Income:   amountString(s.Totals.Income),
        Expense:  amountString(s.Totals.Expense),
        Balance:  amountString(s.Totals.Balance),
    }
    if s.Goal != nil {
        g := toGoalResponse(*s.Goal)
        out.Goal = &g
    }
    if s.Progress != nil {
        pct := s.Progress.PercentAchieved.Round(2).Trim(0)
        out.Progress = &progressResponse{
            Target:          amountString(s.Progress.Target),
            Saved:           amountString(s.Progress.Saved),
            Achieved:        s.Progress.Achieved,
            PercentAchieved: pct.String(),
        }
    }
    return out
}

func mapSlice[T, R any](in []T, f func(T) R) []R {
    out := make([]R, 0, len(in))
    for _, v := range in { out = append(out, f(v)) }
    return out
}
