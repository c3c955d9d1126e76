package v1

import (
    "net/http"

    "github.com/tinoosan/budget/internal/service/budget"
)

// GET /v1/incomes?period=
func (s *Server) listIncomes(w http.ResponseWriter, r *http.Request) {
    p, ok := optionalPeriod(w, r)
    if !ok { return }
    toJSON(w, http.StatusOK, listResponse[incomeResponse]{Items: mapSlice(s.book.Incomes(p), toIncomeResponse)})
}

// POST /v1/incomes
func (s *Server) postIncome(w http.ResponseWriter, r *http.Request) {
    var req incomeRequest
    if !decodeJSON(w, r, &req) { return }
    amount, err := parseDecimal("amount", req.Amount)
    if err != nil { s.writeDomainErr(w, r, err); return }
    in, err := s.book.CreateIncome(r.Context(), req.Description, amount)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusCreated, toIncomeResponse(in))
}

// PATCH /v1/incomes/{id} merges the provided fields into the stored income.
func (s *Server) patchIncome(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r)
    if !ok { return }
    var req incomePatch
    if !decodeJSON(w, r, &req) { return }
    patch := budget.IncomePatch{Description: req.Description}
    if req.Amount != nil {
        a, err := parseDecimal("amount", *req.Amount)
        if err != nil { s.writeDomainErr(w, r, err); return }
        patch.Amount = &a
    }
    in, err := s.book.PatchIncome(r.Context(), id, patch)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusOK, toIncomeResponse(in))
}

// DELETE /v1/incomes/{id}
func (s *Server) deleteIncome(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r)
    if !ok { return }
    if err := s.book.DeleteIncome(r.Context(), id); err != nil { s.writeDomainErr(w, r, err); return }
    w.WriteHeader(http.StatusNoContent)
}

// GET /v1/expenses?period=
func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
    p, ok := optionalPeriod(w, r)
    if !ok { return }
    toJSON(w, http.StatusOK, listResponse[expenseResponse]{Items: mapSlice(s.book.Expenses(p), toExpenseResponse)})
}

// POST /v1/expenses
func (s *Server) postExpense(w http.ResponseWriter, r *http.Request) {
    var req expenseRequest
    if !decodeJSON(w, r, &req) { return }
    amount, err := parseDecimal("amount", req.Amount)
    if err != nil { s.writeDomainErr(w, r, err); return }
    ex, err := s.book.CreateExpense(r.Context(), req.Description, amount, req.CategoryID)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusCreated, toExpenseResponse(ex))
}

// PATCH /v1/expenses/{id}
func (s *Server) patchExpense(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r)
    if !ok { return }
    var req expensePatch
    if !decodeJSON(w, r, &req) { return }
    patch := budget.ExpensePatch{Description: req.Description, CategoryID: req.CategoryID}
    if req.Amount != nil {
        a, err := parseDecimal("amount", *req.Amount)
        if err != nil { s.writeDomainErr(w, r, err); return }
        patch.Amount = &a
    }
    ex, err := s.book.PatchExpense(r.Context(), id, patch)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusOK, toExpenseResponse(ex))
}

// DELETE /v1/expenses/{id}
func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r)
    if !ok { return }
    if err := s.book.DeleteExpense(r.Context(), id); err != nil { s.writeDomainErr(w, r, err); return }
    w.WriteHeader(http.StatusNoContent)
}
