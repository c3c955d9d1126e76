package v1

import (
    "net/http"

    "github.com/tinoosan/budget/internal/service/budget"
)

// GET /v1/categories
func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
    toJSON(w, http.StatusOK, listResponse[categoryResponse]{Items: mapSlice(s.book.Categories(), toCategoryResponse)})
}

// GET /v1/categories/status?period=
func (s *Server) categoryStatuses(w http.ResponseWriter, r *http.Request) {
    p, ok := s.queryPeriod(w, r)
    if !ok { return }
    st, err := s.book.ComputeCategoryStatuses(p)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusOK, struct {
        Period string                   `json:"period"`
        Items  []categoryStatusResponse `json:"items"`
    }{Period: p.String(), Items: mapSlice(st, toStatusResponse)})
}

// POST /v1/categories
func (s *Server) postCategory(w http.ResponseWriter, r *http.Request) {
    var req categoryRequest
    if !decodeJSON(w, r, &req) { return }
    value, err := parseDecimal("allocation_value", req.AllocationValue)
    if err != nil { s.writeDomainErr(w, r, err); return }
    c, err := s.book.CreateCategory(r.Context(), req.Name, req.AllocationType, value)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusCreated, toCategoryResponse(c))
}

// PATCH /v1/categories/{id} renames or changes the allocation rule.
func (s *Server) patchCategory(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r)
    if !ok { return }
    var req categoryPatch
    if !decodeJSON(w, r, &req) { return }
    patch := budget.CategoryPatch{Name: req.Name, AllocationType: req.AllocationType}
    if req.AllocationValue != nil {
        v, err := parseDecimal("allocation_value", *req.AllocationValue)
        if err != nil { s.writeDomainErr(w, r, err); return }
        patch.AllocationValue = &v
    }
    c, err := s.book.PatchCategory(r.Context(), id, patch)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusOK, toCategoryResponse(c))
}

// DELETE /v1/categories/{id} also removes the category's expenses.
func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
    id, ok := pathID(w, r)
    if !ok { return }
    n, err := s.book.DeleteCategory(r.Context(), id)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusOK, struct {
        DeletedExpenses int `json:"deleted_expenses"`
    }{DeletedExpenses: n})
}
