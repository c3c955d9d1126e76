package v1

import "net/http"

// GET /v1/goal
func (s *Server) getGoal(w http.ResponseWriter, r *http.Request) {
    g := s.book.Goal()
    if g == nil { notFound(w); return }
    toJSON(w, http.StatusOK, toGoalResponse(*g))
}

// PUT /v1/goal replaces the savings goal.
func (s *Server) putGoal(w http.ResponseWriter, r *http.Request) {
    var req goalRequest
    if !decodeJSON(w, r, &req) { return }
    value, err := parseDecimal("value", req.Value)
    if err != nil { s.writeDomainErr(w, r, err); return }
    g, err := s.book.SetGoal(r.Context(), req.Type, value)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusOK, toGoalResponse(g))
}

// DELETE /v1/goal
func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request) {
    if err := s.book.ClearGoal(r.Context()); err != nil { s.writeDomainErr(w, r, err); return }
    w.WriteHeader(http.StatusNoContent)
}
