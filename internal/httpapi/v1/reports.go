package v1

import (
    "fmt"
    "net/http"
    "strconv"

    "github.com/tinoosan/budget/internal/audit"
    "github.com/tinoosan/budget/internal/errs"
    "github.com/tinoosan/budget/internal/export"
    "github.com/tinoosan/budget/internal/ledger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /v1/summary?period=
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
    p, ok := s.queryPeriod(w, r)
    if !ok { return }
    sum, err := s.book.ComputeSummary(p)
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusOK, toSummaryResponse(sum, s.book.Currency()))
}

type rolloverResponse struct {
    LastRollover string          `json:"last_rollover"`
    Events       []audit.Message `json:"events"`
}

// POST /v1/rollover runs the period check. A body {"from","to"} requests a
// specific transition, which only applies when from is the last processed
// period.
func (s *Server) rollover(w http.ResponseWriter, r *http.Request) {
    var (
        events []ledger.CarryEvent
        err    error
    )
    if r.ContentLength == 0 {
        events, err = s.book.EnsureRollover(r.Context())
    } else {
        var req rolloverRequest
        if !decodeJSON(w, r, &req) { return }
        from, perr := ledger.ParsePeriod(req.From)
        if perr != nil { s.writeDomainErr(w, r, errs.Invalid("from", perr.Error())); return }
        to, perr := ledger.ParsePeriod(req.To)
        if perr != nil { s.writeDomainErr(w, r, errs.Invalid("to", perr.Error())); return }
        events, err = s.book.Rollover(r.Context(), from, to)
    }
    if err != nil { s.writeDomainErr(w, r, err); return }
    toJSON(w, http.StatusOK, rolloverResponse{
        LastRollover: s.book.LastRollover().String(),
        Events:       mapSlice(events, audit.NewMessage),
    })
}

// GET /v1/export.xlsx?period=
func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
    p, ok := s.queryPeriod(w, r)
    if !ok { return }
    rep, err := export.Collect(s.book, p)
    if err != nil { s.writeDomainErr(w, r, err); return }
    data, err := export.PeriodXLSX(rep)
    if err != nil { s.writeDomainErr(w, r, err); return }
    w.Header().Set("Content-Type", xlsxContentType)
    w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="budget-%s.xlsx"`, p))
    w.Header().Set("Content-Length", strconv.Itoa(len(data)))
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(data)
}
