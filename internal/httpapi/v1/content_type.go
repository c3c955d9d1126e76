package v1

import (
    "encoding/json"
    "net/http"
    "strings"

    chi "github.com/go-chi/chi/v5"
    "github.com/google/uuid"

    "github.com/tinoosan/budget/internal/ledger"
)

// requireJSON ensures the request has Content-Type application/json (optionally with params).
// Writes 415 if not JSON and returns false; otherwise returns true.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
    ct := r.Header.Get("Content-Type")
    if ct == "" { writeErr(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "unsupported_media_type"); return false }
    mime := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
    if mime != "application/json" { writeErr(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "unsupported_media_type"); return false }
    return true
}

// decodeJSON checks the content type and strictly decodes the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
    if !requireJSON(w, r) { return false }
    dec := json.NewDecoder(r.Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(v); err != nil {
        badRequest(w, "invalid JSON: "+err.Error())
        return false
    }
    return true
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
    id, err := uuid.Parse(chi.URLParam(r, "id"))
    if err != nil {
        badRequest(w, "invalid id")
        return uuid.Nil, false
    }
    return id, true
}

// queryPeriod reads ?period=YYYY-MM, defaulting to the current period.
func (s *Server) queryPeriod(w http.ResponseWriter, r *http.Request) (ledger.Period, bool) {
    raw := r.URL.Query().Get("period")
    if raw == "" { return s.book.CurrentPeriod(), true }
    p, err := ledger.ParsePeriod(raw)
    if err != nil {
        badRequest(w, err.Error())
        return ledger.Period{}, false
    }
    return p, true
}

// optionalPeriod reads ?period= for list endpoints; absent means all entries.
func optionalPeriod(w http.ResponseWriter, r *http.Request) (*ledger.Period, bool) {
    raw := r.URL.Query().Get("period")
    if raw == "" { return nil, true }
    p, err := ledger.ParsePeriod(raw)
    if err != nil {
        badRequest(w, err.Error())
        return nil, false
    }
    return &p, true
}
