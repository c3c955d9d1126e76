package v1

import (
    "encoding/json"
    "errors"
    "net/http"

    "github.com/tinoosan/budget/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
    Error string `json:"error"`
    Code  string `json:"code,omitempty"`
    Field string `json:"field,omitempty"`
}

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
    toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "bad_request") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }

// writeDomainErr maps book errors onto status codes: validation 422,
// not found 404, storage 503, anything else 500.
func (s *Server) writeDomainErr(w http.ResponseWriter, r *http.Request, err error) {
    var fe *errs.FieldError
    switch {
    case errors.As(err, &fe):
        toJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: fe.Error(), Code: "validation_error", Field: fe.Field})
    case errors.Is(err, errs.ErrValidation):
        writeErr(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
    case errors.Is(err, errs.ErrNotFound):
        notFound(w)
    case errors.Is(err, errs.ErrStorage):
        s.log.Error("storage failure", "path", r.URL.Path, "err", err)
        writeErr(w, http.StatusServiceUnavailable, "storage_unavailable", "storage_unavailable")
    default:
        s.log.Error("request failed", "path", r.URL.Path, "err", err)
        writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
    }
}
