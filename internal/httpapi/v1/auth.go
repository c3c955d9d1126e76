package v1

import (
    "crypto/subtle"
    "net/http"
    "strings"
)

func parseBearerToken(r *http.Request) (string, bool) {
    h := r.Header.Get("Authorization")
    if h == "" { return "", false }
    if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") { return "", false }
    return strings.TrimSpace(h[len("Bearer "):]), true
}

// requireToken returns a middleware that enforces Authorization: Bearer <token>
// on the /v1 routes when token is non-empty. Health and metrics stay open.
func requireToken(token string) func(http.Handler) http.Handler {
    token = strings.TrimSpace(token)
    if token == "" {
        return nil
    }
    want := []byte(token)
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            if !strings.HasPrefix(r.URL.Path, "/v1/") {
                next.ServeHTTP(w, r)
                return
            }
            got, ok := parseBearerToken(r)
            if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
                w.Header().Set("WWW-Authenticate", `Bearer realm="budget"`)
                writeErr(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
                return
            }
            next.ServeHTTP(w, r)
        })
    }
}
