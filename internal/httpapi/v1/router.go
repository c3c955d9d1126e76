// Package v1 wires the HTTP surface of the budget service.
// It keeps handlers thin, delegating business rules to the budget book.
package v1

import (
    "log/slog"
    "net/http"

    chi "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"

    "github.com/tinoosan/budget/internal/service/budget"
)

// Options configure optional server behaviour.
type Options struct {
    // Ready is probed by /readyz; nil means always ready.
    Ready ReadyChecker
    // APIToken, when set, is required as a bearer token on /v1 routes.
    APIToken string
}

// Server wires handlers and middleware using Chi.
type Server struct {
    book  *budget.Book
    ready ReadyChecker
    log   *slog.Logger
    rt    *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by request logging and panic recovery.
func New(book *budget.Book, logger *slog.Logger, opts Options) *Server {
    if logger == nil { logger = slog.Default() }
    r := chi.NewRouter()
    r.Use(chimw.RequestID)
    r.Use(requestLogger(logger))
    r.Use(recoverer(logger))
    r.Use(metricsMiddleware)
    if auth := requireToken(opts.APIToken); auth != nil {
        r.Use(auth)
    }

    s := &Server{
        book:  book,
        ready: opts.Ready,
        log:   logger,
        rt:    r,
    }
    s.routes()
    return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
    // Incomes
    s.rt.Get("/v1/incomes", s.listIncomes)
    s.rt.Post("/v1/incomes", s.postIncome)
    s.rt.Patch("/v1/incomes/{id}", s.patchIncome)
    s.rt.Delete("/v1/incomes/{id}", s.deleteIncome)
    // Expenses
    s.rt.Get("/v1/expenses", s.listExpenses)
    s.rt.Post("/v1/expenses", s.postExpense)
    s.rt.Patch("/v1/expenses/{id}", s.patchExpense)
    s.rt.Delete("/v1/expenses/{id}", s.deleteExpense)
    // Categories; the static status route is matched before {id}
    s.rt.Get("/v1/categories", s.listCategories)
    s.rt.Get("/v1/categories/status", s.categoryStatuses)
    s.rt.Post("/v1/categories", s.postCategory)
    s.rt.Patch("/v1/categories/{id}", s.patchCategory)
    s.rt.Delete("/v1/categories/{id}", s.deleteCategory)
    // Savings goal
    s.rt.Get("/v1/goal", s.getGoal)
    s.rt.Put("/v1/goal", s.putGoal)
    s.rt.Delete("/v1/goal", s.deleteGoal)
    // Reports
    s.rt.Get("/v1/summary", s.summary)
    s.rt.Post("/v1/rollover", s.rollover)
    s.rt.Get("/v1/export.xlsx", s.exportXLSX)
    // Health and metrics (unversioned)
    s.rt.Get("/healthz", s.healthz)
    s.rt.Get("/readyz", s.readyz)
    s.rt.Handle("/metrics", metricsHandler())
}
