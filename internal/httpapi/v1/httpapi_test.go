package v1

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "io"
    "log/slog"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/govalues/decimal"
    "github.com/govalues/money"

    "github.com/tinoosan/budget/internal/ledger"
    "github.com/tinoosan/budget/internal/migration"
    "github.com/tinoosan/budget/internal/schema"
    "github.com/tinoosan/budget/internal/service/budget"
    "github.com/tinoosan/budget/internal/storage/memory"
)

func testLogger() *slog.Logger {
    return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

type errResp struct {
    Error string `json:"error"`
    Code  string `json:"code"`
    Field string `json:"field"`
}

type entryResp struct {
    ID          string `json:"id"`
    Description string `json:"description"`
    Amount      string `json:"amount"`
    Currency    string `json:"currency"`
    CategoryID  string `json:"category_id"`
    Period      string `json:"period"`
}

type categoryResp struct {
    ID              string `json:"id"`
    Name            string `json:"name"`
    AllocationType  string `json:"allocation_type"`
    AllocationValue string `json:"allocation_value"`
    CarryForward    string `json:"carry_forward"`
    Allocated       string `json:"allocated"`
    Spent           string `json:"spent"`
    Remaining       string `json:"remaining"`
    OverBudget      bool   `json:"over_budget"`
}

// failingKV fails every Save once armed.
type failingKV struct {
    *memory.Store
    fail bool
}

func (f *failingKV) Save(ctx context.Context, key string, value []byte) error {
    if f.fail { return errors.New("disk full") }
    return f.Store.Save(ctx, key, value)
}

type notReady struct{}

func (notReady) Ready(context.Context) error { return errors.New("db down") }

func openBook(t *testing.T, kv schema.KV, clk *testClock) *budget.Book {
    t.Helper()
    b, err := budget.Open(context.Background(), kv, budget.Options{
        Currency: money.USD,
        IDs:      &ledger.Sequence{},
        Clock:    clk.now,
        Logger:   testLogger(),
        Seed:     []migration.SeedCategory{},
    })
    if err != nil { t.Fatalf("open book: %v", err) }
    return b
}

func setup(t *testing.T, opts Options) (http.Handler, *testClock) {
    t.Helper()
    clk := &testClock{t: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
    b := openBook(t, memory.New(), clk)
    return New(b, testLogger(), opts).Handler(), clk
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
    t.Helper()
    var rd io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil { t.Fatalf("marshal: %v", err) }
        rd = bytes.NewReader(b)
    }
    req := httptest.NewRequest(method, path, rd)
    if body != nil { req.Header.Set("Content-Type", "application/json") }
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)
    return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
    t.Helper()
    var v T
    if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
        t.Fatalf("decode %q: %v", rec.Body.String(), err)
    }
    return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
    t.Helper()
    if rec.Code != want {
        t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
    }
}

func decEq(t *testing.T, field, got, want string) {
    t.Helper()
    g, err := decimal.Parse(got)
    if err != nil { t.Fatalf("%s: parse %q: %v", field, got, err) }
    if g.Cmp(decimal.MustParse(want)) != 0 {
        t.Fatalf("%s: expected %s, got %s", field, want, got)
    }
}

func createCategory(t *testing.T, h http.Handler, name, typ, value string) categoryResp {
    t.Helper()
    rec := do(t, h, http.MethodPost, "/v1/categories", map[string]any{"name": name, "allocation_type": typ, "allocation_value": value})
    expectStatus(t, rec, http.StatusCreated)
    return decode[categoryResp](t, rec)
}

func TestFoodOverBudgetFlow(t *testing.T) {
    h, _ := setup(t, Options{})

    rec := do(t, h, http.MethodPost, "/v1/incomes", map[string]any{"description": "salary", "amount": 1000})
    expectStatus(t, rec, http.StatusCreated)
    in := decode[entryResp](t, rec)
    if in.Currency != "USD" || in.Period != "2025-01" {
        t.Fatalf("unexpected income: %+v", in)
    }
    decEq(t, "income amount", in.Amount, "1000")

    food := createCategory(t, h, "Food", "fixed", "300")
    rec = do(t, h, http.MethodPost, "/v1/expenses", map[string]any{"description": "groceries", "amount": "350", "category_id": food.ID})
    expectStatus(t, rec, http.StatusCreated)

    rec = do(t, h, http.MethodGet, "/v1/categories/status?period=2025-01", nil)
    expectStatus(t, rec, http.StatusOK)
    st := decode[struct {
        Period string         `json:"period"`
        Items  []categoryResp `json:"items"`
    }](t, rec)
    if st.Period != "2025-01" || len(st.Items) != 1 {
        t.Fatalf("unexpected statuses: %+v", st)
    }
    f := st.Items[0]
    if f.Name != "Food" || !f.OverBudget {
        t.Fatalf("expected Food over budget: %+v", f)
    }
    decEq(t, "allocated", f.Allocated, "300")
    decEq(t, "spent", f.Spent, "350")
    decEq(t, "remaining", f.Remaining, "-50")

    rec = do(t, h, http.MethodGet, "/v1/summary?period=2025-01", nil)
    expectStatus(t, rec, http.StatusOK)
    sum := decode[struct {
        Income  string `json:"income"`
        Expense string `json:"expense"`
        Balance string `json:"balance"`
    }](t, rec)
    decEq(t, "income", sum.Income, "1000")
    decEq(t, "expense", sum.Expense, "350")
    decEq(t, "balance", sum.Balance, "650")

    // other periods are empty
    rec = do(t, h, http.MethodGet, "/v1/expenses?period=2024-12", nil)
    expectStatus(t, rec, http.StatusOK)
    if items := decode[listResponse[entryResp]](t, rec).Items; len(items) != 0 {
        t.Fatalf("expected no December expenses, got %d", len(items))
    }
}

func TestErrorMapping(t *testing.T) {
    h, _ := setup(t, Options{})
    food := createCategory(t, h, "Food", "fixed", "300")

    cases := []struct {
        name   string
        method string
        path   string
        body   any
        raw    string
        ctype  string
        status int
        code   string
    }{
        {name: "negative amount", method: http.MethodPost, path: "/v1/expenses", body: map[string]any{"description": "x", "amount": "-5", "category_id": food.ID}, status: http.StatusUnprocessableEntity, code: "validation_error"},
        {name: "unknown category", method: http.MethodPost, path: "/v1/expenses", body: map[string]any{"description": "x", "amount": "5", "category_id": "00000000-0000-0000-0000-00000000beef"}, status: http.StatusUnprocessableEntity, code: "validation_error"},
        {name: "missing amount", method: http.MethodPost, path: "/v1/incomes", body: map[string]any{"description": "x"}, status: http.StatusUnprocessableEntity, code: "validation_error"},
        {name: "duplicate name", method: http.MethodPost, path: "/v1/categories", body: map[string]any{"name": "food", "allocation_type": "fixed", "allocation_value": "1"}, status: http.StatusUnprocessableEntity, code: "validation_error"},
        {name: "percent out of range", method: http.MethodPost, path: "/v1/categories", body: map[string]any{"name": "Fun", "allocation_type": "percent_of_income", "allocation_value": "101"}, status: http.StatusUnprocessableEntity, code: "validation_error"},
        {name: "unknown field", method: http.MethodPost, path: "/v1/incomes", raw: `{"description":"x","amount":"1","extra":true}`, ctype: "application/json", status: http.StatusBadRequest, code: "bad_request"},
        {name: "malformed json", method: http.MethodPost, path: "/v1/incomes", raw: `{"description":`, ctype: "application/json", status: http.StatusBadRequest, code: "bad_request"},
        {name: "not json", method: http.MethodPost, path: "/v1/incomes", raw: `description=x`, ctype: "application/x-www-form-urlencoded", status: http.StatusUnsupportedMediaType, code: "unsupported_media_type"},
        {name: "unknown income", method: http.MethodPatch, path: "/v1/incomes/00000000-0000-0000-0000-00000000beef", body: map[string]any{"description": "y"}, status: http.StatusNotFound, code: "not_found"},
        {name: "unknown category delete", method: http.MethodDelete, path: "/v1/categories/00000000-0000-0000-0000-00000000beef", status: http.StatusNotFound, code: "not_found"},
        {name: "bad id", method: http.MethodDelete, path: "/v1/expenses/not-a-uuid", status: http.StatusBadRequest, code: "bad_request"},
        {name: "bad period", method: http.MethodGet, path: "/v1/summary?period=2025-13", status: http.StatusBadRequest, code: "bad_request"},
        {name: "no goal", method: http.MethodGet, path: "/v1/goal", status: http.StatusNotFound, code: "not_found"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            var rec *httptest.ResponseRecorder
            if tc.raw != "" {
                req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.raw))
                req.Header.Set("Content-Type", tc.ctype)
                rec = httptest.NewRecorder()
                h.ServeHTTP(rec, req)
            } else {
                rec = do(t, h, tc.method, tc.path, tc.body)
            }
            expectStatus(t, rec, tc.status)
            if e := decode[errResp](t, rec); e.Code != tc.code {
                t.Fatalf("expected code %q, got %+v", tc.code, e)
            }
        })
    }
}

func TestPatchMergesFields(t *testing.T) {
    h, _ := setup(t, Options{})
    food := createCategory(t, h, "Food", "fixed", "300")
    misc := createCategory(t, h, "Misc", "fixed", "50")
    rec := do(t, h, http.MethodPost, "/v1/expenses", map[string]any{"description": "lunch", "amount": "12.50", "category_id": food.ID})
    expectStatus(t, rec, http.StatusCreated)
    ex := decode[entryResp](t, rec)

    rec = do(t, h, http.MethodPatch, "/v1/expenses/"+ex.ID, map[string]any{"category_id": misc.ID})
    expectStatus(t, rec, http.StatusOK)
    got := decode[entryResp](t, rec)
    if got.Description != "lunch" || got.CategoryID != misc.ID {
        t.Fatalf("unexpected patched expense: %+v", got)
    }
    decEq(t, "amount", got.Amount, "12.50")

    rec = do(t, h, http.MethodPatch, "/v1/categories/"+food.ID, map[string]any{"name": "Groceries"})
    expectStatus(t, rec, http.StatusOK)
    c := decode[categoryResp](t, rec)
    if c.Name != "Groceries" || c.AllocationType != "fixed" {
        t.Fatalf("unexpected patched category: %+v", c)
    }
    decEq(t, "allocation", c.AllocationValue, "300")
}

func TestDeleteCategoryCascades(t *testing.T) {
    h, _ := setup(t, Options{})
    food := createCategory(t, h, "Food", "fixed", "300")
    for _, amt := range []string{"10", "20"} {
        rec := do(t, h, http.MethodPost, "/v1/expenses", map[string]any{"description": "x", "amount": amt, "category_id": food.ID})
        expectStatus(t, rec, http.StatusCreated)
    }

    rec := do(t, h, http.MethodDelete, "/v1/categories/"+food.ID, nil)
    expectStatus(t, rec, http.StatusOK)
    if n := decode[struct {
        DeletedExpenses int `json:"deleted_expenses"`
    }](t, rec).DeletedExpenses; n != 2 {
        t.Fatalf("expected 2 deleted expenses, got %d", n)
    }
    rec = do(t, h, http.MethodGet, "/v1/expenses", nil)
    if items := decode[listResponse[entryResp]](t, rec).Items; len(items) != 0 {
        t.Fatalf("expected cascade to remove expenses, got %d", len(items))
    }
}

func TestGoalLifecycle(t *testing.T) {
    h, _ := setup(t, Options{})
    expectStatus(t, do(t, h, http.MethodPost, "/v1/incomes", map[string]any{"description": "salary", "amount": "1000"}), http.StatusCreated)
    food := createCategory(t, h, "Food", "fixed", "300")
    expectStatus(t, do(t, h, http.MethodPost, "/v1/expenses", map[string]any{"description": "x", "amount": "950", "category_id": food.ID}), http.StatusCreated)

    rec := do(t, h, http.MethodPut, "/v1/goal", map[string]any{"type": "percent_of_income", "value": 10})
    expectStatus(t, rec, http.StatusOK)

    rec = do(t, h, http.MethodGet, "/v1/summary", nil)
    expectStatus(t, rec, http.StatusOK)
    sum := decode[struct {
        Period   string `json:"period"`
        Progress *struct {
            Target          string `json:"target"`
            Saved           string `json:"saved"`
            Achieved        bool   `json:"achieved"`
            PercentAchieved string `json:"percent_achieved"`
        } `json:"progress"`
    }](t, rec)
    if sum.Period != "2025-01" || sum.Progress == nil || sum.Progress.Achieved {
        t.Fatalf("unexpected summary: %+v", sum)
    }
    decEq(t, "target", sum.Progress.Target, "100")
    decEq(t, "saved", sum.Progress.Saved, "50")
    decEq(t, "percent", sum.Progress.PercentAchieved, "50")

    expectStatus(t, do(t, h, http.MethodPut, "/v1/goal", map[string]any{"type": "fixed", "value": "-1"}), http.StatusUnprocessableEntity)
    expectStatus(t, do(t, h, http.MethodDelete, "/v1/goal", nil), http.StatusNoContent)
    expectStatus(t, do(t, h, http.MethodGet, "/v1/goal", nil), http.StatusNotFound)
}

func TestRolloverEndpoint(t *testing.T) {
    h, clk := setup(t, Options{})
    food := createCategory(t, h, "Food", "fixed", "300")
    expectStatus(t, do(t, h, http.MethodPost, "/v1/expenses", map[string]any{"description": "x", "amount": "240", "category_id": food.ID}), http.StatusCreated)

    type rolloverResp struct {
        LastRollover string `json:"last_rollover"`
        Events       []struct {
            Kind       string `json:"kind"`
            Amount     string `json:"amount"`
            CarryAfter string `json:"carry_after"`
        } `json:"events"`
    }

    clk.t = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
    rec := do(t, h, http.MethodPost, "/v1/rollover", nil)
    expectStatus(t, rec, http.StatusOK)
    rr := decode[rolloverResp](t, rec)
    if rr.LastRollover != "2025-02" || len(rr.Events) != 1 || rr.Events[0].Kind != "carried" {
        t.Fatalf("unexpected rollover: %+v", rr)
    }
    decEq(t, "carried", rr.Events[0].Amount, "60")

    // second run in the same period is a no-op
    rec = do(t, h, http.MethodPost, "/v1/rollover", nil)
    expectStatus(t, rec, http.StatusOK)
    if rr = decode[rolloverResp](t, rec); len(rr.Events) != 0 {
        t.Fatalf("expected idempotent rollover, got %+v", rr)
    }
    // explicit replay of the applied transition is also a no-op
    rec = do(t, h, http.MethodPost, "/v1/rollover", map[string]any{"from": "2025-01", "to": "2025-02"})
    expectStatus(t, rec, http.StatusOK)
    if rr = decode[rolloverResp](t, rec); len(rr.Events) != 0 {
        t.Fatalf("expected replay to be ignored, got %+v", rr)
    }
    expectStatus(t, do(t, h, http.MethodPost, "/v1/rollover", map[string]any{"from": "bad", "to": "2025-02"}), http.StatusUnprocessableEntity)

    rec = do(t, h, http.MethodGet, "/v1/categories", nil)
    cats := decode[listResponse[categoryResp]](t, rec).Items
    if len(cats) != 1 {
        t.Fatalf("expected one category, got %d", len(cats))
    }
    decEq(t, "carry", cats[0].CarryForward, "60")
}

func TestStorageFailureMapsTo503(t *testing.T) {
    kv := &failingKV{Store: memory.New()}
    clk := &testClock{t: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
    h := New(openBook(t, kv, clk), testLogger(), Options{Ready: notReady{}}).Handler()

    kv.fail = true
    rec := do(t, h, http.MethodPost, "/v1/incomes", map[string]any{"description": "salary", "amount": "10"})
    expectStatus(t, rec, http.StatusServiceUnavailable)
    if e := decode[errResp](t, rec); e.Code != "storage_unavailable" {
        t.Fatalf("unexpected error: %+v", e)
    }
    // the change stands in memory
    rec = do(t, h, http.MethodGet, "/v1/incomes", nil)
    if items := decode[listResponse[entryResp]](t, rec).Items; len(items) != 1 {
        t.Fatalf("expected in-memory income to stand, got %d", len(items))
    }
    expectStatus(t, do(t, h, http.MethodGet, "/readyz", nil), http.StatusServiceUnavailable)
    expectStatus(t, do(t, h, http.MethodGet, "/healthz", nil), http.StatusOK)
}

func TestAPIToken(t *testing.T) {
    h, _ := setup(t, Options{APIToken: "s3cret", Ready: memory.New()})

    expectStatus(t, do(t, h, http.MethodGet, "/v1/categories", nil), http.StatusUnauthorized)

    req := httptest.NewRequest(http.MethodGet, "/v1/categories", nil)
    req.Header.Set("Authorization", "Bearer wrong")
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)
    expectStatus(t, rec, http.StatusUnauthorized)

    req = httptest.NewRequest(http.MethodGet, "/v1/categories", nil)
    req.Header.Set("Authorization", "Bearer s3cret")
    rec = httptest.NewRecorder()
    h.ServeHTTP(rec, req)
    expectStatus(t, rec, http.StatusOK)

    expectStatus(t, do(t, h, http.MethodGet, "/readyz", nil), http.StatusOK)
}

func TestExportAndMetrics(t *testing.T) {
    h, _ := setup(t, Options{})
    createCategory(t, h, "Food", "fixed", "300")

    rec := do(t, h, http.MethodGet, "/v1/export.xlsx?period=2025-01", nil)
    expectStatus(t, rec, http.StatusOK)
    if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
        t.Fatalf("unexpected content type %q", ct)
    }
    if !strings.Contains(rec.Header().Get("Content-Disposition"), "budget-2025-01.xlsx") {
        t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
    }
    // xlsx is a zip archive
    if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
        t.Fatalf("body is not a zip archive")
    }

    CountRolloverEvent(string(ledger.CarryKindCarried))
    rec = do(t, h, http.MethodGet, "/metrics", nil)
    expectStatus(t, rec, http.StatusOK)
    body := rec.Body.String()
    for _, name := range []string{"budget_http_requests_total", "budget_http_request_duration_seconds", "budget_rollover_events_total"} {
        if !strings.Contains(body, name) {
            t.Fatalf("metrics output missing %s", name)
        }
    }
}
