package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kannadi/internal/cache"
	"kannadi/internal/core"
	"kannadi/internal/ledger/memory"
	applog "kannadi/internal/log"
	"kannadi/internal/services"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv   *Server
	store *memory.Store
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	store, err := memory.NewWithDefaults()
	if err != nil {
		t.Fatal(err)
	}
	logger := applog.New(applog.Config{Output: io.Discard})
	reports := services.NewReportService(store, cache.NewLRUCache[any](64, time.Hour),
		services.ReportOptions{DefaultCurrency: "EUR"}, logger)
	tx := services.NewTransactionService(store, nil, reports, logger)
	svc := Services{
		Transactions: tx,
		Reports:      reports,
		Recurring:    services.NewRecurringProcessor(store, tx, logger),
		State:        services.NewStateService(store, nil, reports, "EUR", logger),
	}
	if opts.WriteRateLimit == 0 {
		opts.WriteRateLimit = 1000
	}
	opts.Now = func() time.Time { return fixedNow }
	srv := NewServer(opts, svc, logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: store}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, months ...string) {
	t.Helper()
	ctx := context.Background()
	for _, m := range months {
		d, _ := core.ParseDate(m + "-01")
		if _, err := e.store.AppendIncome(ctx, core.IncomeEntry{Date: d, Source: "Salary", Amount: core.FromValue(3000)}); err != nil {
			t.Fatal(err)
		}
		if _, err := e.store.AppendExpense(ctx, core.Expense{Date: d, Amount: core.FromValue(1500), CategoryID: "cat-1", CategoryType: core.Needs}); err != nil {
			t.Fatal(err)
		}
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, Options{})
	if rec := env.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}

	down := newTestEnv(t, Options{Ready: func(context.Context) error { return errors.New("db gone") }})
	rec := down.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing check = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db gone") {
		t.Error("readiness error leaked to client")
	}
}

func TestExpenseLifecycle(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/expenses",
		`{"date":"2024-06-03","description":"Groceries","amount":42.10,"categoryId":"cat-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body)
	}
	created := decode[core.ExpenseRecord](t, rec)
	if created.ID == "" || created.Amount != 42.10 || created.CategoryType != core.Needs || created.Month != "2024-06" {
		t.Fatalf("unexpected record: %+v", created)
	}

	list := decode[[]core.ExpenseRecord](t, env.do(t, http.MethodGet, "/api/expenses?from=2024-06&to=2024-06", ""))
	if len(list) != 1 {
		t.Fatalf("listed %d expenses, want 1", len(list))
	}
	if other := decode[[]core.ExpenseRecord](t, env.do(t, http.MethodGet, "/api/expenses?from=2024-07", "")); len(other) != 0 {
		t.Fatalf("July should be empty, got %d", len(other))
	}

	if rec := env.do(t, http.MethodDelete, "/api/expenses/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/expenses/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", rec.Code)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, Options{})
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed json", "/api/expenses", `{"date":`, http.StatusBadRequest},
		{"unknown field", "/api/expenses", `{"date":"2024-06-01","amount":1,"categoryId":"cat-1","tip":2}`, http.StatusBadRequest},
		{"two objects", "/api/expenses", `{"date":"2024-06-01","amount":1,"categoryId":"cat-1"}{}`, http.StatusBadRequest},
		{"bad date", "/api/expenses", `{"date":"03/06/2024","amount":1,"categoryId":"cat-1"}`, http.StatusBadRequest},
		{"unknown category", "/api/expenses", `{"date":"2024-06-01","amount":1,"categoryId":"nope"}`, http.StatusUnprocessableEntity},
		{"zero amount", "/api/expenses", `{"date":"2024-06-01","amount":0,"categoryId":"cat-1"}`, http.StatusBadRequest},
		{"income without source", "/api/incomes", `{"date":"2024-06-01","amount":10,"source":"  "}`, http.StatusUnprocessableEntity},
		{"amount as string", "/api/incomes", `{"date":"2024-06-01","amount":"ten","source":"Job"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("missing error body: %s", rec.Body)
			}
		})
	}
}

func TestCategoriesAndCurrencies(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/categories", `{"name":"Pets","type":"wants"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category = %d: %s", rec.Code, rec.Body)
	}
	pets := decode[core.Category](t, rec)

	groups := decode[[]core.CategoryGroup](t, env.do(t, http.MethodGet, "/api/categories?type=wants", ""))
	found := false
	for _, g := range groups {
		if g.Category.Type != core.Wants {
			t.Errorf("group of type %s in wants listing", g.Category.Type)
		}
		found = found || g.Category.ID == pets.ID
	}
	if !found {
		t.Error("custom category missing from wants groups")
	}
	if rec := env.do(t, http.MethodGet, "/api/categories?type=luxury", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad type = %d", rec.Code)
	}

	yen := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/currencies?q=yen", ""))
	if len(yen) == 0 || yen[0]["code"] != "JPY" {
		t.Errorf("currency search = %v", yen)
	}
}

func TestSummaryPeriods(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t, "2024-05", "2024-06")

	month := decode[services.PeriodSummary](t, env.do(t, http.MethodGet, "/api/summary", ""))
	if month.Period != "2024-06" || month.Summary.Income != 3000 {
		t.Fatalf("default summary = %+v", month)
	}
	year := decode[services.PeriodSummary](t, env.do(t, http.MethodGet, "/api/summary?month=2024-ALL", ""))
	if year.Summary.Income != 6000 || len(year.Months) == 0 {
		t.Fatalf("year summary = %+v", year)
	}
	if rec := env.do(t, http.MethodGet, "/api/summary?month=June", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad period = %d", rec.Code)
	}
}

func TestProjectionNeedsHistory(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t, "2024-04", "2024-05")

	rep := decode[services.ProjectionReport](t, env.do(t, http.MethodGet, "/api/projection", ""))
	if rep.Ready || rep.Needed != 1 {
		t.Fatalf("projection with two months = %+v", rep)
	}

	env.seed(t, "2024-03")
	rec := env.do(t, http.MethodPost, "/api/incomes", `{"date":"2024-06-02","amount":5,"source":"Refund"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create income = %d", rec.Code)
	}
	rep = decode[services.ProjectionReport](t, env.do(t, http.MethodGet, "/api/projection", ""))
	if !rep.Ready || rep.Projection == nil || rep.Coverage == nil {
		t.Fatalf("projection after three months = %+v", rep)
	}

	cov := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/coverage?month=2024-06", ""))
	if cov["ready"] != true || cov["coverage"] == nil {
		t.Fatalf("coverage = %v", cov)
	}
}

func TestGoalValidation(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t, "2024-03", "2024-04", "2024-05")

	tests := []struct {
		query  string
		status int
	}{
		{"target=3000&months=6", http.StatusOK},
		{"months=6", http.StatusBadRequest},
		{"target=abc&months=6", http.StatusBadRequest},
		{"target=3000&months=48", http.StatusUnprocessableEntity},
		{"target=-5&months=6", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		if rec := env.do(t, http.MethodGet, "/api/goal?"+tt.query, ""); rec.Code != tt.status {
			t.Errorf("goal?%s = %d, want %d: %s", tt.query, rec.Code, tt.status, rec.Body)
		}
	}
}

func TestRecurringEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/recurring",
		`{"type":"expense","amount":900,"description":"Rent","categoryId":"cat-1","frequency":"monthly","dayOfMonth":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save = %d: %s", rec.Code, rec.Body)
	}
	rent := decode[core.RecurringRecord](t, rec)
	if !rent.IsActive {
		t.Error("new template should be active")
	}

	if pending := decode[[]core.RecurringRecord](t, env.do(t, http.MethodGet, "/api/recurring/pending", "")); len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	applied := decode[map[string]any](t, env.do(t, http.MethodPost, "/api/recurring/apply", ""))
	if applied["applied"] != float64(1) {
		t.Fatalf("apply = %v", applied)
	}
	if pending := decode[[]core.RecurringRecord](t, env.do(t, http.MethodGet, "/api/recurring/pending", "")); len(pending) != 0 {
		t.Fatalf("pending after apply = %d", len(pending))
	}

	sum := decode[services.RecurringSummary](t, env.do(t, http.MethodGet, "/api/recurring/summary", ""))
	if sum.Expenses != 900 || sum.Net != -900 {
		t.Errorf("summary = %+v", sum)
	}

	if rec := env.do(t, http.MethodPost, "/api/recurring", `{"type":"expense","amount":5,"categoryId":"cat-1","frequency":"daily"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("daily frequency = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/recurring/"+rent.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
}

func TestStateRoundTrip(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t, "2024-05")

	rec := env.do(t, http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("export = %d %v", rec.Code, rec.Header())
	}
	exported := rec.Body.String()

	if rec := env.do(t, http.MethodDelete, "/api/state", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear = %d", rec.Code)
	}
	if list := decode[[]core.IncomeRecord](t, env.do(t, http.MethodGet, "/api/incomes", "")); len(list) != 0 {
		t.Fatalf("incomes after clear = %d", len(list))
	}

	rec = env.do(t, http.MethodPut, "/api/state", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("import = %d: %s", rec.Code, rec.Body)
	}
	if res := decode[services.ImportResult](t, rec); res.Incomes != 1 || res.Expenses != 1 {
		t.Fatalf("import result = %+v", res)
	}

	if rec := env.do(t, http.MethodPut, "/api/state", `{"currency":"ZZZ"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad import = %d", rec.Code)
	}
}

func TestOnboarding(t *testing.T) {
	env := newTestEnv(t, Options{})

	if s := decode[core.Settings](t, env.do(t, http.MethodGet, "/api/settings", "")); s.IsOnboarded {
		t.Fatalf("fresh install onboarded: %+v", s)
	}
	rec := env.do(t, http.MethodPut, "/api/settings", `{"currency":"jpy"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("onboard = %d: %s", rec.Code, rec.Body)
	}
	if s := decode[core.Settings](t, rec); s.Currency != "JPY" || !s.IsOnboarded {
		t.Fatalf("settings = %+v", s)
	}
	if rec := env.do(t, http.MethodPut, "/api/settings", `{"currency":"abc"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown currency = %d", rec.Code)
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	env := newTestEnv(t, Options{WriteRateLimit: 2})
	body := `{"date":"2024-06-01","amount":1,"source":"Tips"}`

	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodPost, "/api/incomes", body); rec.Code != http.StatusCreated {
			t.Fatalf("write %d = %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodPost, "/api/incomes", body)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("third write = %d, headers %v", rec.Code, rec.Header())
	}
	if rec := env.do(t, http.MethodGet, "/api/incomes", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads should not be limited, got %d", rec.Code)
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodGet, "/api/currencies", "")

	for _, h := range []string{"X-Content-Type-Options", "X-Request-ID", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec := env.do(t, http.MethodGet, "/api/nothing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d", rec.Code)
	}
}
