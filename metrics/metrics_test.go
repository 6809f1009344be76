package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ExpenseAdded(100)
	m.ExpenseDeleted()
	m.ActivityDropped()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestLedgerCounters(t *testing.T) {
	m := New()
	m.ExpenseAdded(5000)
	m.ExpenseAdded(1250)
	m.ExpenseDeleted()

	if got := testutil.ToFloat64(m.expensesAdded); got != 2 {
		t.Errorf("expenses added = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.expenseCents); got != 6250 {
		t.Errorf("expense cents = %v, want 6250", got)
	}
	if got := testutil.ToFloat64(m.expensesDeleted); got != 1 {
		t.Errorf("expenses deleted = %v, want 1", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/members/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/members/"+id, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/members/{id}", http.MethodGet, "404"))
	if got != 3 {
		t.Fatalf("requests = %v, want 3", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ExpenseAdded(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "household_expenses_added_total 1") {
		t.Fatalf("exposition missing counter:\n%s", rec.Body.String())
	}
}
