package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/billbatista/household-hub/appliance"
	"github.com/billbatista/household-hub/calendar"
	"github.com/billbatista/household-hub/eventlogger"
	"github.com/billbatista/household-hub/ledger"
	"github.com/billbatista/household-hub/member"
	"github.com/billbatista/household-hub/metrics"
	"github.com/billbatista/household-hub/shopping"
	"github.com/billbatista/household-hub/store/storetest"
)

// syncRecorder writes events straight to the sink so tests can read them
// back without waiting on a worker.
type syncRecorder struct {
	sink eventlogger.Sink
}

func (r syncRecorder) Log(e eventlogger.Event) {
	_ = r.sink.Save(context.Background(), e)
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	s := storetest.New(t)
	members := member.NewRepository(s)
	activity := eventlogger.NewSqlEventLogger(s.DB())
	rec := syncRecorder{sink: activity}
	m := metrics.New()

	return NewRouter(Deps{
		Store:      s,
		Members:    members,
		Ledger:     ledger.NewService(s, members, ledger.WithRecorder(rec), ledger.WithMetrics(m)),
		Shopping:   shopping.NewRepository(s),
		Calendar:   calendar.NewRepository(s),
		Appliances: appliance.NewRepository(s),
		Activity:   activity,
		Recorder:   rec,
		Metrics:    m,
		Now:        func() time.Time { return testNow },
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

func createMember(t *testing.T, h http.Handler, name string) member.Member {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/members", map[string]any{"name": name})
	expectStatus(t, rec, http.StatusCreated)
	return decodeBody[member.Member](t, rec)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/health", nil)
	expectStatus(t, rec, http.StatusOK)
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestMembersCRUD(t *testing.T) {
	h := newTestServer(t)
	alice := createMember(t, h, "Alice")

	rec := do(t, h, http.MethodGet, "/api/members/"+alice.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, h, http.MethodPut, "/api/members/"+alice.ID.String(), map[string]any{"name": "Alicia", "color": "#10B981"})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[member.Member](t, rec); got.Name != "Alicia" {
		t.Fatalf("updated = %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/api/members", map[string]any{"name": ""})
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decodeBody[errorResponse](t, rec); body.Error != member.ErrEmptyName.Message {
		t.Fatalf("error = %q", body.Error)
	}

	rec = do(t, h, http.MethodGet, "/api/members/not-a-uuid", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, h, http.MethodDelete, "/api/members/"+alice.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)
	rec = do(t, h, http.MethodGet, "/api/members/"+alice.ID.String(), nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestExpenseLifecycle(t *testing.T) {
	h := newTestServer(t)
	alice := createMember(t, h, "Alice")
	bob := createMember(t, h, "Bob")

	rec := do(t, h, http.MethodPost, "/api/expenses", map[string]any{
		"description": "Groceries",
		"amount":      50.00,
		"paid_by":     alice.ID,
		"splits": []map[string]any{
			{"member_id": alice.ID, "amount": "25.00"},
			{"member_id": bob.ID, "amount": 25},
		},
	})
	expectStatus(t, rec, http.StatusCreated)
	created := decodeBody[ledger.Expense](t, rec)
	if created.Date == "" {
		t.Fatalf("date = %q", created.Date)
	}
	if !strings.Contains(rec.Body.String(), `"amount":50.00`) {
		t.Fatalf("amount should be written with two decimals: %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/expenses", nil)
	expectStatus(t, rec, http.StatusOK)
	expenses := decodeBody[[]ledger.Expense](t, rec)
	if len(expenses) != 1 || len(expenses[0].Splits) != 2 || expenses[0].Splits[1].MemberName != "Bob" {
		t.Fatalf("expenses = %+v", expenses)
	}

	rec = do(t, h, http.MethodGet, "/api/expenses/balance", nil)
	expectStatus(t, rec, http.StatusOK)
	for _, b := range decodeBody[[]ledger.Balance](t, rec) {
		switch b.MemberID {
		case alice.ID:
			if b.Paid != 5000 || b.Owed != 2500 || b.Balance != 2500 {
				t.Errorf("alice = %+v", b)
			}
		case bob.ID:
			if b.Paid != 0 || b.Owed != 2500 || b.Balance != -2500 {
				t.Errorf("bob = %+v", b)
			}
		}
	}

	rec = do(t, h, http.MethodGet, "/api/expenses/settlements", nil)
	expectStatus(t, rec, http.StatusOK)
	if s := decodeBody[[]ledger.Settlement](t, rec); len(s) != 1 || s[0].From != bob.ID || s[0].Amount != 2500 {
		t.Fatalf("settlements = %+v", s)
	}

	rec = do(t, h, http.MethodDelete, "/api/members/"+bob.ID.String(), nil)
	expectStatus(t, rec, http.StatusConflict)

	for range 2 {
		rec = do(t, h, http.MethodDelete, "/api/expenses/"+created.ID.String(), nil)
		expectStatus(t, rec, http.StatusOK)
	}
	rec = do(t, h, http.MethodGet, "/api/expenses", nil)
	if got := decodeBody[[]ledger.Expense](t, rec); len(got) != 0 {
		t.Fatalf("expenses after delete = %+v", got)
	}

	rec = do(t, h, http.MethodGet, "/api/activity?type=expense.deleted", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[[]eventlogger.Event](t, rec); len(got) != 1 {
		t.Fatalf("expense.deleted events = %d, want 1", len(got))
	}
}

func TestAddExpenseErrors(t *testing.T) {
	h := newTestServer(t)
	alice := createMember(t, h, "Alice")
	bob := createMember(t, h, "Bob")

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"malformed JSON", `{"description":`, http.StatusBadRequest},
		{"empty description", map[string]any{
			"description": "", "amount": 10, "paid_by": alice.ID,
			"splits": []map[string]any{{"member_id": alice.ID, "amount": 10}},
		}, http.StatusBadRequest},
		{"split sum mismatch", map[string]any{
			"description": "Groceries", "amount": 50, "paid_by": alice.ID,
			"splits": []map[string]any{{"member_id": alice.ID, "amount": 25}, {"member_id": bob.ID, "amount": 24.99}},
		}, http.StatusBadRequest},
		{"no splits", map[string]any{
			"description": "Groceries", "amount": 50, "paid_by": alice.ID, "splits": []any{},
		}, http.StatusBadRequest},
		{"unknown payer", map[string]any{
			"description": "Groceries", "amount": 10, "paid_by": "00000000-0000-7000-8000-0000000000ff",
			"splits": []map[string]any{{"member_id": alice.ID, "amount": 10}},
		}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/expenses", tt.body)
			expectStatus(t, rec, tt.status)
			if body := decodeBody[errorResponse](t, rec); body.Error == "" {
				t.Fatal("error body missing")
			}
		})
	}

	rec := do(t, h, http.MethodGet, "/api/expenses", nil)
	if got := decodeBody[[]ledger.Expense](t, rec); len(got) != 0 {
		t.Fatalf("rejected expenses were stored: %+v", got)
	}
}

func TestShoppingRoutes(t *testing.T) {
	h := newTestServer(t)
	bob := createMember(t, h, "Bob")

	rec := do(t, h, http.MethodPost, "/api/shopping", map[string]any{"item_name": "Milk", "quantity": "2"})
	expectStatus(t, rec, http.StatusCreated)
	milk := decodeBody[shopping.Item](t, rec)

	rec = do(t, h, http.MethodPut, "/api/shopping/"+milk.ID.String()+"/purchase", map[string]any{"purchased_by": bob.ID})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[shopping.Item](t, rec); !got.Purchased || got.PurchasedByName != "Bob" {
		t.Fatalf("purchased = %+v", got)
	}

	rec = do(t, h, http.MethodPut, "/api/shopping/"+milk.ID.String()+"/unpurchase", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, h, http.MethodPut, "/api/shopping/"+milk.ID.String()+"/purchase", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, h, http.MethodDelete, "/api/shopping/purchased/clear", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[clearResponse](t, rec); got.Removed != 1 {
		t.Fatalf("cleared = %+v", got)
	}

	rec = do(t, h, http.MethodDelete, "/api/shopping/"+milk.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestEventRoutes(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/events", map[string]any{
		"title": "Dinner", "start": testNow.Add(2 * time.Hour), "guest_count": 3,
	})
	expectStatus(t, rec, http.StatusCreated)
	dinner := decodeBody[calendar.Event](t, rec)

	rec = do(t, h, http.MethodPost, "/api/events", map[string]any{
		"title": "Brunch", "start": testNow.Add(-24 * time.Hour),
	})
	expectStatus(t, rec, http.StatusCreated)

	rec = do(t, h, http.MethodGet, "/api/events/upcoming", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[[]calendar.Event](t, rec); len(got) != 1 || got[0].ID != dinner.ID {
		t.Fatalf("upcoming = %+v", got)
	}

	rec = do(t, h, http.MethodPut, "/api/events/"+dinner.ID.String(), map[string]any{
		"title": "Dinner", "start": testNow.Add(2 * time.Hour), "end": testNow,
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, h, http.MethodDelete, "/api/events/"+dinner.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)
	rec = do(t, h, http.MethodGet, "/api/events", nil)
	if got := decodeBody[[]calendar.Event](t, rec); len(got) != 1 {
		t.Fatalf("events = %+v", got)
	}
}

func TestApplianceRoutes(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/appliances", nil)
	expectStatus(t, rec, http.StatusOK)
	appliances := decodeBody[[]appliance.Appliance](t, rec)
	if len(appliances) != 2 {
		t.Fatalf("appliances = %+v", appliances)
	}
	washer := appliances[1]

	rec = do(t, h, http.MethodPut, "/api/appliances/"+washer.ID.String()+"/start", map[string]any{"duration_minutes": 90})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[appliance.Appliance](t, rec); got.Status != appliance.StatusInUse {
		t.Fatalf("started = %+v", got)
	}

	rec = do(t, h, http.MethodPut, "/api/appliances/"+washer.ID.String()+"/start", nil)
	expectStatus(t, rec, http.StatusConflict)

	rec = do(t, h, http.MethodPut, "/api/appliances/"+washer.ID.String()+"/done", nil)
	expectStatus(t, rec, http.StatusOK)
	rec = do(t, h, http.MethodPut, "/api/appliances/"+washer.ID.String()+"/reset", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[appliance.Appliance](t, rec); got.Status != appliance.StatusAvailable {
		t.Fatalf("reset = %+v", got)
	}

	rec = do(t, h, http.MethodPut, "/api/appliances/00000000-0000-7000-8000-0000000000ff/reset", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestActivityRequiresType(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/activity", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	createMember(t, h, "Alice")
	rec = do(t, h, http.MethodGet, "/api/activity?type=member.created", nil)
	expectStatus(t, rec, http.StatusOK)
	events := decodeBody[[]eventlogger.Event](t, rec)
	if len(events) != 1 || events[0].Metadata["request_id"] == "" {
		t.Fatalf("events = %+v", events)
	}
}

func TestMetricsAndUnknownRoutes(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodGet, "/api/members", nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "household_http_requests_total") {
		t.Fatal("request counter missing from /metrics")
	}

	rec = do(t, h, http.MethodGet, "/api/nope", nil)
	expectStatus(t, rec, http.StatusNotFound)
}
