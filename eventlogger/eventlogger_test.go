package eventlogger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/billbatista/household-hub/store/storetest"
	amqp "github.com/rabbitmq/amqp091-go"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *memorySink) Save(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *memorySink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestNewEventOptions(t *testing.T) {
	e := NewEvent(
		WithType("expense.added"),
		WithData(map[string]string{"description": "Groceries"}),
		WithMetadata(map[string]string{"request_id": "abc"}),
	)

	if e.Type != "expense.added" {
		t.Errorf("Type = %q", e.Type)
	}
	if e.Metadata["request_id"] != "abc" {
		t.Errorf("Metadata = %v", e.Metadata)
	}
	if e.ID.Version() != 7 {
		t.Errorf("id version = %d, want 7", e.ID.Version())
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestWorkerDrainsOnShutdown(t *testing.T) {
	sink := &memorySink{}
	w := NewWorker(sink, 50)
	w.Start()

	for range 20 {
		w.Log(NewEvent(WithType("shopping.item_added")))
	}
	w.Shutdown()

	if got := sink.len(); got != 20 {
		t.Fatalf("saved %d events, want 20", got)
	}

	// Logging after shutdown drops instead of panicking.
	w.Log(NewEvent(WithType("late")))
	w.Shutdown()
}

func TestWorkerAccountsForEventsLoggedDuringShutdown(t *testing.T) {
	const loggers, perLogger = 8, 200

	for range 20 {
		sink := &memorySink{}
		var dropped atomic.Int64
		w := NewWorker(sink, 16, OnDrop(func(Event) { dropped.Add(1) }))
		w.Start()

		var wg sync.WaitGroup
		for range loggers {
			wg.Go(func() {
				for range perLogger {
					w.Log(NewEvent(WithType("shopping.item_purchased")))
				}
			})
		}
		w.Shutdown()
		wg.Wait()

		if got := int64(sink.len()) + dropped.Load(); got != loggers*perLogger {
			t.Fatalf("saved %d + dropped %d = %d, want %d", sink.len(), dropped.Load(), got, loggers*perLogger)
		}
	}
}

func TestWorkerDropsWhenFull(t *testing.T) {
	var dropped int
	w := NewWorker(&memorySink{}, 1, OnDrop(func(Event) { dropped++ }))

	// Not started, so nothing drains the buffer.
	for range 3 {
		w.Log(NewEvent(WithType("appliance.started")))
	}
	if dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("broker down")
	ok := &memorySink{}
	failing := &memorySink{err: boom}

	err := Multi(failing, ok).Save(context.Background(), NewEvent(WithType("x")))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if ok.len() != 1 {
		t.Fatal("healthy sink should still receive the event")
	}
}

func TestSqlEventLoggerRoundTrip(t *testing.T) {
	s := storetest.New(t)
	logger := NewSqlEventLogger(s.DB())
	ctx := context.Background()

	first := NewEvent(WithType("expense.added"), WithData(map[string]any{"amount": "50.00"}))
	second := NewEvent(WithType("expense.added"), WithMetadata(map[string]string{"source": "test"}))
	other := NewEvent(WithType("member.created"))
	for _, e := range []Event{first, second, other} {
		if err := logger.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	events, err := logger.GetByType(ctx, "expense.added", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != second.ID || events[1].ID != first.ID {
		t.Fatalf("expected newest first, got %v then %v", events[0].ID, events[1].ID)
	}
	if events[0].Metadata["source"] != "test" {
		t.Errorf("metadata = %v", events[0].Metadata)
	}

	var data map[string]string
	raw, ok := events[1].Data.(json.RawMessage)
	if !ok {
		t.Fatalf("data type = %T", events[1].Data)
	}
	if err := json.Unmarshal(raw, &data); err != nil || data["amount"] != "50.00" {
		t.Fatalf("data = %s (%v)", raw, err)
	}
}

func TestPublishingRoutesByType(t *testing.T) {
	e := NewEvent(WithType("expense.deleted"), WithData(map[string]string{"id": "1"}))

	msg, err := publishing(e)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != "expense.deleted" || msg.MessageId != e.ID.String() {
		t.Fatalf("unexpected headers: %+v", msg)
	}
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" {
		t.Fatalf("unexpected delivery settings: %+v", msg)
	}

	var decoded Event
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ID != e.ID || decoded.Type != e.Type {
		t.Fatalf("decoded = %+v", decoded)
	}
}
