package calendar_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/billbatista/household-hub/apperr"
	"github.com/billbatista/household-hub/calendar"
	"github.com/billbatista/household-hub/member"
	"github.com/billbatista/household-hub/store/storetest"
	"github.com/google/uuid"
)

var base = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time {
	return &t
}

func TestAddValidation(t *testing.T) {
	repo := calendar.NewRepository(storetest.New(t))

	tests := []struct {
		name string
		in   calendar.Input
		want error
	}{
		{"blank title", calendar.Input{Title: " ", Start: base}, calendar.ErrEmptyTitle},
		{"no start", calendar.Input{Title: "Dinner"}, calendar.ErrMissingStart},
		{"end before start", calendar.Input{Title: "Dinner", Start: base, End: ptr(base.Add(-time.Hour))}, calendar.ErrEndBeforeStart},
		{"negative guests", calendar.Input{Title: "Dinner", Start: base, GuestCount: -1}, calendar.ErrNegativeGuestCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Add(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddWithHost(t *testing.T) {
	s := storetest.New(t)
	repo := calendar.NewRepository(s)
	members := member.NewRepository(s)
	ctx := context.Background()

	alice, err := members.Create(ctx, member.Input{Name: "Alice", Color: "#F59E0B"})
	if err != nil {
		t.Fatal(err)
	}

	event, err := repo.Add(ctx, calendar.Input{
		Title:        "Game night",
		HostMemberID: uuid.NullUUID{UUID: alice.ID, Valid: true},
		Start:        base,
		End:          ptr(base.Add(3 * time.Hour)),
		GuestCount:   4,
		Notes:        "bring snacks",
	})
	if err != nil {
		t.Fatal(err)
	}
	if event.HostName != "Alice" || event.HostColor != "#F59E0B" || event.GuestCount != 4 {
		t.Fatalf("event = %+v", event)
	}
	if !event.Start.Equal(base) || event.End == nil || !event.End.Equal(base.Add(3*time.Hour)) {
		t.Fatalf("times = %v / %v", event.Start, event.End)
	}

	ghost := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	if _, err := repo.Add(ctx, calendar.Input{Title: "Party", Start: base, HostMemberID: ghost}); !apperr.IsNotFound(err) {
		t.Fatalf("unknown host: err = %v", err)
	}
}

func TestListAndUpcoming(t *testing.T) {
	repo := calendar.NewRepository(storetest.New(t))
	ctx := context.Background()

	add := func(title string, start time.Time, end *time.Time) {
		t.Helper()
		if _, err := repo.Add(ctx, calendar.Input{Title: title, Start: start, End: end}); err != nil {
			t.Fatal(err)
		}
	}
	add("later", base.Add(48*time.Hour), nil)
	add("past", base.Add(-48*time.Hour), nil)
	add("ongoing", base.Add(-time.Hour), ptr(base.Add(time.Hour)))
	add("soon", base.Add(time.Hour), nil)

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	assertTitles(t, all, "past", "ongoing", "soon", "later")

	upcoming, err := repo.Upcoming(ctx, base, 0)
	if err != nil {
		t.Fatal(err)
	}
	assertTitles(t, upcoming, "ongoing", "soon", "later")

	limited, err := repo.Upcoming(ctx, base, 1)
	if err != nil {
		t.Fatal(err)
	}
	assertTitles(t, limited, "ongoing")
}

func TestUpdateAndDelete(t *testing.T) {
	repo := calendar.NewRepository(storetest.New(t))
	ctx := context.Background()

	event, err := repo.Add(ctx, calendar.Input{Title: "Dinner", Start: base})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := repo.Update(ctx, event.ID, calendar.Input{Title: "Late dinner", Start: base.Add(time.Hour), GuestCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Late dinner" || updated.GuestCount != 2 || !updated.Start.Equal(base.Add(time.Hour)) {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := repo.Update(ctx, uuid.New(), calendar.Input{Title: "x", Start: base}); !apperr.IsNotFound(err) {
		t.Fatalf("unknown event: err = %v", err)
	}

	for i, want := range []bool{true, false} {
		deleted, err := repo.Delete(ctx, event.ID)
		if err != nil || deleted != want {
			t.Fatalf("delete #%d = %v, %v", i+1, deleted, err)
		}
	}
}

func assertTitles(t *testing.T, events []calendar.Event, want ...string) {
	t.Helper()
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, title := range want {
		if events[i].Title != title {
			t.Fatalf("position %d = %q, want %q", i, events[i].Title, title)
		}
	}
}
