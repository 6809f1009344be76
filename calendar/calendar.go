// Package calendar stores household events: dinners, visits, parties.
package calendar

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/billbatista/household-hub/apperr"
	"github.com/google/uuid"
)

const (
	EventCreated = "calendar.event_created"
	EventUpdated = "calendar.event_updated"
	EventDeleted = "calendar.event_deleted"

	DefaultUpcomingLimit = 10
	maxUpcomingLimit     = 100
)

type Event struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	HostMemberID uuid.NullUUID `json:"host_member_id"`
	HostName     string        `json:"host_name,omitempty"`
	HostColor    string        `json:"host_color,omitempty"`
	Start        time.Time     `json:"start"`
	End          *time.Time    `json:"end,omitempty"`
	GuestCount   int           `json:"guest_count"`
	Notes        string        `json:"notes,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type Input struct {
	Title        string        `json:"title"`
	HostMemberID uuid.NullUUID `json:"host_member_id"`
	Start        time.Time     `json:"start"`
	End          *time.Time    `json:"end,omitempty"`
	GuestCount   int           `json:"guest_count"`
	Notes        string        `json:"notes,omitempty"`
}

var (
	ErrEmptyTitle         = apperr.Validation("title", "title can't be empty")
	ErrTitleTooLong       = apperr.Validation("title", "title can't be longer than 200 characters")
	ErrMissingStart       = apperr.Validation("start", "start is required")
	ErrEndBeforeStart     = apperr.Validation("end", "end can't be before start")
	ErrNegativeGuestCount = apperr.Validation("guest_count", "guest_count can't be negative")
)

func (in Input) normalize() (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Notes = strings.TrimSpace(in.Notes)

	if in.Title == "" {
		return in, ErrEmptyTitle
	}
	if utf8.RuneCountInString(in.Title) > 200 {
		return in, ErrTitleTooLong
	}
	if in.Start.IsZero() {
		return in, ErrMissingStart
	}
	if in.End != nil && in.End.Before(in.Start) {
		return in, ErrEndBeforeStart
	}
	if in.GuestCount < 0 {
		return in, ErrNegativeGuestCount
	}
	return in, nil
}

type Repository interface {
	// List returns every event by start time.
	List(ctx context.Context) ([]Event, error)
	// Upcoming returns events that haven't finished by now, soonest first.
	Upcoming(ctx context.Context, now time.Time, limit int) ([]Event, error)
	Add(ctx context.Context, in Input) (*Event, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
