// Package appliance tracks the shared washer and dryer.
//
// An appliance moves available -> in_use -> done and back to available on
// reset. Starting a finished machine is allowed (the load was taken out);
// starting one that is running is not.
package appliance

import (
	"context"
	"time"

	"github.com/billbatista/household-hub/apperr"
	"github.com/google/uuid"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusInUse     Status = "in_use"
	StatusDone      Status = "done"
)

const (
	EventStarted  = "appliance.started"
	EventFinished = "appliance.finished"
	EventReset    = "appliance.reset"

	DefaultDurationMinutes = 60
	maxDurationMinutes     = 24 * 60
)

type Appliance struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Status          Status        `json:"status"`
	StartedBy       uuid.NullUUID `json:"started_by"`
	StartedByName   string        `json:"started_by_name,omitempty"`
	StartedByColor  string        `json:"started_by_color,omitempty"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	EstimatedDoneAt *time.Time    `json:"estimated_done_at,omitempty"`
}

type StartInput struct {
	StartedBy uuid.NullUUID `json:"started_by"`
	// DurationMinutes of zero means DefaultDurationMinutes.
	DurationMinutes int `json:"duration_minutes,omitempty"`
}

var (
	ErrInvalidDuration = apperr.Validation("duration_minutes", "duration_minutes must be between 1 and 1440")
	ErrAlreadyRunning  = apperr.Conflict("appliance is already running")
	ErrNotRunning      = apperr.Conflict("appliance is not running")
)

func (in StartInput) duration() (time.Duration, error) {
	minutes := in.DurationMinutes
	if minutes == 0 {
		minutes = DefaultDurationMinutes
	}
	if minutes < 1 || minutes > maxDurationMinutes {
		return 0, ErrInvalidDuration
	}
	return time.Duration(minutes) * time.Minute, nil
}

type Repository interface {
	List(ctx context.Context) ([]Appliance, error)
	Start(ctx context.Context, id uuid.UUID, in StartInput) (*Appliance, error)
	Done(ctx context.Context, id uuid.UUID) (*Appliance, error)
	Reset(ctx context.Context, id uuid.UUID) (*Appliance, error)
}
