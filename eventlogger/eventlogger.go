// Package eventlogger records household activity (an expense added, an item
// bought, the washer started) as typed events. Events are queued on a Worker
// and written asynchronously to one or more sinks.
package eventlogger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      string            `json:"event_type"`
	Data      any               `json:"event_data,omitempty"`
	Metadata  map[string]string `json:"event_metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type EventOption func(*Event)

func WithType(eventType string) EventOption {
	return func(e *Event) {
		e.Type = eventType
	}
}

func WithData(data any) EventOption {
	return func(e *Event) {
		e.Data = data
	}
}

func WithMetadata(metadata map[string]string) EventOption {
	return func(e *Event) {
		for k, v := range metadata {
			e.Metadata[k] = v
		}
	}
}

func NewEvent(opts ...EventOption) Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	e := Event{
		ID:        id,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Sink persists or forwards a single event.
type Sink interface {
	Save(ctx context.Context, e Event) error
}

// EventLogger is a Sink that can also be queried.
type EventLogger interface {
	Sink
	GetByType(ctx context.Context, eventType string, limit int) ([]Event, error)
}

// Recorder accepts events without blocking the caller.
type Recorder interface {
	Log(e Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Log(Event) {}
