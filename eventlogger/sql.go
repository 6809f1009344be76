package eventlogger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/billbatista/household-hub/store"
)

const defaultQueryLimit = 100

type sqlEventLogger struct {
	db store.Querier
}

func NewSqlEventLogger(db store.Querier) *sqlEventLogger {
	return &sqlEventLogger{
		db: db,
	}
}

func (el *sqlEventLogger) Save(ctx context.Context, e Event) error {
	jsonData, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encoding event data: %w", err)
	}
	jsonMetadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encoding event metadata: %w", err)
	}

	// Strings rather than []byte: lib/pq sends []byte as bytea, which JSONB
	// columns reject.
	statement := `INSERT INTO activity_events (id, event_type, event_data, event_metadata, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = el.db.ExecContext(ctx, statement, e.ID, e.Type, string(jsonData), string(jsonMetadata), e.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	return nil
}

// GetByType returns the newest events of a type first. Data is returned as
// json.RawMessage.
func (el *sqlEventLogger) GetByType(ctx context.Context, eventType string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	query := `SELECT id, event_type, event_data, event_metadata, created_at FROM activity_events
              WHERE event_type = $1
              ORDER BY created_at DESC, id DESC
              LIMIT $2`
	result, err := el.db.QueryContext(ctx, query, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer result.Close()

	events := make([]Event, 0)
	for result.Next() {
		var (
			event        Event
			jsonData     []byte
			jsonMetadata []byte
			createdAt    int64
		)
		if err := result.Scan(&event.ID, &event.Type, &jsonData, &jsonMetadata, &createdAt); err != nil {
			return events, fmt.Errorf("scanning event: %w", err)
		}
		if len(jsonData) > 0 && string(jsonData) != "null" {
			event.Data = json.RawMessage(jsonData)
		}
		if len(jsonMetadata) > 0 {
			if err := json.Unmarshal(jsonMetadata, &event.Metadata); err != nil {
				return events, fmt.Errorf("decoding event metadata: %w", err)
			}
		}
		event.CreatedAt = time.UnixMicro(createdAt).UTC()

		events = append(events, event)
	}

	if err := result.Err(); err != nil {
		return events, err
	}

	return events, nil
}
