package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/billbatista/household-hub/apperr"
	"github.com/billbatista/household-hub/store"
	"github.com/google/uuid"
)

const selectEvents = `SELECT e.id, e.title, e.host_member_id, COALESCE(m.name, ''), COALESCE(m.color, ''),
              e.start_at, e.end_at, e.guest_count, COALESCE(e.notes, ''), e.created_at
              FROM events e
              LEFT JOIN members m ON m.id = e.host_member_id`

type repository struct {
	store *store.Store
	now   func() time.Time
}

func NewRepository(s *store.Store) *repository {
	return &repository{store: s, now: time.Now}
}

func (r *repository) List(ctx context.Context) ([]Event, error) {
	return r.query(ctx, "list events", selectEvents+` ORDER BY e.start_at, e.id`)
}

func (r *repository) Upcoming(ctx context.Context, now time.Time, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	limit = min(limit, maxUpcomingLimit)

	at := now.UTC().UnixMicro()
	query := selectEvents + ` WHERE e.start_at >= $1 OR (e.end_at IS NOT NULL AND e.end_at >= $2)
              ORDER BY e.start_at, e.id
              LIMIT $3`
	return r.query(ctx, "list upcoming events", query, at, at, limit)
}

func (r *repository) query(ctx context.Context, op, query string, args ...any) ([]Event, error) {
	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, apperr.Storage(op, err)
		}
		events = append(events, *event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(op, err)
	}
	return events, nil
}

func (r *repository) get(ctx context.Context, id uuid.UUID) (*Event, error) {
	event, err := scanEvent(r.store.DB().QueryRowContext(ctx, selectEvents+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("event", id.String())
		}
		return nil, apperr.Storage("select event", err)
	}
	return event, nil
}

func (r *repository) Add(ctx context.Context, in Input) (*Event, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating event id: %w", err)
	}

	query := `INSERT INTO events (id, title, host_member_id, start_at, end_at, guest_count, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.store.DB().ExecContext(ctx, query,
		id,
		in.Title,
		in.HostMemberID,
		in.Start.UTC().UnixMicro(),
		endMicros(in.End),
		in.GuestCount,
		nullString(in.Notes),
		r.now().UTC().UnixMicro(),
	)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("member", in.HostMemberID.UUID.String())
		}
		return nil, apperr.Storage("insert event", err)
	}

	return r.get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, in Input) (*Event, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	query := `UPDATE events SET title = $1, host_member_id = $2, start_at = $3, end_at = $4, guest_count = $5, notes = $6 WHERE id = $7`
	affected, err := r.store.Exec(ctx, query,
		in.Title,
		in.HostMemberID,
		in.Start.UTC().UnixMicro(),
		endMicros(in.End),
		in.GuestCount,
		nullString(in.Notes),
		id,
	)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("member", in.HostMemberID.UUID.String())
		}
		return nil, apperr.Storage("update event", err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("event", id.String())
	}

	return r.get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	affected, err := r.store.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, apperr.Storage("delete event", err)
	}
	return affected > 0, nil
}

func endMicros(end *time.Time) sql.NullInt64 {
	if end == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: end.UTC().UnixMicro(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var (
		event     Event
		start     int64
		end       sql.NullInt64
		createdAt int64
	)
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.HostMemberID,
		&event.HostName,
		&event.HostColor,
		&start,
		&end,
		&event.GuestCount,
		&event.Notes,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	event.Start = time.UnixMicro(start).UTC()
	if end.Valid {
		t := time.UnixMicro(end.Int64).UTC()
		event.End = &t
	}
	event.CreatedAt = time.UnixMicro(createdAt).UTC()
	return &event, nil
}
