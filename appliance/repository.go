package appliance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/billbatista/household-hub/apperr"
	"github.com/billbatista/household-hub/store"
	"github.com/google/uuid"
)

const selectAppliances = `SELECT a.id, a.name, a.status, a.started_by, COALESCE(m.name, ''), COALESCE(m.color, ''), a.started_at, a.estimated_done_at
              FROM appliances a
              LEFT JOIN members m ON m.id = a.started_by`

type repository struct {
	store *store.Store
	now   func() time.Time
}

type Option func(*repository)

func WithClock(now func() time.Time) Option {
	return func(r *repository) {
		r.now = now
	}
}

func NewRepository(s *store.Store, opts ...Option) *repository {
	r := &repository{store: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *repository) List(ctx context.Context) ([]Appliance, error) {
	rows, err := r.store.DB().QueryContext(ctx, selectAppliances+` ORDER BY a.name`)
	if err != nil {
		return nil, apperr.Storage("list appliances", err)
	}
	defer rows.Close()

	appliances := make([]Appliance, 0)
	for rows.Next() {
		a, err := scanAppliance(rows)
		if err != nil {
			return nil, apperr.Storage("scan appliance", err)
		}
		appliances = append(appliances, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list appliances", err)
	}
	return appliances, nil
}

func (r *repository) get(ctx context.Context, id uuid.UUID) (*Appliance, error) {
	a, err := scanAppliance(r.store.DB().QueryRowContext(ctx, selectAppliances+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("appliance", id.String())
		}
		return nil, apperr.Storage("select appliance", err)
	}
	return a, nil
}

func (r *repository) Start(ctx context.Context, id uuid.UUID, in StartInput) (*Appliance, error) {
	duration, err := in.duration()
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	query := `UPDATE appliances SET status = $1, started_by = $2, started_at = $3, estimated_done_at = $4
              WHERE id = $5 AND status <> $6`
	affected, err := r.store.Exec(ctx, query,
		StatusInUse,
		in.StartedBy,
		now.UnixMicro(),
		now.Add(duration).UnixMicro(),
		id,
		StatusInUse,
	)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("member", in.StartedBy.UUID.String())
		}
		return nil, apperr.Storage("start appliance", err)
	}
	if affected == 0 {
		return nil, r.refusal(ctx, id, ErrAlreadyRunning)
	}

	return r.get(ctx, id)
}

func (r *repository) Done(ctx context.Context, id uuid.UUID) (*Appliance, error) {
	query := `UPDATE appliances SET status = $1 WHERE id = $2 AND status = $3`
	affected, err := r.store.Exec(ctx, query, StatusDone, id, StatusInUse)
	if err != nil {
		return nil, apperr.Storage("finish appliance", err)
	}
	if affected == 0 {
		return nil, r.refusal(ctx, id, ErrNotRunning)
	}

	return r.get(ctx, id)
}

func (r *repository) Reset(ctx context.Context, id uuid.UUID) (*Appliance, error) {
	query := `UPDATE appliances SET status = $1, started_by = NULL, started_at = NULL, estimated_done_at = NULL WHERE id = $2`
	affected, err := r.store.Exec(ctx, query, StatusAvailable, id)
	if err != nil {
		return nil, apperr.Storage("reset appliance", err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("appliance", id.String())
	}

	return r.get(ctx, id)
}

// refusal explains why a guarded update touched no rows: the appliance is
// missing, or its state didn't allow the transition.
func (r *repository) refusal(ctx context.Context, id uuid.UUID, conflict error) error {
	if _, err := r.get(ctx, id); err != nil {
		return err
	}
	return conflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppliance(row rowScanner) (*Appliance, error) {
	var (
		a               Appliance
		startedAt       sql.NullInt64
		estimatedDoneAt sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.Name, &a.Status, &a.StartedBy, &a.StartedByName, &a.StartedByColor, &startedAt, &estimatedDoneAt)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		t := time.UnixMicro(startedAt.Int64).UTC()
		a.StartedAt = &t
	}
	if estimatedDoneAt.Valid {
		t := time.UnixMicro(estimatedDoneAt.Int64).UTC()
		a.EstimatedDoneAt = &t
	}
	return &a, nil
}
