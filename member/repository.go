package member

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

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) *repository {
	return &repository{store: s}
}

func (r *repository) Create(ctx context.Context, in Input) (*Member, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating member id: %w", err)
	}
	member := &Member{
		ID:        id,
		Name:      in.Name,
		Color:     in.Color,
		IsAdmin:   in.IsAdmin,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	query := `INSERT INTO members (id, name, color, is_admin, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = r.store.DB().ExecContext(ctx, query, member.ID, member.Name, member.Color, member.IsAdmin, member.CreatedAt.UnixMicro())
	if err != nil {
		return nil, apperr.Storage("insert member", err)
	}

	return member, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	query := `SELECT id, name, color, is_admin, created_at FROM members WHERE id = $1`

	member, err := scanMember(r.store.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storage("select member", err)
	}

	return member, nil
}

func (r *repository) List(ctx context.Context) ([]Member, error) {
	query := `SELECT id, name, color, is_admin, created_at FROM members ORDER BY name, id`

	rows, err := r.store.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperr.Storage("list members", err)
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, apperr.Storage("scan member", err)
		}
		members = append(members, *member)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list members", err)
	}
	return members, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, in Input) (*Member, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	query := `UPDATE members SET name = $1, color = $2, is_admin = $3 WHERE id = $4`
	affected, err := r.store.Exec(ctx, query, in.Name, in.Color, in.IsAdmin, id)
	if err != nil {
		return nil, apperr.Storage("update member", err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("member", id.String())
	}

	return r.GetByID(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		var refs int64
		query := `SELECT (SELECT COUNT(*) FROM expenses WHERE paid_by = $1) + (SELECT COUNT(*) FROM expense_splits WHERE member_id = $2)`
		if err := tx.QueryRowContext(ctx, query, id, id).Scan(&refs); err != nil {
			return fmt.Errorf("counting member references: %w", err)
		}
		if refs > 0 {
			return ErrHasExpenses
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting member: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		// A reference inserted between the count and the delete still trips
		// the foreign key.
		if store.IsForeignKeyViolation(err) {
			return false, ErrHasExpenses
		}
		return false, apperr.Storage("delete member", err)
	}

	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*Member, error) {
	var (
		member    Member
		createdAt int64
	)
	err := row.Scan(&member.ID, &member.Name, &member.Color, &member.IsAdmin, &createdAt)
	if err != nil {
		return nil, err
	}
	member.CreatedAt = time.UnixMicro(createdAt).UTC()
	return &member, nil
}
