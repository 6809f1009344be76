package shopping

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

const selectItems = `SELECT s.id, s.item_name, COALESCE(s.quantity, ''), s.added_by, COALESCE(a.name, ''),
              s.purchased, s.purchased_by, COALESCE(p.name, ''), s.purchased_at, s.created_at
              FROM shopping_items s
              LEFT JOIN members a ON a.id = s.added_by
              LEFT JOIN members p ON p.id = s.purchased_by`

type repository struct {
	store *store.Store
	now   func() time.Time
}

func NewRepository(s *store.Store) *repository {
	return &repository{store: s, now: time.Now}
}

func (r *repository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.store.DB().QueryContext(ctx, selectItems+` ORDER BY s.purchased, s.created_at DESC, s.id DESC`)
	if err != nil {
		return nil, apperr.Storage("list shopping items", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, apperr.Storage("scan shopping item", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list shopping items", err)
	}
	return items, nil
}

func (r *repository) get(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := scanItem(r.store.DB().QueryRowContext(ctx, selectItems+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("shopping item", id.String())
		}
		return nil, apperr.Storage("select shopping item", err)
	}
	return item, nil
}

func (r *repository) Add(ctx context.Context, in Input) (*Item, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating item id: %w", err)
	}

	var quantity sql.NullString
	if in.Quantity != "" {
		quantity = sql.NullString{String: in.Quantity, Valid: true}
	}

	query := `INSERT INTO shopping_items (id, item_name, quantity, added_by, purchased, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.store.DB().ExecContext(ctx, query, id, in.ItemName, quantity, in.AddedBy, false, r.now().UTC().UnixMicro())
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("member", in.AddedBy.UUID.String())
		}
		return nil, apperr.Storage("insert shopping item", err)
	}

	return r.get(ctx, id)
}

func (r *repository) MarkPurchased(ctx context.Context, id uuid.UUID, by uuid.NullUUID) (*Item, error) {
	query := `UPDATE shopping_items SET purchased = $1, purchased_by = $2, purchased_at = $3 WHERE id = $4`
	affected, err := r.store.Exec(ctx, query, true, by, r.now().UTC().UnixMicro(), id)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("member", by.UUID.String())
		}
		return nil, apperr.Storage("purchase shopping item", err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("shopping item", id.String())
	}

	return r.get(ctx, id)
}

func (r *repository) UnmarkPurchased(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `UPDATE shopping_items SET purchased = $1, purchased_by = NULL, purchased_at = NULL WHERE id = $2`
	affected, err := r.store.Exec(ctx, query, false, id)
	if err != nil {
		return nil, apperr.Storage("unpurchase shopping item", err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("shopping item", id.String())
	}

	return r.get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	affected, err := r.store.Exec(ctx, `DELETE FROM shopping_items WHERE id = $1`, id)
	if err != nil {
		return false, apperr.Storage("delete shopping item", err)
	}
	return affected > 0, nil
}

func (r *repository) ClearPurchased(ctx context.Context) (int64, error) {
	affected, err := r.store.Exec(ctx, `DELETE FROM shopping_items WHERE purchased = $1`, true)
	if err != nil {
		return 0, apperr.Storage("clear purchased items", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item        Item
		purchasedAt sql.NullInt64
		createdAt   int64
	)
	err := row.Scan(
		&item.ID,
		&item.ItemName,
		&item.Quantity,
		&item.AddedBy,
		&item.AddedByName,
		&item.Purchased,
		&item.PurchasedBy,
		&item.PurchasedByName,
		&purchasedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	if purchasedAt.Valid {
		t := time.UnixMicro(purchasedAt.Int64).UTC()
		item.PurchasedAt = &t
	}
	item.CreatedAt = time.UnixMicro(createdAt).UTC()
	return &item, nil
}
