// Package shopping keeps the household's shared shopping list.
package shopping

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/billbatista/household-hub/apperr"
	"github.com/google/uuid"
)

const (
	EventItemAdded       = "shopping.item_added"
	EventItemPurchased   = "shopping.item_purchased"
	EventItemUnpurchased = "shopping.item_unpurchased"
	EventItemDeleted     = "shopping.item_deleted"
	EventCleared         = "shopping.purchased_cleared"
)

type Item struct {
	ID              uuid.UUID     `json:"id"`
	ItemName        string        `json:"item_name"`
	Quantity        string        `json:"quantity,omitempty"`
	AddedBy         uuid.NullUUID `json:"added_by"`
	AddedByName     string        `json:"added_by_name,omitempty"`
	Purchased       bool          `json:"purchased"`
	PurchasedBy     uuid.NullUUID `json:"purchased_by"`
	PurchasedByName string        `json:"purchased_by_name,omitempty"`
	PurchasedAt     *time.Time    `json:"purchased_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

type Input struct {
	ItemName string        `json:"item_name"`
	Quantity string        `json:"quantity,omitempty"`
	AddedBy  uuid.NullUUID `json:"added_by"`
}

var (
	ErrEmptyItemName   = apperr.Validation("item_name", "item_name can't be empty")
	ErrItemNameTooLong = apperr.Validation("item_name", "item_name can't be longer than 100 characters")
	ErrQuantityTooLong = apperr.Validation("quantity", "quantity can't be longer than 50 characters")
)

func (in Input) normalize() (Input, error) {
	in.ItemName = strings.TrimSpace(in.ItemName)
	in.Quantity = strings.TrimSpace(in.Quantity)

	if in.ItemName == "" {
		return in, ErrEmptyItemName
	}
	if utf8.RuneCountInString(in.ItemName) > 100 {
		return in, ErrItemNameTooLong
	}
	if utf8.RuneCountInString(in.Quantity) > 50 {
		return in, ErrQuantityTooLong
	}
	return in, nil
}

type Repository interface {
	// List returns items still to buy first, newest first within each group.
	List(ctx context.Context) ([]Item, error)
	Add(ctx context.Context, in Input) (*Item, error)
	MarkPurchased(ctx context.Context, id uuid.UUID, by uuid.NullUUID) (*Item, error)
	UnmarkPurchased(ctx context.Context, id uuid.UUID) (*Item, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// ClearPurchased deletes every purchased item and returns how many went.
	ClearPurchased(ctx context.Context) (int64, error)
}
