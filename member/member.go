package member

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/billbatista/household-hub/apperr"
	"github.com/google/uuid"
)

const (
	DefaultColor  = "#3B82F6"
	maxNameLength = 50
)

type Member struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Input carries the writable fields of a member. An empty Color falls back
// to DefaultColor.
type Input struct {
	Name    string `json:"name"`
	Color   string `json:"color,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

var (
	ErrEmptyName    = apperr.Validation("name", "name can't be empty")
	ErrNameTooLong  = apperr.Validation("name", "name can't be longer than 50 characters")
	ErrInvalidColor = apperr.Validation("color", "color must be a hex value like #3B82F6")
	ErrHasExpenses  = apperr.Conflict("member is referenced by expenses; delete those expenses first")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Normalize trims the input, applies defaults and validates it.
func (in Input) Normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)

	if in.Name == "" {
		return in, ErrEmptyName
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		return in, ErrNameTooLong
	}
	if in.Color == "" {
		in.Color = DefaultColor
	}
	if !colorPattern.MatchString(in.Color) {
		return in, ErrInvalidColor
	}
	return in, nil
}

type Repository interface {
	Create(ctx context.Context, in Input) (*Member, error)
	// GetByID returns nil, nil when the member does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Member, error)
	List(ctx context.Context) ([]Member, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*Member, error)
	// Delete refuses members that expenses still reference. Deleting an
	// unknown id succeeds and reports false.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
