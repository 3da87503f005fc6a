package eventrepo

import (
	"context"
	"errors"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("event not found")
	ErrAlreadyExists = errors.New("event already exists")
)

// Repository provides access to persisted events, including their quotas and
// itemized expenses.
//
// Result ordering expectations:
//   - List returns events by Date descending, then CreatedAt descending.
//   - Expenses are returned in insertion order.
type Repository interface {
	Create(ctx context.Context, e domain.Event) error

	// Save replaces the event's scalar fields and quotas. Expenses are left untouched;
	// use AppendExpense to add them.
	Save(ctx context.Context, e domain.Event) error

	AppendExpense(ctx context.Context, id domain.EventID, x domain.Expense) error

	GetByID(ctx context.Context, id domain.EventID) (domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
}
