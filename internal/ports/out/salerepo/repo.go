package salerepo

import (
	"context"
	"errors"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

var ErrAlreadyExists = errors.New("sale already exists")

// Repository is the append-only log of event sales.
type Repository interface {
	Append(ctx context.Context, s domain.EventSale) error

	// ListByEvent returns the event's sales ordered by CreatedAt, then ID.
	ListByEvent(ctx context.Context, eventID domain.EventID) ([]domain.EventSale, error)
}
