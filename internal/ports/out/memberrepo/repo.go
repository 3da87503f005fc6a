package memberrepo

import (
	"context"
	"errors"
	"time"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

var (
	ErrNotFound = errors.New("member not found")

	// ErrAlreadyExists is returned for a duplicate (or empty) member ID.
	ErrAlreadyExists = errors.New("member already exists")
)

// Repository provides access to persisted members.
//
// Result ordering expectations:
//   - List methods return members in registration order (CreatedAt ascending, then ID).
//     Billing unit resolution walks members in this order, so it must be stable.
type Repository interface {
	Create(ctx context.Context, m domain.Member) error
	Update(ctx context.Context, m domain.Member) error

	GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error)

	List(ctx context.Context) ([]domain.Member, error)
	ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Member, error)

	// SetPaymentInactive flips the payment-inactive flag on every listed member in one step.
	// ErrNotFound is returned (and nothing changes) if any member does not exist.
	SetPaymentInactive(ctx context.Context, ids []domain.MemberID, inactive bool, at time.Time) error
}
