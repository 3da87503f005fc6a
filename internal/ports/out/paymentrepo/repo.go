package paymentrepo

import (
	"context"
	"errors"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

var (
	ErrAlreadyExists = errors.New("payment already exists")

	// ErrAlreadySettled indicates a settling record (PAID or EXEMPT) already exists
	// for one of the (member, month) pairs being appended.
	ErrAlreadySettled = errors.New("month already settled")
)

// Repository is the append-only dues ledger. Records are never updated or deleted.
type Repository interface {
	// Append stores all records or none. Settling records are rejected with
	// ErrAlreadySettled when their (member, month) pair is already settled; the
	// check and the write happen atomically.
	Append(ctx context.Context, ps []domain.DuesPayment) error

	// ListByMembers returns every record for the given members ordered by CreatedAt, then ID.
	ListByMembers(ctx context.Context, ids []domain.MemberID) ([]domain.DuesPayment, error)

	// ListRecentByTeam returns the team's records newest first. limit <= 0 means no limit.
	ListRecentByTeam(ctx context.Context, teamID domain.TeamID, limit int) ([]domain.DuesPayment, error)

	// ListByYear returns records whose reference month falls in year. An empty teamID
	// matches every team.
	ListByYear(ctx context.Context, teamID domain.TeamID, year int) ([]domain.DuesPayment, error)
}
