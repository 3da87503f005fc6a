package teamrepo

import (
	"context"
	"errors"

	"github.com/mfc-unidade/treasury-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("team not found")
	ErrAlreadyExists = errors.New("team already exists")
)

// Repository provides access to persisted teams.
// List returns teams ordered by name (case-insensitive), then ID.
type Repository interface {
	Create(ctx context.Context, t domain.Team) error
	GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error)
	List(ctx context.Context) ([]domain.Team, error)
}
