package teamrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mfc-unidade/treasury-api/internal/adapters/postgres"
	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/teamrepo"
)

// Repo is a Postgres implementation of teamrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, t domain.Team) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid team id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO teams (id, name, city, is_youth, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, t.Name, t.City, t.IsYouth, t.CreatedAt.UTC())
	if postgres.IsConstraint(err, postgres.UniqueViolationCode, "teams_pkey") {
		return teamrepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	if r.pool == nil {
		return domain.Team{}, postgres.ErrNilPool
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Team{}, teamrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, city, is_youth, created_at
		FROM teams
		WHERE id = $1
	`, uid)
	return scanTeam(row)
}

func (r *Repo) List(ctx context.Context) ([]domain.Team, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, city, is_youth, created_at
		FROM teams
		ORDER BY lower(name) ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTeam(row postgres.Row) (domain.Team, error) {
	var (
		id        uuid.UUID
		t         domain.Team
		createdAt time.Time
	)
	if err := row.Scan(&id, &t.Name, &t.City, &t.IsYouth, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Team{}, teamrepo.ErrNotFound
		}
		return domain.Team{}, err
	}
	t.ID = domain.TeamID(id.String())
	t.CreatedAt = createdAt.UTC()
	return t, nil
}
