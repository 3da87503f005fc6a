package memberrepo

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
	"github.com/mfc-unidade/treasury-api/internal/ports/out/memberrepo"
)

// Repo is a Postgres implementation of memberrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const memberColumns = `
	id,
	display_name,
	nickname,
	spouse_name,
	team_id,
	payment_inactive,
	status,
	gender,
	date_of_birth,
	joined_at,
	created_at,
	updated_at
`

func (r *Repo) Create(ctx context.Context, m domain.Member) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}
	teamID, err := postgres.OptionalUUID(string(m.TeamID))
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		id,
		m.DisplayName,
		m.Nickname,
		m.SpouseName,
		teamID,
		m.PaymentInactive,
		string(m.Status),
		string(m.Gender),
		postgres.OptionalDate(m.DateOfBirth),
		postgres.OptionalDate(m.JoinedAt),
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	)
	if err != nil {
		if postgres.IsConstraint(err, postgres.UniqueViolationCode, "members_pkey") {
			return memberrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, m domain.Member) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return memberrepo.ErrNotFound
	}
	teamID, err := postgres.OptionalUUID(string(m.TeamID))
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE members
		SET display_name = $2,
		    nickname = $3,
		    spouse_name = $4,
		    team_id = $5,
		    payment_inactive = $6,
		    status = $7,
		    gender = $8,
		    date_of_birth = $9,
		    joined_at = $10,
		    updated_at = $11
		WHERE id = $1
	`,
		id,
		m.DisplayName,
		m.Nickname,
		m.SpouseName,
		teamID,
		m.PaymentInactive,
		string(m.Status),
		string(m.Gender),
		postgres.OptionalDate(m.DateOfBirth),
		postgres.OptionalDate(m.JoinedAt),
		m.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	if r.pool == nil {
		return domain.Member{}, postgres.ErrNilPool
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Member{}, memberrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, uid)
	return scanMember(row)
}

func (r *Repo) List(ctx context.Context) ([]domain.Member, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM members
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

func (r *Repo) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Member, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	tid, err := uuid.Parse(string(teamID))
	if err != nil {
		return []domain.Member{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE team_id = $1
		ORDER BY created_at ASC, id ASC
	`, tid)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

func (r *Repo) SetPaymentInactive(ctx context.Context, ids []domain.MemberID, inactive bool, at time.Time) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	uids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(string(id))
		if err != nil {
			return memberrepo.ErrNotFound
		}
		uids = append(uids, u)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE members
			SET payment_inactive = $2,
			    updated_at = $3
			WHERE id = ANY($1)
		`, uids, inactive, at.UTC())
		if err != nil {
			return err
		}
		// Roll back when any id was unknown.
		if int(ct.RowsAffected()) != len(uids) {
			return memberrepo.ErrNotFound
		}
		return nil
	})
}

func collectMembers(rows pgx.Rows) ([]domain.Member, error) {
	defer rows.Close()
	out := make([]domain.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanMember(row postgres.Row) (domain.Member, error) {
	var (
		id              uuid.UUID
		displayName     string
		nickname        string
		spouseName      string
		teamID          *uuid.UUID
		paymentInactive bool
		status          string
		gender          string
		dateOfBirth     *time.Time
		joinedAt        *time.Time
		createdAt       time.Time
		updatedAt       time.Time
	)
	if err := row.Scan(
		&id,
		&displayName,
		&nickname,
		&spouseName,
		&teamID,
		&paymentInactive,
		&status,
		&gender,
		&dateOfBirth,
		&joinedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, memberrepo.ErrNotFound
		}
		return domain.Member{}, err
	}
	return domain.Member{
		ID:              domain.MemberID(id.String()),
		DisplayName:     displayName,
		Nickname:        nickname,
		SpouseName:      spouseName,
		TeamID:          domain.TeamID(postgres.UUIDString(teamID)),
		PaymentInactive: paymentInactive,
		Status:          domain.MemberStatus(status),
		Gender:          domain.Gender(gender),
		DateOfBirth:     postgres.OptionalDate(dateOfBirth),
		JoinedAt:        postgres.OptionalDate(joinedAt),
		CreatedAt:       createdAt.UTC(),
		UpdatedAt:       updatedAt.UTC(),
	}, nil
}
