package paymentrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mfc-unidade/treasury-api/internal/adapters/postgres"
	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/paymentrepo"
)

// Repo is a Postgres implementation of paymentrepo.Repository.
// The settled-once rule is enforced by the dues_payments_settled_unique partial index.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const paymentColumns = `
	id,
	member_id,
	team_id,
	amount::text,
	paid_on,
	ref_month,
	ref_year,
	status,
	recorded_by,
	created_at
`

func (r *Repo) Append(ctx context.Context, ps []domain.DuesPayment) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, p := range ps {
			id, err := uuid.Parse(string(p.ID))
			if err != nil {
				return fmt.Errorf("invalid payment id: %w", err)
			}
			memberID, err := uuid.Parse(string(p.MemberID))
			if err != nil {
				return fmt.Errorf("invalid member id: %w", err)
			}
			teamID, err := postgres.OptionalUUID(string(p.TeamID))
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO dues_payments (
					id, member_id, team_id, amount, paid_on,
					ref_month, ref_year, status, recorded_by, created_at
				) VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7, $8, $9, $10)
			`,
				id,
				memberID,
				teamID,
				postgres.MoneyParam(p.Amount),
				postgres.DateOnly(p.PaidOn),
				p.Month.Month,
				p.Month.Year,
				string(p.Status),
				string(p.RecordedBy),
				p.CreatedAt.UTC(),
			)
			if err != nil {
				switch {
				case postgres.IsConstraint(err, postgres.UniqueViolationCode, "dues_payments_settled_unique"):
					return paymentrepo.ErrAlreadySettled
				case postgres.IsConstraint(err, postgres.UniqueViolationCode, "dues_payments_pkey"):
					return paymentrepo.ErrAlreadyExists
				}
				return err
			}
		}
		return nil
	})
}

func (r *Repo) ListByMembers(ctx context.Context, ids []domain.MemberID) ([]domain.DuesPayment, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	uids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(string(id)); err == nil {
			uids = append(uids, u)
		}
	}
	if len(uids) == 0 {
		return []domain.DuesPayment{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM dues_payments
		WHERE member_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`, uids)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (r *Repo) ListRecentByTeam(ctx context.Context, teamID domain.TeamID, limit int) ([]domain.DuesPayment, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	tid, err := uuid.Parse(string(teamID))
	if err != nil {
		return []domain.DuesPayment{}, nil
	}
	query := `
		SELECT ` + paymentColumns + `
		FROM dues_payments
		WHERE team_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []any{tid}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (r *Repo) ListByYear(ctx context.Context, teamID domain.TeamID, year int) ([]domain.DuesPayment, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	tid, err := postgres.OptionalUUID(string(teamID))
	if err != nil {
		return []domain.DuesPayment{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM dues_payments
		WHERE ref_year = $1
		  AND ($2::uuid IS NULL OR team_id = $2)
		ORDER BY created_at ASC, id ASC
	`, year, tid)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]domain.DuesPayment, error) {
	defer rows.Close()
	out := make([]domain.DuesPayment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanPayment(row postgres.Row) (domain.DuesPayment, error) {
	var (
		id         uuid.UUID
		memberID   uuid.UUID
		teamID     *uuid.UUID
		amount     string
		paidOn     time.Time
		refMonth   int
		refYear    int
		status     string
		recordedBy string
		createdAt  time.Time
	)
	if err := row.Scan(&id, &memberID, &teamID, &amount, &paidOn, &refMonth, &refYear, &status, &recordedBy, &createdAt); err != nil {
		return domain.DuesPayment{}, err
	}
	amt, err := postgres.ParseMoney(amount)
	if err != nil {
		return domain.DuesPayment{}, err
	}
	return domain.DuesPayment{
		ID:         domain.PaymentID(id.String()),
		MemberID:   domain.MemberID(memberID.String()),
		TeamID:     domain.TeamID(postgres.UUIDString(teamID)),
		Amount:     amt,
		PaidOn:     postgres.DateOnly(paidOn),
		Month:      domain.RefMonth{Month: refMonth, Year: refYear},
		Status:     domain.PaymentStatus(status),
		RecordedBy: domain.OperatorID(recordedBy),
		CreatedAt:  createdAt.UTC(),
	}, nil
}
