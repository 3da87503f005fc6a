package salerepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mfc-unidade/treasury-api/internal/adapters/postgres"
	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/salerepo"
)

// Repo is a Postgres implementation of salerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Append(ctx context.Context, s domain.EventSale) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	ids := make([]uuid.UUID, 0, 4)
	for _, raw := range []string{string(s.ID), string(s.EventID), string(s.TeamID), string(s.MemberID)} {
		u, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid sale reference %q: %w", raw, err)
		}
		ids = append(ids, u)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_sales (
			id, event_id, team_id, member_id, buyer_name,
			amount, status, sold_on, created_at
		) VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7, $8, $9)
	`,
		ids[0],
		ids[1],
		ids[2],
		ids[3],
		s.BuyerName,
		postgres.MoneyParam(s.Amount),
		string(s.Status),
		postgres.DateOnly(s.SoldOn),
		s.CreatedAt.UTC(),
	)
	if postgres.IsConstraint(err, postgres.UniqueViolationCode, "event_sales_pkey") {
		return salerepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) ListByEvent(ctx context.Context, eventID domain.EventID) ([]domain.EventSale, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	eid, err := uuid.Parse(string(eventID))
	if err != nil {
		return []domain.EventSale{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, team_id, member_id, buyer_name, amount::text, status, sold_on, created_at
		FROM event_sales
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`, eid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.EventSale, 0)
	for rows.Next() {
		var (
			id, evID, teamID, memberID uuid.UUID
			buyer, amount, status      string
			soldOn, createdAt          time.Time
		)
		if err := rows.Scan(&id, &evID, &teamID, &memberID, &buyer, &amount, &status, &soldOn, &createdAt); err != nil {
			return nil, err
		}
		amt, err := postgres.ParseMoney(amount)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.EventSale{
			ID:        domain.SaleID(id.String()),
			EventID:   domain.EventID(evID.String()),
			TeamID:    domain.TeamID(teamID.String()),
			MemberID:  domain.MemberID(memberID.String()),
			BuyerName: buyer,
			Amount:    amt,
			Status:    domain.SaleStatus(status),
			SoldOn:    postgres.DateOnly(soldOn),
			CreatedAt: createdAt.UTC(),
		})
	}
	return out, rows.Err()
}
