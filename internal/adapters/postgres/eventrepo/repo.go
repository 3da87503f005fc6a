package eventrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mfc-unidade/treasury-api/internal/adapters/postgres"
	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventrepo"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo is a Postgres implementation of eventrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const eventColumns = `
	id,
	name,
	event_date,
	goal::text,
	ticket_quantity,
	ticket_price::text,
	is_active,
	show_on_dashboard,
	created_at,
	updated_at
`

func (r *Repo) Create(ctx context.Context, e domain.Event) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(e.ID))
	if err != nil {
		return fmt.Errorf("invalid event id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO events (
				id, name, event_date, goal, ticket_quantity, ticket_price,
				is_active, show_on_dashboard, created_at, updated_at
			) VALUES ($1, $2, $3, $4::text::numeric, $5, $6::text::numeric, $7, $8, $9, $10)
		`,
			id,
			e.Name,
			postgres.DateOnly(e.Date),
			postgres.MoneyParam(e.Goal),
			e.TicketQuantity,
			postgres.OptionalMoneyParam(e.TicketPrice),
			e.IsActive,
			e.ShowOnDashboard,
			e.CreatedAt.UTC(),
			e.UpdatedAt.UTC(),
		)
		if err != nil {
			if postgres.IsConstraint(err, postgres.UniqueViolationCode, "events_pkey") {
				return eventrepo.ErrAlreadyExists
			}
			return err
		}
		if err := replaceQuotas(ctx, tx, id, e.Quotas); err != nil {
			return err
		}
		for _, x := range e.Expenses {
			if err := insertExpense(ctx, tx, id, x); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) Save(ctx context.Context, e domain.Event) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	id, err := uuid.Parse(string(e.ID))
	if err != nil {
		return eventrepo.ErrNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE events
			SET name = $2,
			    event_date = $3,
			    goal = $4::text::numeric,
			    ticket_quantity = $5,
			    ticket_price = $6::text::numeric,
			    is_active = $7,
			    show_on_dashboard = $8,
			    updated_at = $9
			WHERE id = $1
		`,
			id,
			e.Name,
			postgres.DateOnly(e.Date),
			postgres.MoneyParam(e.Goal),
			e.TicketQuantity,
			postgres.OptionalMoneyParam(e.TicketPrice),
			e.IsActive,
			e.ShowOnDashboard,
			e.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return eventrepo.ErrNotFound
		}
		return replaceQuotas(ctx, tx, id, e.Quotas)
	})
}

func (r *Repo) AppendExpense(ctx context.Context, id domain.EventID, x domain.Expense) error {
	if r.pool == nil {
		return postgres.ErrNilPool
	}
	eid, err := uuid.Parse(string(id))
	if err != nil {
		return eventrepo.ErrNotFound
	}
	err = insertExpense(ctx, r.pool, eid, x)
	if postgres.IsConstraint(err, postgres.ForeignKeyViolationCode, "") {
		return eventrepo.ErrNotFound
	}
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.EventID) (domain.Event, error) {
	if r.pool == nil {
		return domain.Event{}, postgres.ErrNilPool
	}
	eid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Event{}, eventrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eid)
	e, err := scanEvent(row)
	if err != nil {
		return domain.Event{}, err
	}
	if err := loadChildren(ctx, r.pool, eid, &e); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Event, error) {
	if r.pool == nil {
		return nil, postgres.ErrNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		ORDER BY event_date DESC, created_at DESC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		eid, _ := uuid.Parse(string(out[i].ID))
		if err := loadChildren(ctx, r.pool, eid, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func insertExpense(ctx context.Context, q interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}, eventID uuid.UUID, x domain.Expense) error {
	xid, err := uuid.Parse(string(x.ID))
	if err != nil {
		return fmt.Errorf("invalid expense id: %w", err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO event_expenses (id, event_id, description, amount, created_at)
		VALUES ($1, $2, $3, $4::text::numeric, $5)
	`, xid, eventID, x.Description, postgres.MoneyParam(x.Amount), x.CreatedAt.UTC())
	return err
}

func replaceQuotas(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, quotas []domain.EventTeamQuota) error {
	if _, err := tx.Exec(ctx, `DELETE FROM event_team_quotas WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	for i, q := range quotas {
		tid, err := uuid.Parse(string(q.TeamID))
		if err != nil {
			return fmt.Errorf("invalid team id: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO event_team_quotas (event_id, team_id, target, position)
			VALUES ($1, $2, $3::text::numeric, $4)
		`, eventID, tid, postgres.MoneyParam(q.Target), i)
		if err != nil {
			return err
		}
	}
	return nil
}

func loadChildren(ctx context.Context, q querier, eventID uuid.UUID, e *domain.Event) error {
	rows, err := q.Query(ctx, `
		SELECT team_id, target::text
		FROM event_team_quotas
		WHERE event_id = $1
		ORDER BY position ASC
	`, eventID)
	if err != nil {
		return err
	}
	e.Quotas = make([]domain.EventTeamQuota, 0)
	for rows.Next() {
		var (
			tid    uuid.UUID
			target string
		)
		if err := rows.Scan(&tid, &target); err != nil {
			rows.Close()
			return err
		}
		amt, err := postgres.ParseMoney(target)
		if err != nil {
			rows.Close()
			return err
		}
		e.Quotas = append(e.Quotas, domain.EventTeamQuota{TeamID: domain.TeamID(tid.String()), Target: amt})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
		SELECT id, description, amount::text, created_at
		FROM event_expenses
		WHERE event_id = $1
		ORDER BY seq ASC
	`, eventID)
	if err != nil {
		return err
	}
	defer rows.Close()
	e.Expenses = make([]domain.Expense, 0)
	for rows.Next() {
		var (
			xid       uuid.UUID
			desc      string
			amount    string
			createdAt time.Time
		)
		if err := rows.Scan(&xid, &desc, &amount, &createdAt); err != nil {
			return err
		}
		amt, err := postgres.ParseMoney(amount)
		if err != nil {
			return err
		}
		e.Expenses = append(e.Expenses, domain.Expense{
			ID:          domain.ExpenseID(xid.String()),
			Description: desc,
			Amount:      amt,
			CreatedAt:   createdAt.UTC(),
		})
	}
	return rows.Err()
}

func scanEvent(row postgres.Row) (domain.Event, error) {
	var (
		id              uuid.UUID
		name            string
		date            time.Time
		goal            string
		ticketQuantity  *int
		ticketPrice     *string
		isActive        bool
		showOnDashboard bool
		createdAt       time.Time
		updatedAt       time.Time
	)
	if err := row.Scan(&id, &name, &date, &goal, &ticketQuantity, &ticketPrice, &isActive, &showOnDashboard, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, eventrepo.ErrNotFound
		}
		return domain.Event{}, err
	}
	g, err := postgres.ParseMoney(goal)
	if err != nil {
		return domain.Event{}, err
	}
	price, err := postgres.ParseOptionalMoney(ticketPrice)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.Event{
		ID:              domain.EventID(id.String()),
		Name:            name,
		Date:            postgres.DateOnly(date),
		Goal:            g,
		TicketQuantity:  ticketQuantity,
		TicketPrice:     price,
		IsActive:        isActive,
		ShowOnDashboard: showOnDashboard,
		CreatedAt:       createdAt.UTC(),
		UpdatedAt:       updatedAt.UTC(),
	}, nil
}
