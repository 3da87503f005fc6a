package fundraising

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfc-unidade/treasury-api/internal/domain"
	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
	clockport "github.com/mfc-unidade/treasury-api/internal/ports/out/clock"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventbus"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventrepo"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/memberrepo"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/salerepo"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/teamrepo"
)

type Service struct {
	events  eventrepo.Repository
	sales   salerepo.Repository
	members memberrepo.Repository
	teams   teamrepo.Repository
	clk     clockport.Clock

	newEventID   func() domain.EventID
	newSaleID    func() domain.SaleID
	newExpenseID func() domain.ExpenseID

	Bus eventbus.Publisher
	Log *applog.Logger
}

func NewService(events eventrepo.Repository, sales salerepo.Repository, members memberrepo.Repository, teams teamrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		events:  events,
		sales:   sales,
		members: members,
		teams:   teams,
		clk:     clk,
		newEventID: func() domain.EventID {
			return domain.EventID(uuid.NewString())
		},
		newSaleID: func() domain.SaleID {
			return domain.SaleID(uuid.NewString())
		},
		newExpenseID: func() domain.ExpenseID {
			return domain.ExpenseID(uuid.NewString())
		},
		Bus: eventbus.Discard{},
		Log: applog.Nop(),
	}
}

// CreateEvent opens a new event with a zero quota for every team that exists today.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Event{}, validationError("name", "must be non-empty")
	}
	if in.Date.IsZero() {
		return domain.Event{}, validationError("date", "is required")
	}
	if in.Goal.IsNegative() {
		return domain.Event{}, validationError("goal", "must not be negative")
	}
	if in.TicketQuantity != nil && *in.TicketQuantity < 0 {
		return domain.Event{}, validationError("ticketQuantity", "must not be negative")
	}
	if in.TicketPrice != nil && in.TicketPrice.IsNegative() {
		return domain.Event{}, validationError("ticketPrice", "must not be negative")
	}

	teams, err := s.teams.List(ctx)
	if err != nil {
		return domain.Event{}, err
	}
	quotas := make([]domain.EventTeamQuota, 0, len(teams))
	for _, t := range teams {
		quotas = append(quotas, domain.EventTeamQuota{TeamID: t.ID, Target: decimal.Zero})
	}

	now := s.clk.Now()
	e := domain.Event{
		ID:              s.newEventID(),
		Name:            name,
		Date:            dateOnly(in.Date),
		Goal:            domain.RoundMoney(in.Goal),
		Expenses:        []domain.Expense{},
		TicketQuantity:  in.TicketQuantity,
		TicketPrice:     in.TicketPrice,
		IsActive:        true,
		ShowOnDashboard: in.ShowOnDashboard,
		Quotas:          quotas,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return domain.Event{}, fmt.Errorf("create event: %w", err)
	}
	s.Log.InfoContext(ctx, "event created", applog.FieldEvent, string(e.ID), "teams", len(quotas))
	return e, nil
}

func (s *Service) GetEvent(ctx context.Context, id domain.EventID) (domain.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventrepo.ErrNotFound) {
			return domain.Event{}, eventNotFound()
		}
		return domain.Event{}, err
	}
	return e, nil
}

// ListEvents returns events newest first. dashboardOnly keeps only events flagged
// for the dashboard.
func (s *Service) ListEvents(ctx context.Context, dashboardOnly bool) ([]domain.Event, error) {
	es, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	if !dashboardOnly {
		return es, nil
	}
	out := make([]domain.Event, 0, len(es))
	for _, e := range es {
		if e.ShowOnDashboard {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) EventStats(ctx context.Context, id domain.EventID) (EventStats, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return EventStats{}, err
	}
	sales, err := s.sales.ListByEvent(ctx, id)
	if err != nil {
		return EventStats{}, err
	}

	raised, paid := sumSales(sales, func(domain.EventSale) bool { return true })
	cost := e.TotalCost()
	return EventStats{
		Goal:        e.Goal,
		TotalCost:   cost,
		Raised:      raised,
		PaidRaised:  paid,
		ProgressPct: domain.ProgressPct(raised, e.Goal),
		NetMargin:   domain.RoundMoney(raised.Sub(cost)),
		SaleCount:   len(sales),
	}, nil
}

// TeamEventStats scopes the rollup to one team's quota and that team's sales.
func (s *Service) TeamEventStats(ctx context.Context, id domain.EventID, teamID domain.TeamID) (TeamEventStats, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return TeamEventStats{}, err
	}
	if err := s.requireTeam(ctx, teamID); err != nil {
		return TeamEventStats{}, err
	}
	sales, err := s.sales.ListByEvent(ctx, id)
	if err != nil {
		return TeamEventStats{}, err
	}

	raised, paid := sumSales(sales, func(x domain.EventSale) bool { return x.TeamID == teamID })
	quota := e.QuotaFor(teamID)
	return TeamEventStats{
		TeamID:      teamID,
		TeamQuota:   quota,
		Raised:      raised,
		PaidRaised:  paid,
		ProgressPct: domain.ProgressPct(raised, quota),
	}, nil
}

func (s *Service) RecordSale(ctx context.Context, in RecordSaleInput) (domain.EventSale, error) {
	buyer := domain.NormalizeHumanName(in.BuyerName)
	status := in.Status
	if status == "" {
		status = domain.SaleStatusPaid
	}
	switch {
	case in.EventID == "":
		return domain.EventSale{}, validationError("eventId", "is required")
	case in.TeamID == "":
		return domain.EventSale{}, validationError("teamId", "is required")
	case in.MemberID == "":
		return domain.EventSale{}, validationError("memberId", "is required")
	case buyer == "":
		return domain.EventSale{}, validationError("buyerName", "must be non-empty")
	case !in.Amount.IsPositive():
		return domain.EventSale{}, validationError("amount", "must be greater than zero")
	case !status.Valid():
		return domain.EventSale{}, validationError("status", "must be PAID or PENDING")
	}

	e, err := s.GetEvent(ctx, in.EventID)
	if err != nil {
		return domain.EventSale{}, err
	}
	if !e.IsActive {
		return domain.EventSale{}, &Error{
			Status:  409,
			Code:    "EVENT_CLOSED",
			Message: "Event is closed for sales.",
			Details: map[string]any{"eventId": string(e.ID)},
		}
	}
	if err := s.requireTeam(ctx, in.TeamID); err != nil {
		return domain.EventSale{}, err
	}
	seller, err := s.members.GetByID(ctx, in.MemberID)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.EventSale{}, memberNotFound()
		}
		return domain.EventSale{}, err
	}
	if seller.TeamID != in.TeamID {
		return domain.EventSale{}, validationError("memberId", "must belong to the selling team")
	}

	soldOn := in.SoldOn
	if soldOn.IsZero() {
		soldOn = s.clk.Now()
	}
	sale := domain.EventSale{
		ID:        s.newSaleID(),
		EventID:   e.ID,
		TeamID:    in.TeamID,
		MemberID:  seller.ID,
		BuyerName: buyer,
		Amount:    domain.RoundMoney(in.Amount),
		Status:    status,
		SoldOn:    dateOnly(soldOn),
		CreatedAt: s.clk.Now(),
	}
	if err := s.sales.Append(ctx, sale); err != nil {
		return domain.EventSale{}, fmt.Errorf("append sale: %w", err)
	}

	s.Log.InfoContext(ctx, "sale recorded",
		applog.FieldEvent, string(sale.EventID),
		applog.FieldTeam, string(sale.TeamID),
		applog.FieldAmount, sale.Amount.StringFixed(2),
	)
	s.publish(ctx, eventbus.TopicSaleRecorded, string(sale.EventID), SaleRecorded{
		SaleID:   sale.ID,
		EventID:  sale.EventID,
		TeamID:   sale.TeamID,
		MemberID: sale.MemberID,
		Amount:   sale.Amount.StringFixed(2),
		Status:   sale.Status,
	})
	return sale, nil
}

func (s *Service) ListSales(ctx context.Context, id domain.EventID) ([]domain.EventSale, error) {
	if _, err := s.GetEvent(ctx, id); err != nil {
		return nil, err
	}
	return s.sales.ListByEvent(ctx, id)
}

// AddExpense appends an itemized expense; the event's total cost follows from the list.
func (s *Service) AddExpense(ctx context.Context, id domain.EventID, description string, amount decimal.Decimal) (domain.Event, error) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return domain.Event{}, validationError("description", "must be non-empty")
	}
	if !amount.IsPositive() {
		return domain.Event{}, validationError("amount", "must be greater than zero")
	}
	if _, err := s.GetEvent(ctx, id); err != nil {
		return domain.Event{}, err
	}

	x := domain.Expense{
		ID:          s.newExpenseID(),
		Description: desc,
		Amount:      domain.RoundMoney(amount),
		CreatedAt:   s.clk.Now(),
	}
	if err := s.events.AppendExpense(ctx, id, x); err != nil {
		if errors.Is(err, eventrepo.ErrNotFound) {
			return domain.Event{}, eventNotFound()
		}
		return domain.Event{}, fmt.Errorf("append expense: %w", err)
	}
	return s.GetEvent(ctx, id)
}

// SetTeamQuota sets (or adds) the team's target for the event.
func (s *Service) SetTeamQuota(ctx context.Context, id domain.EventID, teamID domain.TeamID, target decimal.Decimal) (domain.Event, error) {
	if target.IsNegative() {
		return domain.Event{}, validationError("target", "must not be negative")
	}
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	if err := s.requireTeam(ctx, teamID); err != nil {
		return domain.Event{}, err
	}

	target = domain.RoundMoney(target)
	found := false
	for i := range e.Quotas {
		if e.Quotas[i].TeamID == teamID {
			e.Quotas[i].Target = target
			found = true
		}
	}
	if !found {
		e.Quotas = append(e.Quotas, domain.EventTeamQuota{TeamID: teamID, Target: target})
	}
	e.UpdatedAt = s.clk.Now()
	return e, s.save(ctx, e)
}

// SetEventFlags opens or closes the event and toggles its dashboard visibility.
func (s *Service) SetEventFlags(ctx context.Context, id domain.EventID, active, showOnDashboard bool) (domain.Event, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	e.IsActive = active
	e.ShowOnDashboard = showOnDashboard
	e.UpdatedAt = s.clk.Now()
	return e, s.save(ctx, e)
}

func (s *Service) save(ctx context.Context, e domain.Event) error {
	if err := s.events.Save(ctx, e); err != nil {
		if errors.Is(err, eventrepo.ErrNotFound) {
			return eventNotFound()
		}
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

func (s *Service) requireTeam(ctx context.Context, id domain.TeamID) error {
	if _, err := s.teams.GetByID(ctx, id); err != nil {
		if errors.Is(err, teamrepo.ErrNotFound) {
			return teamNotFound()
		}
		return err
	}
	return nil
}

func (s *Service) publish(ctx context.Context, topic, key string, payload any) {
	msg := eventbus.Message{Topic: topic, Key: key, OccurredAt: s.clk.Now(), Payload: payload}
	if err := s.Bus.Publish(ctx, msg); err != nil {
		s.Log.WarnContext(ctx, "publish failed", applog.FieldTopic, topic, applog.FieldError, err)
	}
}

func sumSales(sales []domain.EventSale, keep func(domain.EventSale) bool) (raised, paid decimal.Decimal) {
	raised, paid = decimal.Zero, decimal.Zero
	for _, x := range sales {
		if !keep(x) {
			continue
		}
		raised = raised.Add(x.Amount)
		if x.Status == domain.SaleStatusPaid {
			paid = paid.Add(x.Amount)
		}
	}
	return domain.RoundMoney(raised), domain.RoundMoney(paid)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
