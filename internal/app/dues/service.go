package dues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfc-unidade/treasury-api/internal/domain"
	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
	clockport "github.com/mfc-unidade/treasury-api/internal/ports/out/clock"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventbus"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/memberrepo"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/paymentrepo"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/teamrepo"
)

// Service is the dues ledger: it derives billing units from the member roster and
// answers paid/pending questions against the append-only payment log.
type Service struct {
	members  memberrepo.Repository
	teams    teamrepo.Repository
	payments paymentrepo.Repository
	clk      clockport.Clock

	newPaymentID func() domain.PaymentID

	Rates RatePolicy
	Bus   eventbus.Publisher
	Log   *applog.Logger

	// HistoryLimit bounds PaymentHistory when the caller passes no limit.
	HistoryLimit int
}

func NewService(members memberrepo.Repository, teams teamrepo.Repository, payments paymentrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		members:  members,
		teams:    teams,
		payments: payments,
		clk:      clk,
		newPaymentID: func() domain.PaymentID {
			return domain.PaymentID(uuid.NewString())
		},
		Rates:        DefaultRatePolicy(),
		Bus:          eventbus.Discard{},
		Log:          applog.Nop(),
		HistoryLimit: 50,
	}
}

// UnitMonthlyDue is what the unit owes for one month under the configured rate policy.
func (s *Service) UnitMonthlyDue(unit domain.BillingUnit) decimal.Decimal {
	if unit.PaymentInactive() || unit.Size() == 0 {
		return decimal.Zero
	}
	if unit.IsCouple() && s.Rates.CoupleRate != nil {
		return domain.RoundMoney(*s.Rates.CoupleRate)
	}
	return domain.RoundMoney(s.Rates.PerMember.Mul(decimal.NewFromInt(int64(unit.Size()))))
}

func (s *Service) IsUnitPaid(ctx context.Context, unit domain.BillingUnit, month domain.RefMonth) (bool, error) {
	if err := month.Validate(); err != nil {
		return false, validationError("month", err.Error())
	}
	idx, err := s.loadIndex(ctx, unit.MemberIDs())
	if err != nil {
		return false, err
	}
	return idx.unitPaid(unit, month), nil
}

// PendingMonths lists the unpaid months from January of upto.Year through upto.
// Payment-inactive units are paused, so they never have pending months.
func (s *Service) PendingMonths(ctx context.Context, unit domain.BillingUnit, upto domain.RefMonth) ([]domain.RefMonth, error) {
	if err := upto.Validate(); err != nil {
		return nil, validationError("upto", err.Error())
	}
	if unit.PaymentInactive() {
		return []domain.RefMonth{}, nil
	}
	idx, err := s.loadIndex(ctx, unit.MemberIDs())
	if err != nil {
		return nil, err
	}
	return idx.pendingMonths(unit, upto), nil
}

// LaunchPayment records one PAID entry per unsettled member of the unit for the month.
func (s *Service) LaunchPayment(ctx context.Context, in LaunchPaymentInput) ([]domain.DuesPayment, error) {
	if in.Unit.Size() == 0 {
		return nil, validationError("unit", "must contain at least one member")
	}
	if err := in.Month.Validate(); err != nil {
		return nil, validationError("month", err.Error())
	}
	if in.Amount.IsNegative() {
		return nil, validationError("amount", "must not be negative")
	}
	if in.RecordedBy == "" {
		return nil, validationError("recordedBy", "must be non-empty")
	}

	idx, err := s.loadIndex(ctx, in.Unit.MemberIDs())
	if err != nil {
		return nil, err
	}
	owing := idx.unsettled(in.Unit, in.Month)
	if len(owing) == 0 {
		return nil, alreadySettled(in.Unit, in.Month)
	}

	total := domain.RoundMoney(in.Amount)
	if total.IsZero() {
		total = s.dueFor(in.Unit, len(owing))
		if total.IsZero() {
			return nil, validationError("amount", "required when the unit owes nothing (payment-inactive)")
		}
	}

	paidOn := in.PaidOn
	if paidOn.IsZero() {
		paidOn = s.clk.Now()
	}
	shares := domain.SplitMoney(total, len(owing))
	return s.appendFor(ctx, in.Unit, in.Month, owing, shares, domain.PaymentStatusPaid, paidOn, in.RecordedBy)
}

// RecordExemption marks every unsettled member of the unit as EXEMPT for the month.
// Exempt months count as paid.
func (s *Service) RecordExemption(ctx context.Context, unit domain.BillingUnit, month domain.RefMonth, recordedBy domain.OperatorID) ([]domain.DuesPayment, error) {
	if unit.Size() == 0 {
		return nil, validationError("unit", "must contain at least one member")
	}
	if err := month.Validate(); err != nil {
		return nil, validationError("month", err.Error())
	}
	if recordedBy == "" {
		return nil, validationError("recordedBy", "must be non-empty")
	}

	idx, err := s.loadIndex(ctx, unit.MemberIDs())
	if err != nil {
		return nil, err
	}
	owing := idx.unsettled(unit, month)
	if len(owing) == 0 {
		return nil, alreadySettled(unit, month)
	}
	shares := make([]decimal.Decimal, len(owing))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	return s.appendFor(ctx, unit, month, owing, shares, domain.PaymentStatusExempt, s.clk.Now(), recordedBy)
}

// ToggleUnitActive pauses (active=false) or resumes dues for every member of the unit.
func (s *Service) ToggleUnitActive(ctx context.Context, unit domain.BillingUnit, active bool) error {
	if unit.Size() == 0 {
		return validationError("unit", "must contain at least one member")
	}
	err := s.members.SetPaymentInactive(ctx, unit.MemberIDs(), !active, s.clk.Now())
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return notFound("MEMBER_NOT_FOUND", "One or more unit members no longer exist.")
		}
		return fmt.Errorf("toggle unit %s: %w", unit.Key(), err)
	}
	s.publish(ctx, eventbus.TopicUnitToggled, unit.Key(), UnitToggled{
		UnitKey:   unit.Key(),
		MemberIDs: unit.MemberIDs(),
		Active:    active,
	})
	return nil
}

// TeamUnits resolves the team's roster into billing units.
func (s *Service) TeamUnits(ctx context.Context, teamID domain.TeamID) ([]domain.BillingUnit, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, teamrepo.ErrNotFound) {
			return nil, notFound("TEAM_NOT_FOUND", "Team not found.")
		}
		return nil, err
	}
	ms, err := s.members.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return domain.ResolveUnits(ms), nil
}

// UnitGroups resolves every team separately. Members without a team form their own
// group under the empty TeamID.
func (s *Service) UnitGroups(ctx context.Context) (map[domain.TeamID][]domain.BillingUnit, error) {
	ms, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	byTeam := make(map[domain.TeamID][]domain.Member)
	for _, m := range ms {
		byTeam[m.TeamID] = append(byTeam[m.TeamID], m)
	}
	out := make(map[domain.TeamID][]domain.BillingUnit, len(byTeam))
	for teamID, roster := range byTeam {
		out[teamID] = domain.ResolveUnits(roster)
	}
	return out, nil
}

// UnitForMember returns the billing unit the member belongs to within their team.
func (s *Service) UnitForMember(ctx context.Context, memberID domain.MemberID) (domain.BillingUnit, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.BillingUnit{}, notFound("MEMBER_NOT_FOUND", "Member not found.")
		}
		return domain.BillingUnit{}, err
	}

	var roster []domain.Member
	if m.TeamID != "" {
		roster, err = s.members.ListByTeam(ctx, m.TeamID)
	} else {
		roster, err = s.unaffiliated(ctx)
	}
	if err != nil {
		return domain.BillingUnit{}, err
	}
	if u, ok := domain.FindUnit(domain.ResolveUnits(roster), memberID); ok {
		return u, nil
	}
	// Roster changed between reads; the member still stands alone.
	return domain.SingleUnit(m), nil
}

// TeamMonthStatus is the per-unit dues sheet for one team and month.
func (s *Service) TeamMonthStatus(ctx context.Context, teamID domain.TeamID, month domain.RefMonth) ([]UnitStatus, error) {
	if err := month.Validate(); err != nil {
		return nil, validationError("month", err.Error())
	}
	units, err := s.TeamUnits(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return s.StatusFor(ctx, units, month)
}

// StatusFor computes status rows for an already resolved set of units.
func (s *Service) StatusFor(ctx context.Context, units []domain.BillingUnit, month domain.RefMonth) ([]UnitStatus, error) {
	ids := make([]domain.MemberID, 0, len(units)*2)
	for _, u := range units {
		ids = append(ids, u.MemberIDs()...)
	}
	idx, err := s.loadIndex(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]UnitStatus, 0, len(units))
	for _, u := range units {
		out = append(out, UnitStatus{
			Unit:            u,
			Due:             s.UnitMonthlyDue(u),
			Paid:            idx.unitPaid(u, month),
			PaymentInactive: u.PaymentInactive(),
			PendingMonths:   idx.pendingMonths(u, month),
		})
	}
	return out, nil
}

// UnitMonthTotal sums what the unit actually paid for the month.
func (s *Service) UnitMonthTotal(ctx context.Context, unit domain.BillingUnit, month domain.RefMonth) (decimal.Decimal, error) {
	if err := month.Validate(); err != nil {
		return decimal.Zero, validationError("month", err.Error())
	}
	ps, err := s.payments.ListByMembers(ctx, unit.MemberIDs())
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range ps {
		if p.Month == month && p.Status == domain.PaymentStatusPaid {
			total = total.Add(p.Amount)
		}
	}
	return domain.RoundMoney(total), nil
}

// MonthlyTotals returns twelve rows with the PAID amounts collected per reference month.
// An empty teamID aggregates the whole organization.
func (s *Service) MonthlyTotals(ctx context.Context, teamID domain.TeamID, year int) ([]MonthTotal, error) {
	if _, err := domain.NewRefMonth(1, year); err != nil {
		return nil, validationError("year", err.Error())
	}
	ps, err := s.payments.ListByYear(ctx, teamID, year)
	if err != nil {
		return nil, err
	}
	out := make([]MonthTotal, 12)
	for i := range out {
		out[i] = MonthTotal{Month: domain.RefMonth{Month: i + 1, Year: year}, Total: decimal.Zero}
	}
	for _, p := range ps {
		if p.Status != domain.PaymentStatusPaid || p.Month.Year != year {
			continue
		}
		out[p.Month.Month-1].Total = out[p.Month.Month-1].Total.Add(p.Amount)
	}
	for i := range out {
		out[i].Total = domain.RoundMoney(out[i].Total)
	}
	return out, nil
}

// PaymentHistory lists the team's ledger entries, most recent first.
func (s *Service) PaymentHistory(ctx context.Context, teamID domain.TeamID, limit int) ([]domain.DuesPayment, error) {
	if limit <= 0 {
		limit = s.HistoryLimit
	}
	if limit > 500 {
		return nil, validationError("limit", "must be at most 500")
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, teamrepo.ErrNotFound) {
			return nil, notFound("TEAM_NOT_FOUND", "Team not found.")
		}
		return nil, err
	}
	return s.payments.ListRecentByTeam(ctx, teamID, limit)
}

// --- helpers ---

func (s *Service) loadIndex(ctx context.Context, ids []domain.MemberID) (ledgerIndex, error) {
	if len(ids) == 0 {
		return ledgerIndex{}, nil
	}
	ps, err := s.payments.ListByMembers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	return indexSettled(ps), nil
}

// dueFor prorates the unit's monthly due over the members still owing.
func (s *Service) dueFor(unit domain.BillingUnit, owing int) decimal.Decimal {
	due := s.UnitMonthlyDue(unit)
	if owing == unit.Size() {
		return due
	}
	return domain.RoundMoney(due.Mul(decimal.NewFromInt(int64(owing))).Div(decimal.NewFromInt(int64(unit.Size()))))
}

func (s *Service) unaffiliated(ctx context.Context) ([]domain.Member, error) {
	all, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0)
	for _, m := range all {
		if m.TeamID == "" {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Service) appendFor(
	ctx context.Context,
	unit domain.BillingUnit,
	month domain.RefMonth,
	owing []domain.Member,
	shares []decimal.Decimal,
	status domain.PaymentStatus,
	paidOn time.Time,
	recordedBy domain.OperatorID,
) ([]domain.DuesPayment, error) {
	now := s.clk.Now()
	records := make([]domain.DuesPayment, 0, len(owing))
	for i, m := range owing {
		records = append(records, domain.DuesPayment{
			ID:         s.newPaymentID(),
			MemberID:   m.ID,
			TeamID:     m.TeamID,
			Amount:     shares[i],
			PaidOn:     dateOnly(paidOn),
			Month:      month,
			Status:     status,
			RecordedBy: recordedBy,
			CreatedAt:  now,
		})
	}

	if err := s.payments.Append(ctx, records); err != nil {
		if errors.Is(err, paymentrepo.ErrAlreadySettled) {
			// Lost a race with a concurrent launch for the same month.
			return nil, alreadySettled(unit, month)
		}
		return nil, fmt.Errorf("append payments: %w", err)
	}

	total := decimal.Zero
	ids := make([]domain.MemberID, 0, len(records))
	for _, r := range records {
		total = total.Add(r.Amount)
		ids = append(ids, r.MemberID)
	}
	s.Log.InfoContext(ctx, "dues recorded",
		"unit", unit.Key(),
		applog.FieldMonth, month.String(),
		"status", string(status),
		applog.FieldAmount, total.StringFixed(2),
		applog.FieldOperator, string(recordedBy),
	)
	s.publish(ctx, eventbus.TopicPaymentLaunched, unit.Key()+"@"+month.String(), PaymentLaunched{
		UnitKey:    unit.Key(),
		TeamID:     unit.TeamID(),
		Month:      month,
		Status:     string(status),
		MemberIDs:  ids,
		Total:      total.StringFixed(2),
		RecordedBy: recordedBy,
	})
	return records, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func alreadySettled(unit domain.BillingUnit, month domain.RefMonth) *Error {
	return &Error{
		Status:  409,
		Code:    "ALREADY_SETTLED",
		Message: fmt.Sprintf("Month %s is already settled for this unit.", month),
		Details: map[string]any{"unit": unit.Key(), "month": month.String()},
	}
}

func (s *Service) publish(ctx context.Context, topic, key string, payload any) {
	msg := eventbus.Message{Topic: topic, Key: key, OccurredAt: s.clk.Now(), Payload: payload}
	if err := s.Bus.Publish(ctx, msg); err != nil {
		s.Log.WarnContext(ctx, "publish failed", applog.FieldTopic, topic, applog.FieldError, err)
	}
}
