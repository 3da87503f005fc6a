package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mfc-unidade/treasury-api/internal/app/dues"
	"github.com/mfc-unidade/treasury-api/internal/domain"
	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
	clockport "github.com/mfc-unidade/treasury-api/internal/ports/out/clock"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventbus"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/memberrepo"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/teamrepo"
)

// Service folds per-unit dues status into the numbers the dashboard shows.
// Nothing is cached; every call recomputes from the repositories.
type Service struct {
	dues    *dues.Service
	members memberrepo.Repository
	teams   teamrepo.Repository
	clk     clockport.Clock

	Bus eventbus.Publisher
	Log *applog.Logger
}

func NewService(d *dues.Service, members memberrepo.Repository, teams teamrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		dues:    d,
		members: members,
		teams:   teams,
		clk:     clk,
		Bus:     eventbus.Discard{},
		Log:     applog.Nop(),
	}
}

// Summary counts units for the month. An empty teamID covers the whole organization.
func (s *Service) Summary(ctx context.Context, teamID domain.TeamID, month domain.RefMonth) (Summary, error) {
	if err := month.Validate(); err != nil {
		return Summary{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid month",
			Details: map[string]any{"month": err.Error()},
		}
	}
	units, err := s.units(ctx, teamID)
	if err != nil {
		return Summary{}, err
	}
	rows, err := s.dues.StatusFor(ctx, units, month)
	if err != nil {
		return Summary{}, err
	}
	return summarize(teamID, month, rows), nil
}

func (s *Service) CollectionRate(ctx context.Context, teamID domain.TeamID, month domain.RefMonth) (decimal.Decimal, error) {
	sum, err := s.Summary(ctx, teamID, month)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.CollectionRate, nil
}

func (s *Service) PendingCount(ctx context.Context, teamID domain.TeamID, month domain.RefMonth) (int, error) {
	sum, err := s.Summary(ctx, teamID, month)
	if err != nil {
		return 0, err
	}
	return sum.PendingUnits, nil
}

// InactiveCount is month independent: the flag reflects the roster today.
func (s *Service) InactiveCount(ctx context.Context, teamID domain.TeamID) (int, error) {
	units, err := s.units(ctx, teamID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range units {
		if u.PaymentInactive() {
			n++
		}
	}
	return n, nil
}

// Demographics builds the age, tenure and birthday charts for a team's roster
// (or every member when teamID is empty).
func (s *Service) Demographics(ctx context.Context, teamID domain.TeamID) (Demographics, error) {
	var (
		ms  []domain.Member
		err error
	)
	if teamID == "" {
		ms, err = s.members.List(ctx)
	} else {
		if _, err = s.teams.GetByID(ctx, teamID); err != nil {
			if errors.Is(err, teamrepo.ErrNotFound) {
				return Demographics{}, &Error{Status: 404, Code: "TEAM_NOT_FOUND", Message: "Team not found."}
			}
			return Demographics{}, err
		}
		ms, err = s.members.ListByTeam(ctx, teamID)
	}
	if err != nil {
		return Demographics{}, err
	}

	now := s.clk.Now()
	return Demographics{
		TeamID:    teamID,
		Members:   len(ms),
		Age:       DemographicBuckets(ms, now),
		Tenure:    TenureCounts(ms, now),
		Birthdays: BirthdaysByMonth(ms),
	}, nil
}

// ArrearsDigest lists, per team, the active units still owing for the month and
// publishes the result for reminder delivery. Teams with nothing pending are omitted.
func (s *Service) ArrearsDigest(ctx context.Context, month domain.RefMonth) (ArrearsDigest, error) {
	groups, err := s.dues.UnitGroups(ctx)
	if err != nil {
		return ArrearsDigest{}, err
	}
	teams, err := s.teams.List(ctx)
	if err != nil {
		return ArrearsDigest{}, err
	}
	names := make(map[domain.TeamID]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	digest := ArrearsDigest{Month: month, Teams: []TeamArrears{}}
	for _, teamID := range sortedTeamIDs(groups) {
		rows, err := s.dues.StatusFor(ctx, groups[teamID], month)
		if err != nil {
			return ArrearsDigest{}, err
		}
		entry := TeamArrears{TeamID: teamID, TeamName: names[teamID], PendingUnitKeys: []string{}}
		for _, r := range rows {
			if r.PaymentInactive {
				continue
			}
			entry.ActiveUnits++
			if !r.Paid {
				entry.PendingUnits++
				entry.PendingUnitKeys = append(entry.PendingUnitKeys, r.Unit.Key())
			}
		}
		if entry.PendingUnits > 0 {
			digest.Teams = append(digest.Teams, entry)
		}
	}

	msg := eventbus.Message{
		Topic:      eventbus.TopicArrearsDigest,
		Key:        month.String(),
		OccurredAt: s.clk.Now(),
		Payload:    digest,
	}
	if err := s.Bus.Publish(ctx, msg); err != nil {
		return digest, fmt.Errorf("publish arrears digest: %w", err)
	}
	s.Log.InfoContext(ctx, "arrears digest published", applog.FieldMonth, month.String(), "teams", len(digest.Teams))
	return digest, nil
}

func (s *Service) units(ctx context.Context, teamID domain.TeamID) ([]domain.BillingUnit, error) {
	if teamID != "" {
		return s.dues.TeamUnits(ctx, teamID)
	}
	groups, err := s.dues.UnitGroups(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.BillingUnit, 0)
	for _, id := range sortedTeamIDs(groups) {
		out = append(out, groups[id]...)
	}
	return out, nil
}

func summarize(teamID domain.TeamID, month domain.RefMonth, rows []dues.UnitStatus) Summary {
	sum := Summary{TeamID: teamID, Month: month, TotalUnits: len(rows), CollectionRate: decimal.Zero}
	for _, r := range rows {
		switch {
		case r.PaymentInactive:
			sum.InactiveUnits++
		case r.Paid:
			sum.ActiveUnits++
			sum.PaidUnits++
		default:
			sum.ActiveUnits++
			sum.PendingUnits++
		}
	}
	if sum.ActiveUnits > 0 {
		sum.CollectionRate = domain.ProgressPct(decimal.NewFromInt(int64(sum.PaidUnits)), decimal.NewFromInt(int64(sum.ActiveUnits)))
	}
	return sum
}

// sortedTeamIDs orders groups deterministically; unaffiliated members (empty id) sort first.
func sortedTeamIDs(groups map[domain.TeamID][]domain.BillingUnit) []domain.TeamID {
	ids := make([]domain.TeamID, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
