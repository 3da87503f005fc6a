package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mfc-unidade/treasury-api/internal/domain"
	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
	clockport "github.com/mfc-unidade/treasury-api/internal/ports/out/clock"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/memberrepo"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/teamrepo"
)

type Service struct {
	repo  memberrepo.Repository
	teams teamrepo.Repository
	clk   clockport.Clock

	newMemberID func() domain.MemberID
	newTeamID   func() domain.TeamID

	Log *applog.Logger

	// SearchLimit bounds search result size.
	SearchLimit int
}

func NewService(repo memberrepo.Repository, teams teamrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo:  repo,
		teams: teams,
		clk:   clk,
		newMemberID: func() domain.MemberID {
			return domain.MemberID(uuid.NewString())
		},
		newTeamID: func() domain.TeamID {
			return domain.TeamID(uuid.NewString())
		},
		Log:         applog.Nop(),
		SearchLimit: 50,
	}
}

func (s *Service) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, &Error{
				Status:  404,
				Code:    "MEMBER_NOT_FOUND",
				Message: "Member not found.",
			}
		}
		return domain.Member{}, err
	}
	return m, nil
}

// ListTeamMembers returns the team roster in registration order.
func (s *Service) ListTeamMembers(ctx context.Context, teamID domain.TeamID) ([]domain.Member, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return s.repo.ListByTeam(ctx, teamID)
}

// SearchMembers filters the organization roster by a name or nickname substring and by status.
// An empty query lists everyone and only a text search is capped at SearchLimit.
// An empty status matches all statuses.
func (s *Service) SearchMembers(ctx context.Context, query string, status domain.MemberStatus) ([]domain.Member, error) {
	q := strings.ToLower(domain.NormalizeHumanName(query))
	if q != "" && len([]rune(q)) < 3 {
		return nil, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid search query",
			Details: map[string]any{"q": "must be at least 3 characters"},
		}
	}
	if status != "" && !status.Valid() {
		return nil, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid status filter",
			Details: map[string]any{"status": "unknown member status"},
		}
	}
	ms, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0)
	for _, m := range ms {
		if status != "" && m.Status != status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(m.DisplayName), q) && !strings.Contains(strings.ToLower(m.Nickname), q) {
			continue
		}
		out = append(out, m)
		if q != "" && len(out) == s.SearchLimit {
			break
		}
	}
	return out, nil
}

func (s *Service) RegisterMember(ctx context.Context, in RegisterMemberInput) (domain.Member, error) {
	displayName := domain.NormalizeHumanName(in.DisplayName)
	if displayName == "" {
		return domain.Member{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid displayName",
			Details: map[string]any{"displayName": "must be non-empty"},
		}
	}
	status := in.Status
	if status == "" {
		status = domain.MemberStatusActive
	}
	if !status.Valid() {
		return domain.Member{}, invalidEnum("status", string(status))
	}
	gender := in.Gender
	if gender == "" {
		gender = domain.GenderUnspecified
	}
	if !validGender(gender) {
		return domain.Member{}, invalidEnum("gender", string(gender))
	}
	now := s.clk.Now()
	if err := notInFuture("dateOfBirth", in.DateOfBirth, now); err != nil {
		return domain.Member{}, err
	}
	if err := notInFuture("joinedAt", in.JoinedAt, now); err != nil {
		return domain.Member{}, err
	}
	if in.TeamID != "" {
		if _, err := s.GetTeam(ctx, in.TeamID); err != nil {
			return domain.Member{}, err
		}
	}

	m := domain.Member{
		ID:          s.newMemberID(),
		DisplayName: displayName,
		Nickname:    domain.NormalizeHumanName(in.Nickname),
		SpouseName:  domain.NormalizeHumanName(in.SpouseName),
		TeamID:      in.TeamID,
		Status:      status,
		Gender:      gender,
		DateOfBirth: dateOnlyPtr(in.DateOfBirth),
		JoinedAt:    dateOnlyPtr(in.JoinedAt),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, memberrepo.ErrAlreadyExists) {
			return domain.Member{}, &Error{
				Status:  409,
				Code:    "MEMBER_ALREADY_EXISTS",
				Message: "A member with this id already exists.",
			}
		}
		return domain.Member{}, fmt.Errorf("create member: %w", err)
	}
	s.Log.InfoContext(ctx, "member registered", applog.FieldMember, string(m.ID), applog.FieldTeam, string(m.TeamID))
	return m, nil
}

func (s *Service) UpdateMemberProfile(ctx context.Context, id domain.MemberID, in UpdateMemberProfileInput) (domain.Member, error) {
	m, err := s.GetMember(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	now := s.clk.Now()

	if in.DisplayName.IsSpecified() {
		if in.DisplayName.IsNull() {
			return domain.Member{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid displayName",
				Details: map[string]any{"displayName": "cannot be null"},
			}
		}
		displayName := domain.NormalizeHumanName(in.DisplayName.Value())
		if displayName == "" {
			return domain.Member{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid displayName",
				Details: map[string]any{"displayName": "must be non-empty"},
			}
		}
		m.DisplayName = displayName
	}

	applyName(&m.Nickname, in.Nickname)
	applyName(&m.SpouseName, in.SpouseName)

	if in.TeamID.IsSpecified() {
		if in.TeamID.IsNull() || in.TeamID.Value() == "" {
			m.TeamID = ""
		} else {
			if _, err := s.GetTeam(ctx, in.TeamID.Value()); err != nil {
				return domain.Member{}, err
			}
			m.TeamID = in.TeamID.Value()
		}
	}

	if in.Status.IsSpecified() {
		if in.Status.IsNull() || !in.Status.Value().Valid() {
			return domain.Member{}, invalidEnum("status", string(in.Status.Value()))
		}
		m.Status = in.Status.Value()
	}

	if in.Gender.IsSpecified() {
		switch {
		case in.Gender.IsNull():
			m.Gender = domain.GenderUnspecified
		case validGender(in.Gender.Value()):
			m.Gender = in.Gender.Value()
		default:
			return domain.Member{}, invalidEnum("gender", string(in.Gender.Value()))
		}
	}

	if err := applyDate(&m.DateOfBirth, "dateOfBirth", in.DateOfBirth, now); err != nil {
		return domain.Member{}, err
	}
	if err := applyDate(&m.JoinedAt, "joinedAt", in.JoinedAt, now); err != nil {
		return domain.Member{}, err
	}

	m.UpdatedAt = now
	if err := s.repo.Update(ctx, m); err != nil {
		return domain.Member{}, fmt.Errorf("update member: %w", err)
	}
	return m, nil
}

func (s *Service) GetTeam(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	t, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, teamrepo.ErrNotFound) {
			return domain.Team{}, &Error{
				Status:  404,
				Code:    "TEAM_NOT_FOUND",
				Message: "Team not found.",
			}
		}
		return domain.Team{}, err
	}
	return t, nil
}

func (s *Service) ListTeams(ctx context.Context) ([]domain.Team, error) {
	return s.teams.List(ctx)
}

func (s *Service) CreateTeam(ctx context.Context, in CreateTeamInput) (domain.Team, error) {
	name := domain.NormalizeHumanName(in.Name)
	if name == "" {
		return domain.Team{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid name",
			Details: map[string]any{"name": "must be non-empty"},
		}
	}
	existing, err := s.teams.List(ctx)
	if err != nil {
		return domain.Team{}, err
	}
	for _, t := range existing {
		if domain.SameHumanName(t.Name, name) {
			return domain.Team{}, &Error{
				Status:  409,
				Code:    "TEAM_ALREADY_EXISTS",
				Message: "A team with this name already exists.",
			}
		}
	}

	t := domain.Team{
		ID:        s.newTeamID(),
		Name:      name,
		City:      strings.TrimSpace(in.City),
		IsYouth:   in.IsYouth,
		CreatedAt: s.clk.Now(),
	}
	if err := s.teams.Create(ctx, t); err != nil {
		return domain.Team{}, fmt.Errorf("create team: %w", err)
	}
	return t, nil
}

func applyName(dst *string, o Optional[string]) {
	if !o.IsSpecified() {
		return
	}
	if o.IsNull() {
		*dst = ""
		return
	}
	*dst = domain.NormalizeHumanName(o.Value())
}

func applyDate(dst **time.Time, field string, o Optional[time.Time], now time.Time) error {
	if !o.IsSpecified() {
		return nil
	}
	if o.IsNull() {
		*dst = nil
		return nil
	}
	v := o.Value()
	if err := notInFuture(field, &v, now); err != nil {
		return err
	}
	*dst = dateOnlyPtr(&v)
	return nil
}

func notInFuture(field string, t *time.Time, now time.Time) error {
	if t != nil && t.After(now) {
		return &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid " + field,
			Details: map[string]any{field: "must not be in the future"},
		}
	}
	return nil
}

func invalidEnum(field, value string) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid " + field,
		Details: map[string]any{field: fmt.Sprintf("unknown value %q", value)},
	}
}

func validGender(g domain.Gender) bool {
	switch g {
	case domain.GenderFemale, domain.GenderMale, domain.GenderUnspecified:
		return true
	}
	return false
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}
