package memberrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/memberrepo"
)

// Repo is an in-memory implementation of memberrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID map[domain.MemberID]domain.Member
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.MemberID]domain.Member),
	}
}

func (r *Repo) Create(ctx context.Context, m domain.Member) error {
	_ = ctx
	if m.ID == "" {
		return memberrepo.ErrAlreadyExists // treat empty ID as invalid; app validates earlier
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[m.ID]; ok {
		return memberrepo.ErrAlreadyExists
	}
	r.byID[m.ID] = cloneMember(m)
	return nil
}

func (r *Repo) Update(ctx context.Context, m domain.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[m.ID]
	if !ok {
		return memberrepo.ErrNotFound
	}
	// Registration time is immutable.
	m.CreatedAt = existing.CreatedAt
	r.byID[m.ID] = cloneMember(m)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.Member{}, memberrepo.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Member, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, cloneMember(m))
	}
	sortMembersByRegistration(out)
	return out, nil
}

func (r *Repo) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Member, 0)
	for _, m := range r.byID {
		if m.TeamID != teamID {
			continue
		}
		out = append(out, cloneMember(m))
	}
	sortMembersByRegistration(out)
	return out, nil
}

func (r *Repo) SetPaymentInactive(ctx context.Context, ids []domain.MemberID, inactive bool, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if _, ok := r.byID[id]; !ok {
			return memberrepo.ErrNotFound
		}
	}
	for _, id := range ids {
		m := r.byID[id]
		m.PaymentInactive = inactive
		m.UpdatedAt = at
		r.byID[id] = m
	}
	return nil
}

func cloneMember(m domain.Member) domain.Member {
	out := m
	out.DateOfBirth = cloneTimePtr(m.DateOfBirth)
	out.JoinedAt = cloneTimePtr(m.JoinedAt)
	return out
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sortMembersByRegistration(ms []domain.Member) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.Before(ms[j].CreatedAt)
		}
		return string(ms[i].ID) < string(ms[j].ID)
	})
}
