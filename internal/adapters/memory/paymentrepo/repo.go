package paymentrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/paymentrepo"
)

type settledKey struct {
	member domain.MemberID
	month  domain.RefMonth
}

// Repo is an in-memory append-only dues ledger.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	records []domain.DuesPayment
	ids     map[domain.PaymentID]struct{}
	settled map[settledKey]struct{}
}

func NewRepo() *Repo {
	return &Repo{
		ids:     make(map[domain.PaymentID]struct{}),
		settled: make(map[settledKey]struct{}),
	}
}

func (r *Repo) Append(ctx context.Context, ps []domain.DuesPayment) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate the whole batch before touching state.
	batch := make(map[settledKey]struct{}, len(ps))
	seen := make(map[domain.PaymentID]struct{}, len(ps))
	for _, p := range ps {
		if _, ok := r.ids[p.ID]; ok {
			return paymentrepo.ErrAlreadyExists
		}
		if _, ok := seen[p.ID]; ok {
			return paymentrepo.ErrAlreadyExists
		}
		seen[p.ID] = struct{}{}
		if !p.Status.Settles() {
			continue
		}
		k := settledKey{member: p.MemberID, month: p.Month}
		if _, ok := r.settled[k]; ok {
			return paymentrepo.ErrAlreadySettled
		}
		if _, ok := batch[k]; ok {
			return paymentrepo.ErrAlreadySettled
		}
		batch[k] = struct{}{}
	}

	for _, p := range ps {
		r.records = append(r.records, p)
		r.ids[p.ID] = struct{}{}
	}
	for k := range batch {
		r.settled[k] = struct{}{}
	}
	return nil
}

func (r *Repo) ListByMembers(ctx context.Context, ids []domain.MemberID) ([]domain.DuesPayment, error) {
	_ = ctx
	want := make(map[domain.MemberID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.DuesPayment, 0)
	for _, p := range r.records {
		if _, ok := want[p.MemberID]; ok {
			out = append(out, p)
		}
	}
	sortOldestFirst(out)
	return out, nil
}

func (r *Repo) ListRecentByTeam(ctx context.Context, teamID domain.TeamID, limit int) ([]domain.DuesPayment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.DuesPayment, 0)
	for _, p := range r.records {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repo) ListByYear(ctx context.Context, teamID domain.TeamID, year int) ([]domain.DuesPayment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.DuesPayment, 0)
	for _, p := range r.records {
		if p.Month.Year != year {
			continue
		}
		if teamID != "" && p.TeamID != teamID {
			continue
		}
		out = append(out, p)
	}
	sortOldestFirst(out)
	return out, nil
}

func sortOldestFirst(ps []domain.DuesPayment) {
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}
