package eventrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/eventrepo"
)

// Repo is an in-memory implementation of eventrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.EventID]domain.Event
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.EventID]domain.Event)}
}

func (r *Repo) Create(ctx context.Context, e domain.Event) error {
	_ = ctx
	if e.ID == "" {
		return eventrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[e.ID]; ok {
		return eventrepo.ErrAlreadyExists
	}
	r.byID[e.ID] = cloneEvent(e)
	return nil
}

func (r *Repo) Save(ctx context.Context, e domain.Event) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[e.ID]
	if !ok {
		return eventrepo.ErrNotFound
	}
	next := cloneEvent(e)
	next.Expenses = existing.Expenses
	next.CreatedAt = existing.CreatedAt
	r.byID[e.ID] = next
	return nil
}

func (r *Repo) AppendExpense(ctx context.Context, id domain.EventID, x domain.Expense) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return eventrepo.ErrNotFound
	}
	e.Expenses = append(append([]domain.Expense(nil), e.Expenses...), x)
	r.byID[id] = e
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.EventID) (domain.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return domain.Event{}, eventrepo.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Event, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneEvent(e domain.Event) domain.Event {
	out := e
	out.Expenses = append([]domain.Expense(nil), e.Expenses...)
	out.Quotas = append([]domain.EventTeamQuota(nil), e.Quotas...)
	if e.TicketQuantity != nil {
		v := *e.TicketQuantity
		out.TicketQuantity = &v
	}
	if e.TicketPrice != nil {
		v := *e.TicketPrice
		out.TicketPrice = &v
	}
	return out
}
