package salerepo

import (
	"context"
	"sort"
	"sync"

	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/salerepo"
)

// Repo is an in-memory append-only sale log.
// It is safe for concurrent use.
type Repo struct {
	mu      sync.RWMutex
	ids     map[domain.SaleID]struct{}
	byEvent map[domain.EventID][]domain.EventSale
}

func NewRepo() *Repo {
	return &Repo{
		ids:     make(map[domain.SaleID]struct{}),
		byEvent: make(map[domain.EventID][]domain.EventSale),
	}
}

func (r *Repo) Append(ctx context.Context, s domain.EventSale) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[s.ID]; ok || s.ID == "" {
		return salerepo.ErrAlreadyExists
	}
	r.ids[s.ID] = struct{}{}
	r.byEvent[s.EventID] = append(r.byEvent[s.EventID], s)
	return nil
}

func (r *Repo) ListByEvent(ctx context.Context, eventID domain.EventID) ([]domain.EventSale, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]domain.EventSale{}, r.byEvent[eventID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
