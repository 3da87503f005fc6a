package teamrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mfc-unidade/treasury-api/internal/domain"
	"github.com/mfc-unidade/treasury-api/internal/ports/out/teamrepo"
)

// Repo is an in-memory implementation of teamrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.TeamID]domain.Team
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.TeamID]domain.Team)}
}

func (r *Repo) Create(ctx context.Context, t domain.Team) error {
	_ = ctx
	if t.ID == "" {
		return teamrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; ok {
		return teamrepo.ErrAlreadyExists
	}
	r.byID[t.ID] = t
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return domain.Team{}, teamrepo.ErrNotFound
	}
	return t, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Team, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Team, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni == nj {
			return out[i].ID < out[j].ID
		}
		return ni < nj
	})
	return out, nil
}
