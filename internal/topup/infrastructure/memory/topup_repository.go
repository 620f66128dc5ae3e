// Package memory provides in-memory top-up storage for tests and local
// development.
package memory

import (
	"context"
	"sort"
	"sync"

	topup "fuelstation-backoffice/internal/topup/domain"
)

// TopUpRepository is an in-memory topup.Repository.
type TopUpRepository struct {
	mu     sync.RWMutex
	topUps map[string]*topup.PendingTopUp
}

// NewTopUpRepository constructs an empty repository.
func NewTopUpRepository() *TopUpRepository {
	return &TopUpRepository{topUps: make(map[string]*topup.PendingTopUp)}
}

func (r *TopUpRepository) Create(_ context.Context, t *topup.PendingTopUp) error {
	if t == nil {
		return topup.ErrNilTopUp
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topUps[t.ID] = t.Clone()
	return nil
}

func (r *TopUpRepository) Get(_ context.Context, id string) (*topup.PendingTopUp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topUps[id].Clone(), nil
}

func (r *TopUpRepository) GetOpenByOrder(_ context.Context, orderID string) (*topup.PendingTopUp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.topUps {
		if t.OrderID == orderID && t.Status == topup.StatusPending {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

func (r *TopUpRepository) Update(_ context.Context, t *topup.PendingTopUp) error {
	if t == nil {
		return topup.ErrNilTopUp
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.topUps[t.ID]; !ok {
		return topup.ErrNotFound
	}
	r.topUps[t.ID] = t.Clone()
	return nil
}

func (r *TopUpRepository) ListOpen(_ context.Context) ([]topup.PendingTopUp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []topup.PendingTopUp
	for _, t := range r.topUps {
		if t.Status == topup.StatusPending {
			out = append(out, *t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
