// Package memory provides in-memory ledger storage for tests and local
// development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	ledger "fuelstation-backoffice/internal/ledger/domain"
)

// EntryRepository is an in-memory ledger.Repository.
type EntryRepository struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]*ledger.Entry
}

// NewEntryRepository constructs an empty repository.
func NewEntryRepository() *EntryRepository {
	return &EntryRepository{nextID: 1, entries: make(map[int64]*ledger.Entry)}
}

func (r *EntryRepository) Insert(_ context.Context, entry *ledger.Entry) (int64, error) {
	if entry == nil {
		return 0, ledger.ErrNilEntry
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	stored := entry.Clone()
	stored.ID = id
	r.entries[id] = stored
	return id, nil
}

func (r *EntryRepository) Get(_ context.Context, id int64) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id].Clone(), nil
}

func (r *EntryRepository) Update(_ context.Context, entry *ledger.Entry) error {
	if entry == nil {
		return ledger.ErrNilEntry
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.ID]; !ok {
		return ledger.ErrEntryNotFound
	}
	r.entries[entry.ID] = entry.Clone()
	return nil
}

func (r *EntryRepository) ApproveAndRecompute(_ context.Context, id int64, decidedBy string, floor float64, at time.Time) (*ledger.Entry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.entries[id]
	if target == nil {
		return nil, 0, ledger.ErrEntryNotFound
	}

	chain := r.accountChainLocked(target.AccountID)
	for i := range chain {
		if chain[i].ID == id {
			if err := chain[i].Complete(decidedBy, at); err != nil {
				return nil, 0, err
			}
		}
	}
	if _, err := ledger.ReplayChain(chain, 0, floor); err != nil {
		return nil, 0, err
	}

	var completed *ledger.Entry
	recomputed := 0
	for i := range chain {
		if chain[i].ID >= id && chain[i].Status == ledger.StatusCompleted {
			recomputed++
		}
		r.entries[chain[i].ID] = chain[i].Clone()
		if chain[i].ID == id {
			completed = chain[i].Clone()
		}
	}
	return completed, recomputed, nil
}

func (r *EntryRepository) ListByAccount(_ context.Context, accountID string, limit int) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chain := r.accountChainLocked(accountID)
	// Newest first.
	sort.Slice(chain, func(i, j int) bool { return chain[i].ID > chain[j].ID })
	if limit > 0 && len(chain) > limit {
		chain = chain[:limit]
	}
	return chain, nil
}

func (r *EntryRepository) ListPending(_ context.Context, accountID string) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Entry
	for _, entry := range r.accountChainLocked(accountID) {
		if entry.Status == ledger.StatusPending {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *EntryRepository) CurrentBalance(_ context.Context, accountID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *ledger.Entry
	for _, entry := range r.entries {
		if entry.AccountID != accountID || entry.Status != ledger.StatusCompleted {
			continue
		}
		if best == nil || entry.ID > best.ID {
			best = entry
		}
	}
	if best == nil {
		return 0, nil
	}
	return best.BalanceAfter, nil
}

// accountChainLocked returns the account's entries in id order.
func (r *EntryRepository) accountChainLocked(accountID string) []ledger.Entry {
	var chain []ledger.Entry
	for _, entry := range r.entries {
		if entry.AccountID == accountID {
			chain = append(chain, *entry.Clone())
		}
	}
	sort.Slice(chain, func(i, j int) bool { return chain[i].ID < chain[j].ID })
	return chain
}
