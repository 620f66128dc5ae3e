// Package memory provides in-memory settlement storage for tests and
// local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	settlement "fuelstation-backoffice/internal/settlement/domain"
)

// RecordRepository is an in-memory settlement.Repository.
type RecordRepository struct {
	mu          sync.RWMutex
	records     map[string]*settlement.Record
	entries     map[string][]settlement.CreditEntry
	adjustments map[string][]settlement.Adjustment
}

// NewRecordRepository constructs an empty repository.
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{
		records:     make(map[string]*settlement.Record),
		entries:     make(map[string][]settlement.CreditEntry),
		adjustments: make(map[string][]settlement.Adjustment),
	}
}

func (r *RecordRepository) Exists(_ context.Context, shiftDate time.Time, staffID, pumpID string, shift settlement.Shift) (bool, error) {
	id, err := settlement.BuildRecordID(shiftDate, staffID, pumpID, shift)
	if err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[id]
	return ok, nil
}

func (r *RecordRepository) Create(_ context.Context, record *settlement.Record, entries []settlement.CreditEntry) error {
	if record == nil {
		return settlement.ErrNilRecord
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; ok {
		return settlement.ErrDuplicateShift
	}
	r.records[record.ID] = record.Clone()
	r.entries[record.ID] = append([]settlement.CreditEntry(nil), entries...)
	return nil
}

func (r *RecordRepository) Get(_ context.Context, id string) (*settlement.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[id].Clone(), nil
}

func (r *RecordRepository) Save(_ context.Context, record *settlement.Record) error {
	if record == nil {
		return settlement.ErrNilRecord
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; !ok {
		return settlement.ErrRecordNotFound
	}
	r.records[record.ID] = record.Clone()
	return nil
}

func (r *RecordRepository) ListByDate(_ context.Context, shiftDate time.Time) ([]settlement.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	day := shiftDate.UTC().Format("2006-01-02")
	var out []settlement.Record
	for _, record := range r.records {
		if record.ShiftDate.Format("2006-01-02") == day {
			out = append(out, *record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PumpID != out[j].PumpID {
			return out[i].PumpID < out[j].PumpID
		}
		return out[i].Shift < out[j].Shift
	})
	return out, nil
}

func (r *RecordRepository) CreditEntries(_ context.Context, recordID string) ([]settlement.CreditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]settlement.CreditEntry(nil), r.entries[recordID]...), nil
}

func (r *RecordRepository) UnmirroredCreditEntries(_ context.Context, limit int) ([]settlement.CreditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []settlement.CreditEntry
	recordIDs := make([]string, 0, len(r.entries))
	for recordID := range r.entries {
		recordIDs = append(recordIDs, recordID)
	}
	sort.Strings(recordIDs)
	for _, recordID := range recordIDs {
		for _, entry := range r.entries[recordID] {
			if !entry.MirroredAt.IsZero() {
				continue
			}
			out = append(out, entry)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (r *RecordRepository) MarkCreditMirrored(_ context.Context, recordID, customerID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[recordID]
	for i := range entries {
		if entries[i].CustomerID == customerID && entries[i].MirroredAt.IsZero() {
			entries[i].MirroredAt = at.UTC()
		}
	}
	return nil
}

func (r *RecordRepository) CreateAdjustment(_ context.Context, adjustment *settlement.Adjustment, record *settlement.Record) error {
	if adjustment == nil || record == nil {
		return settlement.ErrNilRecord
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; !ok {
		return settlement.ErrRecordNotFound
	}
	r.adjustments[record.ID] = append(r.adjustments[record.ID], *adjustment)
	r.records[record.ID] = record.Clone()
	return nil
}

func (r *RecordRepository) Adjustments(_ context.Context, recordID string) ([]settlement.Adjustment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]settlement.Adjustment(nil), r.adjustments[recordID]...), nil
}
