// Package ledger holds the sequential account ledger. Entries are ordered
// by their insertion id; the running balance of every completed entry is
// derived from that order, never stored authoritatively anywhere else.
package ledger

import (
	"context"
	"time"
)

// Entry types.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypeAdjustment = "adjustment"
)

// Entry statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// RefTypePurchaseOrder marks entries referencing a supplier purchase
// order, the link the top-up resolver matches on.
const RefTypePurchaseOrder = "purchase_order"

// Entry is one account ledger line. ID is the insertion sequence and
// defines chain order. BalanceBefore/BalanceAfter are meaningful only
// while Status is completed. RefType/RefNumber optionally tie the entry
// to an external document, a purchase order for top-up deposits.
type Entry struct {
	ID            int64
	AccountID     string
	Type          string
	Amount        float64
	Description   string
	RefType       string
	RefNumber     string
	Status        string
	BalanceBefore float64
	BalanceAfter  float64
	RequestedBy   string
	DecidedBy     string
	DecidedAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewEntry builds a pending entry. Every type carries a positive amount:
// deposits add it, withdrawals subtract it, adjustments set the balance
// to it outright.
func NewEntry(accountID, entryType string, amount float64, description, requestedBy string, now time.Time) (*Entry, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}
	switch entryType {
	case TypeDeposit, TypeWithdrawal, TypeAdjustment:
	default:
		return nil, ErrInvalidEntryType
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Entry{
		AccountID:   accountID,
		Type:        entryType,
		Amount:      amount,
		Description: description,
		Status:      StatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Apply returns the balance after the entry given the balance before it.
func (e *Entry) Apply(balance float64) float64 {
	switch e.Type {
	case TypeWithdrawal:
		return balance - e.Amount
	case TypeAdjustment:
		return e.Amount
	default:
		return balance + e.Amount
	}
}

// Complete marks a pending entry completed.
func (e *Entry) Complete(decidedBy string, at time.Time) error {
	if e.Status != StatusPending {
		return ErrNotPending
	}
	e.Status = StatusCompleted
	e.DecidedBy = decidedBy
	e.DecidedAt = at.UTC()
	e.UpdatedAt = at.UTC()
	return nil
}

// Cancel marks a pending entry cancelled.
func (e *Entry) Cancel(decidedBy string, at time.Time) error {
	if e.Status != StatusPending {
		return ErrNotPending
	}
	e.Status = StatusCancelled
	e.DecidedBy = decidedBy
	e.DecidedAt = at.UTC()
	e.UpdatedAt = at.UTC()
	return nil
}

// Clone returns a detached copy.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	copy := *e
	return &copy
}

// ReplayChain recomputes BalanceBefore/BalanceAfter for every completed
// entry, walking the slice in its given id order from startingBalance.
// Pending and cancelled entries pass the balance through untouched. The
// first completed entry that would push the balance below floor stops the
// replay with ErrWouldGoNegative; callers treat the whole recomputation
// as rejected. Returns the balance after the last entry.
func ReplayChain(entries []Entry, startingBalance, floor float64) (float64, error) {
	balance := startingBalance
	for i := range entries {
		if entries[i].Status != StatusCompleted {
			continue
		}
		next := entries[i].Apply(balance)
		if next < floor {
			return 0, ErrWouldGoNegative
		}
		entries[i].BalanceBefore = balance
		entries[i].BalanceAfter = next
		balance = next
	}
	return balance, nil
}

// Repository manages ledger entries. Implementations must serialize
// Approve-time recomputation against concurrent writers for the same
// account.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) (int64, error)
	Get(ctx context.Context, id int64) (*Entry, error)
	Update(ctx context.Context, entry *Entry) error
	// ApproveAndRecompute completes the entry and replays the chain from
	// its id forward inside one transaction. It returns the completed
	// entry with balances filled in and the number of entries touched by
	// the replay.
	ApproveAndRecompute(ctx context.Context, id int64, decidedBy string, floor float64, at time.Time) (*Entry, int, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]Entry, error)
	ListPending(ctx context.Context, accountID string) ([]Entry, error)
	// CurrentBalance returns the balance after the highest-id completed
	// entry of the account, zero for an account with no completed entries.
	CurrentBalance(ctx context.Context, accountID string) (float64, error)
}
