// Package topup tracks insufficient-balance obligations raised against
// purchase orders and ties them to the account ledger deposits that
// satisfy them.
package topup

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// DeadlineWindow is attached to every created top-up. Expiry is advisory
// display data; nothing cancels an expired top-up automatically.
const DeadlineWindow = 24 * time.Hour

// PendingTopUp is the shortfall a purchase order is waiting on.
type PendingTopUp struct {
	ID             string
	OrderID        string
	AccountID      string
	RequiredAmount float64
	Deadline       time.Time
	Status         string
	LinkedEntryID  int64
	CreatedAt      time.Time
	CompletedAt    time.Time
}

// NewID generates a random top-up id.
func NewID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return "topup-" + hex.EncodeToString(buf)
}

// NewPendingTopUp builds a pending top-up with the advisory deadline.
func NewPendingTopUp(orderID, accountID string, requiredAmount float64, now time.Time) (*PendingTopUp, error) {
	if orderID == "" {
		return nil, ErrEmptyOrderID
	}
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}
	if requiredAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	return &PendingTopUp{
		ID:             NewID(),
		OrderID:        orderID,
		AccountID:      accountID,
		RequiredAmount: requiredAmount,
		Deadline:       now.UTC().Add(DeadlineWindow),
		Status:         StatusPending,
		CreatedAt:      now.UTC(),
	}, nil
}

// Complete closes the top-up, optionally linking the ledger entry that
// satisfied it.
func (t *PendingTopUp) Complete(entryID int64, at time.Time) error {
	if t.Status != StatusPending {
		return ErrNotPending
	}
	t.Status = StatusCompleted
	t.LinkedEntryID = entryID
	t.CompletedAt = at.UTC()
	return nil
}

// Expired reports whether the advisory deadline has passed.
func (t *PendingTopUp) Expired(now time.Time) bool {
	return t.Status == StatusPending && now.After(t.Deadline)
}

// Clone returns a detached copy.
func (t *PendingTopUp) Clone() *PendingTopUp {
	if t == nil {
		return nil
	}
	copy := *t
	return &copy
}

// Repository manages pending top-up persistence.
type Repository interface {
	Create(ctx context.Context, topUp *PendingTopUp) error
	Get(ctx context.Context, id string) (*PendingTopUp, error)
	// GetOpenByOrder returns the pending top-up of a purchase order,
	// (nil, nil) when the order has none.
	GetOpenByOrder(ctx context.Context, orderID string) (*PendingTopUp, error)
	Update(ctx context.Context, topUp *PendingTopUp) error
	ListOpen(ctx context.Context) ([]PendingTopUp, error)
}
