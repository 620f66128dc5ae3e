package settlement

import (
	"context"
	"math"
	"time"
)

// CreditEntry allocates part of a settlement's credit portion to a customer.
// Created atomically with its parent record. MirroredAt is set once the
// entry has been forwarded to the external credit ledger.
type CreditEntry struct {
	RecordID   string
	CustomerID string
	Amount     float64
	StaffID    string
	MirroredAt time.Time
	CreatedAt  time.Time
}

// CreditCustomer is the view of a customer the allocation check needs.
type CreditCustomer struct {
	ID        string
	Active    bool
	Available float64
}

// CustomerDirectory resolves credit customers. A nil result means the
// customer does not exist.
type CustomerDirectory interface {
	Lookup(ctx context.Context, customerID string) (*CreditCustomer, error)
}

// ValidateAllocation checks a credit split against the collected credit
// amount: every entry names an existing, active customer with remaining
// headroom, every amount is positive, and the entries sum to the collected
// credit within AmountEpsilon. A nonzero collected credit with no entries
// is invalid.
func ValidateAllocation(ctx context.Context, directory CustomerDirectory, collectedCredit float64, entries []CreditEntry) error {
	if collectedCredit <= AmountEpsilon {
		if len(entries) > 0 {
			return ErrCreditSumMismatch
		}
		return nil
	}
	if len(entries) == 0 {
		return ErrCreditEntriesMissing
	}

	var sum float64
	for _, entry := range entries {
		if entry.Amount <= 0 {
			return ErrCreditEntryAmount
		}
		customer, err := directory.Lookup(ctx, entry.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerUnknown
		}
		if !customer.Active {
			return ErrCustomerInactive
		}
		if customer.Available <= 0 {
			return ErrCreditExhausted
		}
		sum += entry.Amount
	}
	if math.Abs(sum-collectedCredit) > AmountEpsilon {
		return ErrCreditSumMismatch
	}
	return nil
}
