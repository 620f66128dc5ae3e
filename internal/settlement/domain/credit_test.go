package settlement

import (
	"context"
	"errors"
	"testing"
)

type stubDirectory map[string]CreditCustomer

func (d stubDirectory) Lookup(_ context.Context, customerID string) (*CreditCustomer, error) {
	if customer, ok := d[customerID]; ok {
		return &customer, nil
	}
	return nil, nil
}

func TestValidateAllocation_SumMismatchRejected(t *testing.T) {
	directory := stubDirectory{
		"cust-a": {ID: "cust-a", Active: true, Available: 1000},
		"cust-b": {ID: "cust-b", Active: true, Available: 1000},
	}
	entries := []CreditEntry{
		{CustomerID: "cust-a", Amount: 50},
		{CustomerID: "cust-b", Amount: 29},
	}
	err := ValidateAllocation(context.Background(), directory, 80, entries)
	if !errors.Is(err, ErrCreditSumMismatch) {
		t.Fatalf("expected ErrCreditSumMismatch, got %v", err)
	}
}

func TestValidateAllocation_WithinEpsilonAccepted(t *testing.T) {
	directory := stubDirectory{
		"cust-a": {ID: "cust-a", Active: true, Available: 1000},
		"cust-b": {ID: "cust-b", Active: true, Available: 1000},
	}
	entries := []CreditEntry{
		{CustomerID: "cust-a", Amount: 50.005},
		{CustomerID: "cust-b", Amount: 29.999},
	}
	if err := ValidateAllocation(context.Background(), directory, 80, entries); err != nil {
		t.Fatalf("expected allocation within epsilon to pass, got %v", err)
	}
}

func TestValidateAllocation_NonzeroCreditRequiresEntries(t *testing.T) {
	err := ValidateAllocation(context.Background(), stubDirectory{}, 80, nil)
	if !errors.Is(err, ErrCreditEntriesMissing) {
		t.Fatalf("expected ErrCreditEntriesMissing, got %v", err)
	}
}

func TestValidateAllocation_ZeroCreditNoEntries(t *testing.T) {
	if err := ValidateAllocation(context.Background(), stubDirectory{}, 0, nil); err != nil {
		t.Fatalf("expected zero credit with no entries to pass, got %v", err)
	}
}

func TestValidateAllocation_CustomerChecks(t *testing.T) {
	directory := stubDirectory{
		"inactive":  {ID: "inactive", Active: false, Available: 100},
		"exhausted": {ID: "exhausted", Active: true, Available: 0},
	}

	err := ValidateAllocation(context.Background(), directory, 50,
		[]CreditEntry{{CustomerID: "ghost", Amount: 50}})
	if !errors.Is(err, ErrCustomerUnknown) {
		t.Fatalf("expected ErrCustomerUnknown, got %v", err)
	}

	err = ValidateAllocation(context.Background(), directory, 50,
		[]CreditEntry{{CustomerID: "inactive", Amount: 50}})
	if !errors.Is(err, ErrCustomerInactive) {
		t.Fatalf("expected ErrCustomerInactive, got %v", err)
	}

	err = ValidateAllocation(context.Background(), directory, 50,
		[]CreditEntry{{CustomerID: "exhausted", Amount: 50}})
	if !errors.Is(err, ErrCreditExhausted) {
		t.Fatalf("expected ErrCreditExhausted, got %v", err)
	}

	err = ValidateAllocation(context.Background(), directory, 50,
		[]CreditEntry{{CustomerID: "exhausted", Amount: 0}})
	if !errors.Is(err, ErrCreditEntryAmount) {
		t.Fatalf("expected ErrCreditEntryAmount, got %v", err)
	}
}
