package masterdata

import (
	"context"
	"errors"
	"time"
)

// Customer represents a credit customer of the station.
type Customer struct {
	ID          string
	Name        string
	Active      bool
	CreditLimit float64
	Balance     float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks customer invariants.
func (c Customer) Validate() error {
	if c.ID == "" {
		return errors.New("customer: empty id")
	}
	if c.Name == "" {
		return errors.New("customer: empty name")
	}
	if c.CreditLimit < 0 {
		return errors.New("customer: negative credit limit")
	}
	return nil
}

// AvailableCredit returns the remaining credit headroom.
func (c Customer) AvailableCredit() float64 {
	return c.CreditLimit - c.Balance
}

// CustomerRepository manages customer persistence.
type CustomerRepository interface {
	Get(ctx context.Context, id string) (*Customer, error)
}
