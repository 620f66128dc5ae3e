// Package masterdata adapts the station master data repositories to the
// narrow directory views the settlement flow consumes.
package masterdata

import (
	"context"

	masterdata "fuelstation-backoffice/internal/masterdata/domain"
	"fuelstation-backoffice/internal/settlement/application"
	settlement "fuelstation-backoffice/internal/settlement/domain"
)

// StaffDirectory answers staff activity checks from a staff repository.
type StaffDirectory struct {
	repo masterdata.StaffRepository
}

func NewStaffDirectory(repo masterdata.StaffRepository) *StaffDirectory {
	return &StaffDirectory{repo: repo}
}

func (d *StaffDirectory) IsActive(ctx context.Context, staffID string) (bool, error) {
	staff, err := d.repo.Get(ctx, staffID)
	if err != nil {
		return false, err
	}
	return staff != nil && staff.Active, nil
}

// PumpDirectory resolves pumps from a pump repository.
type PumpDirectory struct {
	repo masterdata.PumpRepository
}

func NewPumpDirectory(repo masterdata.PumpRepository) *PumpDirectory {
	return &PumpDirectory{repo: repo}
}

func (d *PumpDirectory) Lookup(ctx context.Context, pumpID string) (*application.PumpRef, error) {
	pump, err := d.repo.Get(ctx, pumpID)
	if err != nil {
		return nil, err
	}
	if pump == nil {
		return nil, nil
	}
	return &application.PumpRef{ID: pump.ID, TankID: pump.TankID, Active: pump.Active}, nil
}

// CustomerDirectory resolves credit customers from a customer repository.
type CustomerDirectory struct {
	repo masterdata.CustomerRepository
}

func NewCustomerDirectory(repo masterdata.CustomerRepository) *CustomerDirectory {
	return &CustomerDirectory{repo: repo}
}

func (d *CustomerDirectory) Lookup(ctx context.Context, customerID string) (*settlement.CreditCustomer, error) {
	customer, err := d.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, nil
	}
	return &settlement.CreditCustomer{
		ID:        customer.ID,
		Active:    customer.Active,
		Available: customer.AvailableCredit(),
	}, nil
}
