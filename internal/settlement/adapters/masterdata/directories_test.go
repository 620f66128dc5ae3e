package masterdata

import (
	"context"
	"testing"

	masterdata "fuelstation-backoffice/internal/masterdata/domain"
	"fuelstation-backoffice/internal/masterdata/infrastructure/memory"
)

func newRegistry() *memory.Registry {
	registry := memory.NewRegistry()
	registry.PutStaff(masterdata.Staff{ID: "staff-1", Name: "Ada", Active: true})
	registry.PutStaff(masterdata.Staff{ID: "staff-2", Name: "Ben", Active: false})
	registry.PutPump(masterdata.Pump{ID: "pump-1", Name: "Pump 1", TankID: "tank-1", FuelType: "diesel", Active: true})
	registry.PutCustomer(masterdata.Customer{ID: "cust-1", Name: "Haulage Co", Active: true, CreditLimit: 5000, Balance: 1200})
	return registry
}

func TestStaffDirectoryIsActive(t *testing.T) {
	ctx := context.Background()
	dir := NewStaffDirectory(newRegistry().StaffStore())

	active, err := dir.IsActive(ctx, "staff-1")
	if err != nil || !active {
		t.Fatalf("staff-1 active = %v, err = %v", active, err)
	}
	active, err = dir.IsActive(ctx, "staff-2")
	if err != nil || active {
		t.Fatalf("inactive staff reported active")
	}
	active, err = dir.IsActive(ctx, "staff-9")
	if err != nil || active {
		t.Fatalf("unknown staff reported active")
	}
}

func TestPumpDirectoryLookup(t *testing.T) {
	ctx := context.Background()
	dir := NewPumpDirectory(newRegistry().PumpStore())

	pump, err := dir.Lookup(ctx, "pump-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if pump == nil || pump.TankID != "tank-1" || !pump.Active {
		t.Fatalf("pump = %+v", pump)
	}

	missing, err := dir.Lookup(ctx, "pump-9")
	if err != nil || missing != nil {
		t.Fatalf("unknown pump = %+v, err = %v", missing, err)
	}
}

func TestCustomerDirectoryComputesHeadroom(t *testing.T) {
	ctx := context.Background()
	dir := NewCustomerDirectory(newRegistry().CustomerStore())

	customer, err := dir.Lookup(ctx, "cust-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if customer == nil || !customer.Active {
		t.Fatalf("customer = %+v", customer)
	}
	if customer.Available != 3800 {
		t.Fatalf("available = %.2f, want 3800 (limit minus balance)", customer.Available)
	}
}
