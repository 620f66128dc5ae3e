package memory

import (
	"context"
	"sync"

	masterdata "fuelstation-backoffice/internal/masterdata/domain"
)

// Registry is an in-memory master data store for tests.
type Registry struct {
	mu        sync.RWMutex
	staff     map[string]masterdata.Staff
	pumps     map[string]masterdata.Pump
	customers map[string]masterdata.Customer
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		staff:     make(map[string]masterdata.Staff),
		pumps:     make(map[string]masterdata.Pump),
		customers: make(map[string]masterdata.Customer),
	}
}

// PutStaff stores a staff member.
func (r *Registry) PutStaff(staff masterdata.Staff) {
	r.mu.Lock()
	r.staff[staff.ID] = staff
	r.mu.Unlock()
}

// PutPump stores a pump.
func (r *Registry) PutPump(pump masterdata.Pump) {
	r.mu.Lock()
	r.pumps[pump.ID] = pump
	r.mu.Unlock()
}

// PutCustomer stores a customer.
func (r *Registry) PutCustomer(customer masterdata.Customer) {
	r.mu.Lock()
	r.customers[customer.ID] = customer
	r.mu.Unlock()
}

// StaffStore exposes the registry as a StaffRepository.
func (r *Registry) StaffStore() masterdata.StaffRepository { return staffStore{r} }

// PumpStore exposes the registry as a PumpRepository.
func (r *Registry) PumpStore() masterdata.PumpRepository { return pumpStore{r} }

// CustomerStore exposes the registry as a CustomerRepository.
func (r *Registry) CustomerStore() masterdata.CustomerRepository { return customerStore{r} }

type staffStore struct{ r *Registry }

func (s staffStore) Get(_ context.Context, id string) (*masterdata.Staff, error) {
	s.r.mu.RLock()
	defer s.r.mu.RUnlock()
	if staff, ok := s.r.staff[id]; ok {
		copy := staff
		return &copy, nil
	}
	return nil, nil
}

type pumpStore struct{ r *Registry }

func (s pumpStore) Get(_ context.Context, id string) (*masterdata.Pump, error) {
	s.r.mu.RLock()
	defer s.r.mu.RUnlock()
	if pump, ok := s.r.pumps[id]; ok {
		copy := pump
		return &copy, nil
	}
	return nil, nil
}

type customerStore struct{ r *Registry }

func (s customerStore) Get(_ context.Context, id string) (*masterdata.Customer, error) {
	s.r.mu.RLock()
	defer s.r.mu.RUnlock()
	if customer, ok := s.r.customers[id]; ok {
		copy := customer
		return &copy, nil
	}
	return nil, nil
}
