package masterdata

import (
	"context"
	"errors"
	"time"
)

// Staff represents a station employee who can be assigned to a shift.
type Staff struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks staff invariants.
func (s Staff) Validate() error {
	if s.ID == "" {
		return errors.New("staff: empty id")
	}
	if s.Name == "" {
		return errors.New("staff: empty name")
	}
	return nil
}

// StaffRepository manages staff persistence.
type StaffRepository interface {
	Get(ctx context.Context, id string) (*Staff, error)
}
