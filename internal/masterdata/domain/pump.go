package masterdata

import (
	"context"
	"errors"
	"time"
)

// Pump represents a dispensing pump. TankID links the pump to the tank
// that absorbs test-liter returns.
type Pump struct {
	ID        string
	Name      string
	TankID    string
	FuelType  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks pump invariants.
func (p Pump) Validate() error {
	if p.ID == "" {
		return errors.New("pump: empty id")
	}
	if p.TankID == "" {
		return errors.New("pump: empty tank id")
	}
	return nil
}

// PumpRepository manages pump persistence.
type PumpRepository interface {
	Get(ctx context.Context, id string) (*Pump, error)
}
