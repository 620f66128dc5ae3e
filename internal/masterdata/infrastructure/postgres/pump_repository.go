package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "fuelstation-backoffice/internal/masterdata/domain"
)

const defaultPumpsTable = "pumps"

// PumpRepository is a Postgres implementation for pumps.
type PumpRepository struct {
	db    DBTX
	table string
}

// NewPumpRepository constructs a repository.
func NewPumpRepository(db DBTX, opts ...PumpOption) *PumpRepository {
	repo := &PumpRepository{db: db, table: defaultPumpsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// PumpOption configures the repository.
type PumpOption func(*PumpRepository)

// WithPumpTable overrides the default table name.
func WithPumpTable(table string) PumpOption {
	return func(repo *PumpRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a pump by id.
func (r *PumpRepository) Get(ctx context.Context, id string) (*masterdata.Pump, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("pump repo: nil db")
	}
	if id == "" {
		return nil, errors.New("pump repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, tank_id, fuel_type, active, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var pump masterdata.Pump
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&pump.ID,
		&pump.Name,
		&pump.TankID,
		&pump.FuelType,
		&pump.Active,
		&pump.CreatedAt,
		&pump.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &pump, nil
}
