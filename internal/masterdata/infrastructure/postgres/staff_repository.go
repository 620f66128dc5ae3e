package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "fuelstation-backoffice/internal/masterdata/domain"
)

const defaultStaffTable = "staff"

// StaffRepository is a Postgres implementation for staff.
type StaffRepository struct {
	db    DBTX
	table string
}

// NewStaffRepository constructs a repository.
func NewStaffRepository(db DBTX, opts ...StaffOption) *StaffRepository {
	repo := &StaffRepository{db: db, table: defaultStaffTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// StaffOption configures the repository.
type StaffOption func(*StaffRepository)

// WithStaffTable overrides the default table name.
func WithStaffTable(table string) StaffOption {
	return func(repo *StaffRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a staff member by id.
func (r *StaffRepository) Get(ctx context.Context, id string) (*masterdata.Staff, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("staff repo: nil db")
	}
	if id == "" {
		return nil, errors.New("staff repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, active, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var staff masterdata.Staff
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&staff.ID,
		&staff.Name,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}
