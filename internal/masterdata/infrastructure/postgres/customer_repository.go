package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "fuelstation-backoffice/internal/masterdata/domain"
)

const defaultCustomersTable = "customers"

// CustomerRepository is a Postgres implementation for credit customers.
type CustomerRepository struct {
	db    DBTX
	table string
}

// NewCustomerRepository constructs a repository.
func NewCustomerRepository(db DBTX, opts ...CustomerOption) *CustomerRepository {
	repo := &CustomerRepository{db: db, table: defaultCustomersTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// CustomerOption configures the repository.
type CustomerOption func(*CustomerRepository)

// WithCustomerTable overrides the default table name.
func WithCustomerTable(table string) CustomerOption {
	return func(repo *CustomerRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a customer by id.
func (r *CustomerRepository) Get(ctx context.Context, id string) (*masterdata.Customer, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("customer repo: nil db")
	}
	if id == "" {
		return nil, errors.New("customer repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, active, credit_limit, balance, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var customer masterdata.Customer
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Active,
		&customer.CreditLimit,
		&customer.Balance,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}
