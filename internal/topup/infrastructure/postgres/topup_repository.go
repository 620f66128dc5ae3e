package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	topup "fuelstation-backoffice/internal/topup/domain"
)

// TopUpRepository persists pending top-ups in Postgres. A partial unique
// index on (order_id) WHERE status = 'pending' keeps one open top-up per
// purchase order.
type TopUpRepository struct {
	db *sql.DB
}

// NewTopUpRepository constructs a repository.
func NewTopUpRepository(db *sql.DB) *TopUpRepository {
	return &TopUpRepository{db: db}
}

// Create inserts a pending top-up.
func (r *TopUpRepository) Create(ctx context.Context, t *topup.PendingTopUp) error {
	if r == nil || r.db == nil {
		return errors.New("topup repo: nil db")
	}
	if t == nil {
		return topup.ErrNilTopUp
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO pending_topups (
	id, order_id, account_id, required_amount, deadline, status,
	linked_entry_id, created_at, completed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.OrderID, t.AccountID, t.RequiredAmount, t.Deadline, t.Status,
		nullInt64(t.LinkedEntryID), t.CreatedAt, nullTime(t.CompletedAt))
	return err
}

// Get fetches a top-up by id. Missing rows return (nil, nil).
func (r *TopUpRepository) Get(ctx context.Context, id string) (*topup.PendingTopUp, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("topup repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, order_id, account_id, required_amount, deadline, status,
	linked_entry_id, created_at, completed_at
FROM pending_topups
WHERE id = $1
LIMIT 1`, id)
	return scanTopUp(row)
}

// GetOpenByOrder fetches the pending top-up of a purchase order.
func (r *TopUpRepository) GetOpenByOrder(ctx context.Context, orderID string) (*topup.PendingTopUp, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("topup repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, order_id, account_id, required_amount, deadline, status,
	linked_entry_id, created_at, completed_at
FROM pending_topups
WHERE order_id = $1 AND status = 'pending'
LIMIT 1`, orderID)
	return scanTopUp(row)
}

// Update persists the mutable fields of a top-up.
func (r *TopUpRepository) Update(ctx context.Context, t *topup.PendingTopUp) error {
	if r == nil || r.db == nil {
		return errors.New("topup repo: nil db")
	}
	if t == nil {
		return topup.ErrNilTopUp
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE pending_topups
SET status = $2, linked_entry_id = $3, completed_at = $4
WHERE id = $1`,
		t.ID, t.Status, nullInt64(t.LinkedEntryID), nullTime(t.CompletedAt))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return topup.ErrNotFound
	}
	return nil
}

// ListOpen lists pending top-ups, oldest first.
func (r *TopUpRepository) ListOpen(ctx context.Context) ([]topup.PendingTopUp, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("topup repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, order_id, account_id, required_amount, deadline, status,
	linked_entry_id, created_at, completed_at
FROM pending_topups
WHERE status = 'pending'
ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []topup.PendingTopUp
	for rows.Next() {
		t, err := scanTopUp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopUp(row rowScanner) (*topup.PendingTopUp, error) {
	var t topup.PendingTopUp
	var linkedEntryID sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(
		&t.ID, &t.OrderID, &t.AccountID, &t.RequiredAmount, &t.Deadline, &t.Status,
		&linkedEntryID, &t.CreatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if linkedEntryID.Valid {
		t.LinkedEntryID = linkedEntryID.Int64
	}
	if completedAt.Valid {
		t.CompletedAt = completedAt.Time
	}
	return &t, nil
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
