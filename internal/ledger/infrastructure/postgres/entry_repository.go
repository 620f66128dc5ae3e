package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ledger "fuelstation-backoffice/internal/ledger/domain"
)

// EntryRepository persists ledger entries in Postgres. Approval locks the
// whole account chain with SELECT ... FOR UPDATE so two concurrent
// approvals on the same account serialize and both replays see a
// consistent chain.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository constructs a repository.
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Insert adds a new entry and returns its sequence id.
func (r *EntryRepository) Insert(ctx context.Context, entry *ledger.Entry) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("entry repo: nil db")
	}
	if entry == nil {
		return 0, ledger.ErrNilEntry
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO account_entries (
	account_id, type, amount, description, ref_type, ref_number, status,
	balance_before, balance_after, requested_by, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id`,
		entry.AccountID, entry.Type, entry.Amount, entry.Description,
		nullString(entry.RefType), nullString(entry.RefNumber), entry.Status,
		entry.BalanceBefore, entry.BalanceAfter, entry.RequestedBy, entry.CreatedAt, entry.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get fetches an entry by id. Missing entries return (nil, nil).
func (r *EntryRepository) Get(ctx context.Context, id int64) (*ledger.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, account_id, type, amount, description, ref_type, ref_number, status,
	balance_before, balance_after, requested_by, decided_by, decided_at,
	created_at, updated_at
FROM account_entries
WHERE id = $1
LIMIT 1`, id)
	return scanEntry(row)
}

// Update persists the mutable fields of an entry.
func (r *EntryRepository) Update(ctx context.Context, entry *ledger.Entry) error {
	if r == nil || r.db == nil {
		return errors.New("entry repo: nil db")
	}
	if entry == nil {
		return ledger.ErrNilEntry
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE account_entries
SET status = $2, balance_before = $3, balance_after = $4,
	decided_by = $5, decided_at = $6, updated_at = $7
WHERE id = $1`,
		entry.ID, entry.Status, entry.BalanceBefore, entry.BalanceAfter,
		nullString(entry.DecidedBy), nullTime(entry.DecidedAt), entry.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrEntryNotFound
	}
	return nil
}

// ApproveAndRecompute completes the entry and replays the account chain
// inside one transaction. The floor check failing rolls everything back,
// leaving the entry pending.
func (r *EntryRepository) ApproveAndRecompute(ctx context.Context, id int64, decidedBy string, floor float64, at time.Time) (*ledger.Entry, int, error) {
	if r == nil || r.db == nil {
		return nil, 0, errors.New("entry repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}

	var accountID string
	err = tx.QueryRowContext(ctx, `
SELECT account_id FROM account_entries WHERE id = $1`, id).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return nil, 0, ledger.ErrEntryNotFound
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, 0, err
	}

	rows, err := tx.QueryContext(ctx, `
SELECT id, account_id, type, amount, description, ref_type, ref_number, status,
	balance_before, balance_after, requested_by, decided_by, decided_at,
	created_at, updated_at
FROM account_entries
WHERE account_id = $1
ORDER BY id
FOR UPDATE`, accountID)
	if err != nil {
		_ = tx.Rollback()
		return nil, 0, err
	}
	var chain []ledger.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			_ = tx.Rollback()
			return nil, 0, err
		}
		chain = append(chain, *entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		_ = tx.Rollback()
		return nil, 0, err
	}
	rows.Close()

	for i := range chain {
		if chain[i].ID == id {
			if err := chain[i].Complete(decidedBy, at); err != nil {
				_ = tx.Rollback()
				return nil, 0, err
			}
		}
	}
	if _, err := ledger.ReplayChain(chain, 0, floor); err != nil {
		_ = tx.Rollback()
		return nil, 0, err
	}

	var completed *ledger.Entry
	recomputed := 0
	for i := range chain {
		entry := &chain[i]
		if entry.ID < id {
			continue
		}
		if entry.Status == ledger.StatusCompleted {
			recomputed++
		}
		_, err := tx.ExecContext(ctx, `
UPDATE account_entries
SET status = $2, balance_before = $3, balance_after = $4,
	decided_by = $5, decided_at = $6, updated_at = $7
WHERE id = $1`,
			entry.ID, entry.Status, entry.BalanceBefore, entry.BalanceAfter,
			nullString(entry.DecidedBy), nullTime(entry.DecidedAt), at.UTC())
		if err != nil {
			_ = tx.Rollback()
			return nil, 0, err
		}
		if entry.ID == id {
			completed = entry.Clone()
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return completed, recomputed, nil
}

// ListByAccount lists an account's entries, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]ledger.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, account_id, type, amount, description, ref_type, ref_number, status,
	balance_before, balance_after, requested_by, decided_by, decided_at,
	created_at, updated_at
FROM account_entries
WHERE account_id = $1
ORDER BY id DESC
LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListPending lists pending entries, oldest first.
func (r *EntryRepository) ListPending(ctx context.Context, accountID string) ([]ledger.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, account_id, type, amount, description, ref_type, ref_number, status,
	balance_before, balance_after, requested_by, decided_by, decided_at,
	created_at, updated_at
FROM account_entries
WHERE account_id = $1 AND status = 'pending'
ORDER BY id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// CurrentBalance returns balance_after of the newest completed entry.
func (r *EntryRepository) CurrentBalance(ctx context.Context, accountID string) (float64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("entry repo: nil db")
	}
	var balance float64
	err := r.db.QueryRowContext(ctx, `
SELECT balance_after
FROM account_entries
WHERE account_id = $1 AND status = 'completed'
ORDER BY id DESC
LIMIT 1`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*ledger.Entry, error) {
	var entry ledger.Entry
	var refType, refNumber, decidedBy sql.NullString
	var decidedAt sql.NullTime
	err := row.Scan(
		&entry.ID, &entry.AccountID, &entry.Type, &entry.Amount, &entry.Description, &refType, &refNumber, &entry.Status,
		&entry.BalanceBefore, &entry.BalanceAfter, &entry.RequestedBy, &decidedBy, &decidedAt,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if refType.Valid {
		entry.RefType = refType.String
	}
	if refNumber.Valid {
		entry.RefNumber = refNumber.String
	}
	if decidedBy.Valid {
		entry.DecidedBy = decidedBy.String
	}
	if decidedAt.Valid {
		entry.DecidedAt = decidedAt.Time
	}
	return &entry, nil
}

func collectEntries(rows *sql.Rows) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
