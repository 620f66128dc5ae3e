package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	settlement "fuelstation-backoffice/internal/settlement/domain"
)

// RecordRepository persists settlement records in Postgres. The records
// table carries a unique index on (shift_date, staff_id, pump_id, shift)
// which backs the duplicate-shift guarantee under concurrent submits.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository constructs a repository.
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Exists reports whether a record for the shift four-tuple is present.
func (r *RecordRepository) Exists(ctx context.Context, shiftDate time.Time, staffID, pumpID string, shift settlement.Shift) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("record repo: nil db")
	}
	var one int
	err := r.db.QueryRowContext(ctx, `
SELECT 1
FROM settlement_records
WHERE shift_date = $1 AND staff_id = $2 AND pump_id = $3 AND shift = $4
LIMIT 1`, shiftDate.UTC(), staffID, pumpID, string(shift)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a record and its credit entries in one transaction.
func (r *RecordRepository) Create(ctx context.Context, record *settlement.Record, entries []settlement.CreditEntry) error {
	if r == nil || r.db == nil {
		return errors.New("record repo: nil db")
	}
	if record == nil {
		return settlement.ErrNilRecord
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO settlement_records (
	id, shift_date, staff_id, pump_id, shift,
	meter_expected, test_liters, fuel_price, test_value, adjusted_expected,
	cash_amount, card_amount, credit_amount, total_collected, difference,
	status, verified_by, verified_at, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20
)`,
		record.ID, record.ShiftDate, record.StaffID, record.PumpID, string(record.Shift),
		record.MeterExpected, record.TestLiters, record.FuelPrice, record.TestValue, record.AdjustedExpected,
		record.CashAmount, record.CardAmount, record.CreditAmount, record.TotalCollected, record.Difference,
		record.Status, nullString(record.VerifiedBy), nullTime(record.VerifiedAt), record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return settlement.ErrDuplicateShift
		}
		return err
	}
	for _, entry := range entries {
		_, err := tx.ExecContext(ctx, `
INSERT INTO settlement_credit_entries (
	record_id, customer_id, amount, staff_id, mirrored_at, created_at
) VALUES ($1,$2,$3,$4,$5,$6)`,
			record.ID, entry.CustomerID, entry.Amount, entry.StaffID, nullTime(entry.MirroredAt), entry.CreatedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Get fetches a record by id. Missing records return (nil, nil).
func (r *RecordRepository) Get(ctx context.Context, id string) (*settlement.Record, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, shift_date, staff_id, pump_id, shift,
	meter_expected, test_liters, fuel_price, test_value, adjusted_expected,
	cash_amount, card_amount, credit_amount, total_collected, difference,
	status, verified_by, verified_at, created_at, updated_at
FROM settlement_records
WHERE id = $1
LIMIT 1`, id)
	return scanRecord(row)
}

// Save updates the mutable fields of a record.
func (r *RecordRepository) Save(ctx context.Context, record *settlement.Record) error {
	if r == nil || r.db == nil {
		return errors.New("record repo: nil db")
	}
	if record == nil {
		return settlement.ErrNilRecord
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE settlement_records
SET status = $2, verified_by = $3, verified_at = $4, updated_at = $5
WHERE id = $1`,
		record.ID, record.Status, nullString(record.VerifiedBy), nullTime(record.VerifiedAt), record.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return settlement.ErrRecordNotFound
	}
	return nil
}

// ListByDate lists records for a shift date ordered by pump then shift.
func (r *RecordRepository) ListByDate(ctx context.Context, shiftDate time.Time) ([]settlement.Record, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, shift_date, staff_id, pump_id, shift,
	meter_expected, test_liters, fuel_price, test_value, adjusted_expected,
	cash_amount, card_amount, credit_amount, total_collected, difference,
	status, verified_by, verified_at, created_at, updated_at
FROM settlement_records
WHERE shift_date = $1
ORDER BY pump_id, shift`, shiftDate.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *record)
	}
	return out, rows.Err()
}

// CreditEntries lists the credit split of a record.
func (r *RecordRepository) CreditEntries(ctx context.Context, recordID string) ([]settlement.CreditEntry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT record_id, customer_id, amount, staff_id, mirrored_at, created_at
FROM settlement_credit_entries
WHERE record_id = $1
ORDER BY customer_id`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.CreditEntry
	for rows.Next() {
		var entry settlement.CreditEntry
		var mirroredAt sql.NullTime
		if err := rows.Scan(&entry.RecordID, &entry.CustomerID, &entry.Amount, &entry.StaffID, &mirroredAt, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if mirroredAt.Valid {
			entry.MirroredAt = mirroredAt.Time
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// UnmirroredCreditEntries lists credit entries that never reached the
// customer credit ledger, oldest first.
func (r *RecordRepository) UnmirroredCreditEntries(ctx context.Context, limit int) ([]settlement.CreditEntry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT record_id, customer_id, amount, staff_id, mirrored_at, created_at
FROM settlement_credit_entries
WHERE mirrored_at IS NULL
ORDER BY created_at, record_id, customer_id
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.CreditEntry
	for rows.Next() {
		var entry settlement.CreditEntry
		var mirroredAt sql.NullTime
		if err := rows.Scan(&entry.RecordID, &entry.CustomerID, &entry.Amount, &entry.StaffID, &mirroredAt, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if mirroredAt.Valid {
			entry.MirroredAt = mirroredAt.Time
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// MarkCreditMirrored stamps a credit entry as mirrored. Already mirrored
// entries keep their original stamp.
func (r *RecordRepository) MarkCreditMirrored(ctx context.Context, recordID, customerID string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("record repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE settlement_credit_entries
SET mirrored_at = $3
WHERE record_id = $1 AND customer_id = $2 AND mirrored_at IS NULL`,
		recordID, customerID, at.UTC())
	return err
}

// CreateAdjustment inserts the adjustment and persists the record's status
// transition in one transaction.
func (r *RecordRepository) CreateAdjustment(ctx context.Context, adjustment *settlement.Adjustment, record *settlement.Record) error {
	if r == nil || r.db == nil {
		return errors.New("record repo: nil db")
	}
	if adjustment == nil || record == nil {
		return settlement.ErrNilRecord
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO settlement_adjustments (
	id, record_id, type, amount, reason, approved_by, status, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		adjustment.ID, adjustment.RecordID, adjustment.Type, adjustment.Amount,
		adjustment.Reason, adjustment.ApprovedBy, adjustment.Status, adjustment.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	_, err = tx.ExecContext(ctx, `
UPDATE settlement_records
SET status = $2, updated_at = $3
WHERE id = $1`,
		record.ID, record.Status, record.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Adjustments lists the adjustments of a record, newest last.
func (r *RecordRepository) Adjustments(ctx context.Context, recordID string) ([]settlement.Adjustment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, record_id, type, amount, reason, approved_by, status, created_at
FROM settlement_adjustments
WHERE record_id = $1
ORDER BY created_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Adjustment
	for rows.Next() {
		var adj settlement.Adjustment
		if err := rows.Scan(&adj.ID, &adj.RecordID, &adj.Type, &adj.Amount,
			&adj.Reason, &adj.ApprovedBy, &adj.Status, &adj.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, adj)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*settlement.Record, error) {
	var record settlement.Record
	var shift string
	var verifiedBy sql.NullString
	var verifiedAt sql.NullTime
	err := row.Scan(
		&record.ID, &record.ShiftDate, &record.StaffID, &record.PumpID, &shift,
		&record.MeterExpected, &record.TestLiters, &record.FuelPrice, &record.TestValue, &record.AdjustedExpected,
		&record.CashAmount, &record.CardAmount, &record.CreditAmount, &record.TotalCollected, &record.Difference,
		&record.Status, &verifiedBy, &verifiedAt, &record.CreatedAt, &record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record.Shift = settlement.Shift(shift)
	if verifiedBy.Valid {
		record.VerifiedBy = verifiedBy.String
	}
	if verifiedAt.Valid {
		record.VerifiedAt = verifiedAt.Time
	}
	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
