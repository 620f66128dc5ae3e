package settlement

import (
	"context"
	"math"
	"time"
)

// Shift identifies the shift slot of a settlement.
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
	ShiftNight     Shift = "night"
)

// NormalizeShift validates and normalizes a shift string.
func NormalizeShift(value string) (Shift, bool) {
	switch Shift(value) {
	case ShiftMorning, ShiftAfternoon, ShiftEvening, ShiftNight:
		return Shift(value), true
	default:
		return "", false
	}
}

// Record statuses.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusSettled  = "settled"
	StatusDisputed = "disputed"
)

// AmountEpsilon is the tolerance for monetary comparisons.
const AmountEpsilon = 0.01

// Record is the per-shift cash settlement aggregate.
// Identity: shift date + staff + pump + shift.
type Record struct {
	ID            string
	ShiftDate     time.Time
	StaffID       string
	PumpID        string
	Shift         Shift
	MeterExpected float64
	TestLiters    float64
	FuelPrice     float64
	// Derived: TestValue = TestLiters * FuelPrice,
	// AdjustedExpected = MeterExpected - TestValue.
	TestValue        float64
	AdjustedExpected float64
	CashAmount       float64
	CardAmount       float64
	CreditAmount     float64
	TotalCollected   float64
	Difference       float64
	Status           string
	VerifiedBy       string
	VerifiedAt       time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BuildRecordID builds the record identity from the shift four-tuple.
func BuildRecordID(shiftDate time.Time, staffID, pumpID string, shift Shift) (string, error) {
	if shiftDate.IsZero() {
		return "", ErrInvalidShiftDate
	}
	if staffID == "" {
		return "", ErrEmptyStaffID
	}
	if pumpID == "" {
		return "", ErrEmptyPumpID
	}
	if _, ok := NormalizeShift(string(shift)); !ok {
		return "", ErrInvalidShift
	}
	return shiftDate.UTC().Format("2006-01-02") + "|" + staffID + "|" + pumpID + "|" + string(shift), nil
}

// NewRecord builds a settlement record with all derived amounts computed.
// A positive meter reading implies the settlement was already reviewed
// against live readings, so the record starts verified; without one it
// starts pending and waits for a supervisor.
func NewRecord(shiftDate time.Time, staffID, pumpID string, shift Shift,
	meterExpected, testLiters, fuelPrice, cash, card, credit float64, now time.Time) (*Record, error) {

	id, err := BuildRecordID(shiftDate, staffID, pumpID, shift)
	if err != nil {
		return nil, err
	}
	if cash < 0 || card < 0 || credit < 0 || meterExpected < 0 {
		return nil, ErrNegativeAmount
	}
	if testLiters < 0 {
		return nil, ErrNegativeTestLiters
	}
	if fuelPrice < 0 {
		return nil, ErrNegativeFuelPrice
	}

	testValue := testLiters * fuelPrice
	total := cash + card + credit
	record := &Record{
		ID:               id,
		ShiftDate:        shiftDate.UTC(),
		StaffID:          staffID,
		PumpID:           pumpID,
		Shift:            shift,
		MeterExpected:    meterExpected,
		TestLiters:       testLiters,
		FuelPrice:        fuelPrice,
		TestValue:        testValue,
		AdjustedExpected: meterExpected - testValue,
		CashAmount:       cash,
		CardAmount:       card,
		CreditAmount:     credit,
		TotalCollected:   total,
		Difference:       total - meterExpected,
		Status:           StatusPending,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
	if meterExpected > 0 {
		record.Status = StatusVerified
	}
	return record, nil
}

// Verify moves a pending record to verified and stamps the verifier.
func (r *Record) Verify(verifierID string, at time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusVerified
	r.VerifiedBy = verifierID
	r.VerifiedAt = at.UTC()
	r.UpdatedAt = at.UTC()
	return nil
}

// Dispute moves a pending or verified record to disputed.
func (r *Record) Dispute(at time.Time) error {
	if r.Status != StatusPending && r.Status != StatusVerified {
		return ErrTerminalState
	}
	r.Status = StatusDisputed
	r.UpdatedAt = at.UTC()
	return nil
}

// Settle closes a verified record through an adjustment.
func (r *Record) Settle(at time.Time) error {
	if r.Status != StatusVerified {
		return ErrNotVerified
	}
	if !r.HasDifference() {
		return ErrNoDifference
	}
	r.Status = StatusSettled
	r.UpdatedAt = at.UTC()
	return nil
}

// HasDifference reports whether collected and expected diverge beyond epsilon.
func (r *Record) HasDifference() bool {
	return math.Abs(r.Difference) > AmountEpsilon
}

// Clone returns a detached copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	copy := *r
	return &copy
}

// Repository manages settlement record persistence. Create persists the
// record and its credit entries as one atomic unit and reports
// ErrDuplicateShift when the four-tuple unique constraint is violated.
type Repository interface {
	Exists(ctx context.Context, shiftDate time.Time, staffID, pumpID string, shift Shift) (bool, error)
	Create(ctx context.Context, record *Record, entries []CreditEntry) error
	Get(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, record *Record) error
	ListByDate(ctx context.Context, shiftDate time.Time) ([]Record, error)
	CreditEntries(ctx context.Context, recordID string) ([]CreditEntry, error)
	UnmirroredCreditEntries(ctx context.Context, limit int) ([]CreditEntry, error)
	MarkCreditMirrored(ctx context.Context, recordID, customerID string, at time.Time) error
	CreateAdjustment(ctx context.Context, adjustment *Adjustment, record *Record) error
	Adjustments(ctx context.Context, recordID string) ([]Adjustment, error)
}
