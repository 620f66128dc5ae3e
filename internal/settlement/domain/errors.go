package settlement

import "errors"

var (
	// ErrEmptyStaffID is returned when staff id is empty.
	ErrEmptyStaffID = errors.New("settlement: empty staff id")
	// ErrEmptyPumpID is returned when pump id is empty.
	ErrEmptyPumpID = errors.New("settlement: empty pump id")
	// ErrInvalidShiftDate is returned when shift date is zero.
	ErrInvalidShiftDate = errors.New("settlement: invalid shift date")
	// ErrInvalidShift is returned for an unknown shift name.
	ErrInvalidShift = errors.New("settlement: invalid shift")
	// ErrNegativeAmount is returned when a collected amount is negative.
	ErrNegativeAmount = errors.New("settlement: negative amount")
	// ErrNegativeTestLiters is returned when test liters is negative.
	ErrNegativeTestLiters = errors.New("settlement: negative test liters")
	// ErrNegativeFuelPrice is returned when the fuel price is negative.
	ErrNegativeFuelPrice = errors.New("settlement: negative fuel price")
	// ErrStaffUnknown is returned when the staff member does not exist or is inactive.
	ErrStaffUnknown = errors.New("settlement: unknown or inactive staff")
	// ErrPumpUnknown is returned when the pump does not exist or is inactive.
	ErrPumpUnknown = errors.New("settlement: unknown or inactive pump")
	// ErrDuplicateShift is returned when a record for the same
	// (date, staff, pump, shift) combination already exists.
	ErrDuplicateShift = errors.New("settlement: duplicate shift record")
	// ErrRecordNotFound is returned when a record is not found.
	ErrRecordNotFound = errors.New("settlement: record not found")
	// ErrNilRecord is returned when saving a nil record.
	ErrNilRecord = errors.New("settlement: nil record")
	// ErrNotPending is returned when verifying a record that is not pending.
	ErrNotPending = errors.New("settlement: record not pending")
	// ErrNotVerified is returned when adjusting a record that is not verified.
	ErrNotVerified = errors.New("settlement: record not verified")
	// ErrNoDifference is returned when adjusting a balanced record.
	ErrNoDifference = errors.New("settlement: record has no difference")
	// ErrTerminalState is returned when transitioning a settled or disputed record.
	ErrTerminalState = errors.New("settlement: record in terminal state")

	// ErrCreditSumMismatch is returned when credit entries do not sum to the
	// collected credit amount within the allowed epsilon.
	ErrCreditSumMismatch = errors.New("settlement: credit entries do not match collected credit")
	// ErrCreditEntriesMissing is returned when collected credit is nonzero but
	// no valid credit entries were supplied.
	ErrCreditEntriesMissing = errors.New("settlement: credit entries missing")
	// ErrCreditEntryAmount is returned for a non-positive credit entry amount.
	ErrCreditEntryAmount = errors.New("settlement: credit entry amount must be positive")
	// ErrCustomerUnknown is returned when a credit entry names an unknown customer.
	ErrCustomerUnknown = errors.New("settlement: unknown credit customer")
	// ErrCustomerInactive is returned when a credit entry names an inactive customer.
	ErrCustomerInactive = errors.New("settlement: inactive credit customer")
	// ErrCreditExhausted is returned when a customer has no credit headroom left.
	ErrCreditExhausted = errors.New("settlement: customer credit exhausted")

	// ErrInvalidAdjustmentType is returned for an unknown adjustment type.
	ErrInvalidAdjustmentType = errors.New("settlement: invalid adjustment type")
	// ErrAdjustmentAmount is returned for a non-positive adjustment amount.
	ErrAdjustmentAmount = errors.New("settlement: adjustment amount must be positive")
	// ErrAdjustmentReason is returned when the adjustment reason is empty.
	ErrAdjustmentReason = errors.New("settlement: adjustment reason required")
)
