package topup

import "errors"

var (
	// ErrEmptyOrderID is returned when the purchase order id is empty.
	ErrEmptyOrderID = errors.New("topup: empty purchase order id")
	// ErrEmptyAccountID is returned when the account id is empty.
	ErrEmptyAccountID = errors.New("topup: empty account id")
	// ErrInvalidAmount is returned for a non-positive required amount.
	ErrInvalidAmount = errors.New("topup: required amount must be positive")
	// ErrNotFound is returned when a pending top-up is not found.
	ErrNotFound = errors.New("topup: not found")
	// ErrNotPending is returned when completing an already closed top-up.
	ErrNotPending = errors.New("topup: not pending")
	// ErrOpenTopUpExists is returned when a purchase order already has an
	// open top-up.
	ErrOpenTopUpExists = errors.New("topup: open top-up already exists for order")
	// ErrInsufficientBalance is returned when an explicit completion is
	// requested but the ledger balance still falls short.
	ErrInsufficientBalance = errors.New("topup: ledger balance still insufficient")
	// ErrNilTopUp is returned when persisting a nil top-up.
	ErrNilTopUp = errors.New("topup: nil top-up")
)
