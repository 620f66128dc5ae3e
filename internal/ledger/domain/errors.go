package ledger

import "errors"

var (
	// ErrInvalidEntryType is returned for an unknown entry type.
	ErrInvalidEntryType = errors.New("ledger: invalid entry type")
	// ErrInvalidAmount is returned when the amount does not fit the entry type.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrEmptyAccountID is returned when the account id is empty.
	ErrEmptyAccountID = errors.New("ledger: empty account id")
	// ErrEntryNotFound is returned when an entry is not found.
	ErrEntryNotFound = errors.New("ledger: entry not found")
	// ErrNotPending is returned when approving or rejecting a non-pending entry.
	ErrNotPending = errors.New("ledger: entry not pending")
	// ErrWouldGoNegative is returned when completing an entry would push a
	// later balance in the chain below the account floor.
	ErrWouldGoNegative = errors.New("ledger: balance would fall below floor")
	// ErrNilEntry is returned when persisting a nil entry.
	ErrNilEntry = errors.New("ledger: nil entry")
)
