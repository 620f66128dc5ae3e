package application

import "time"

// AccountEntryCompleted is emitted when a ledger entry reaches completed,
// either immediately at submit for deposits or at supervisor approval.
type AccountEntryCompleted struct {
	EntryID      int64     `json:"entry_id"`
	AccountID    string    `json:"account_id"`
	StationID    string    `json:"station_id"`
	Type         string    `json:"type"`
	Amount       float64   `json:"amount"`
	RefType      string    `json:"ref_type,omitempty"`
	RefNumber    string    `json:"ref_number,omitempty"`
	BalanceAfter float64   `json:"balance_after"`
	OccurredAt   time.Time `json:"occurred_at"`
}
