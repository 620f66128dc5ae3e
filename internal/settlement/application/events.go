package application

import "time"

// CreditSale is one customer's share of a committed settlement's credit.
type CreditSale struct {
	CustomerID string  `json:"customer_id"`
	Amount     float64 `json:"amount"`
}

// SettlementCommitted is emitted after a settlement record with a credit
// portion has been persisted. Consumers mirror the sales to the external
// credit ledger; the settlement commit never waits for them.
type SettlementCommitted struct {
	RecordID   string       `json:"record_id"`
	StationID  string       `json:"station_id"`
	ShiftDate  time.Time    `json:"shift_date"`
	StaffID    string       `json:"staff_id"`
	Credit     []CreditSale `json:"credit"`
	OccurredAt time.Time    `json:"occurred_at"`
}
