package settlement

import "time"

// Adjustment types.
const (
	AdjustmentAllowance = "allowance"
	AdjustmentDeduction = "deduction"
	AdjustmentWriteOff  = "write-off"
)

// Adjustment statuses.
const (
	AdjustmentStatusApproved = "approved"
)

// Adjustment settles a verified record whose difference is nonzero.
type Adjustment struct {
	ID         string
	RecordID   string
	Type       string
	Amount     float64
	Reason     string
	ApprovedBy string
	Status     string
	CreatedAt  time.Time
}

// NewAdjustment builds an approved adjustment for a record.
func NewAdjustment(recordID, adjustmentType string, amount float64, reason, approverID string, now time.Time) (*Adjustment, error) {
	switch adjustmentType {
	case AdjustmentAllowance, AdjustmentDeduction, AdjustmentWriteOff:
	default:
		return nil, ErrInvalidAdjustmentType
	}
	if amount <= 0 {
		return nil, ErrAdjustmentAmount
	}
	if reason == "" {
		return nil, ErrAdjustmentReason
	}
	return &Adjustment{
		ID:         recordID + "|adj|" + now.UTC().Format("20060102150405"),
		RecordID:   recordID,
		Type:       adjustmentType,
		Amount:     amount,
		Reason:     reason,
		ApprovedBy: approverID,
		Status:     AdjustmentStatusApproved,
		CreatedAt:  now.UTC(),
	}, nil
}
