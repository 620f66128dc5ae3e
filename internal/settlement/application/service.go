package application

import (
	"context"
	"errors"
	"time"

	settlement "fuelstation-backoffice/internal/settlement/domain"

	"go.uber.org/zap"
)

// PumpRef is the view of a pump the settlement flow needs.
type PumpRef struct {
	ID     string
	TankID string
	Active bool
}

// StaffDirectory reports whether a staff member exists and is active.
type StaffDirectory interface {
	IsActive(ctx context.Context, staffID string) (bool, error)
}

// PumpDirectory resolves pumps. A nil result means the pump does not exist.
type PumpDirectory interface {
	Lookup(ctx context.Context, pumpID string) (*PumpRef, error)
}

// TankGateway is the external tank/meter system. Both calls are
// best-effort from the settlement's point of view: the local financial
// record is the source of truth.
type TankGateway interface {
	GetExpectedAmount(ctx context.Context, pumpID string, date time.Time, shift settlement.Shift) (amount, unitPrice float64, err error)
	ApplyVolumeAdjustment(ctx context.Context, tankID string, signedVolume float64, note, refID string) error
}

// Publisher emits settlement committed events.
type Publisher interface {
	PublishSettlementCommitted(ctx context.Context, event SettlementCommitted) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// CreditAllocationInput is one requested credit split entry.
type CreditAllocationInput struct {
	CustomerID string
	Amount     float64
}

// CreateSettlementInput carries the manual entry of a shift settlement.
type CreateSettlementInput struct {
	ShiftDate     time.Time
	StaffID       string
	PumpID        string
	Shift         string
	MeterExpected float64
	TestLiters    float64
	FuelPrice     float64
	CashAmount    float64
	CardAmount    float64
	CreditAmount  float64
	CreditSplit   []CreditAllocationInput
}

// Service handles settlement record use cases.
type Service struct {
	repo      settlement.Repository
	staff     StaffDirectory
	pumps     PumpDirectory
	customers settlement.CustomerDirectory
	gateway   TankGateway
	publisher Publisher
	clock     Clock
	log       *zap.Logger
}

// NewService constructs the settlement service.
func NewService(
	repo settlement.Repository,
	staff StaffDirectory,
	pumps PumpDirectory,
	customers settlement.CustomerDirectory,
	gateway TankGateway,
	publisher Publisher,
	clock Clock,
	log *zap.Logger,
) (*Service, error) {
	if repo == nil {
		return nil, errors.New("settlement service: nil repository")
	}
	if staff == nil || pumps == nil || customers == nil {
		return nil, errors.New("settlement service: nil directory")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		staff:     staff,
		pumps:     pumps,
		customers: customers,
		gateway:   gateway,
		publisher: publisher,
		clock:     clock,
		log:       log,
	}, nil
}

// Create reconciles and persists one shift settlement. The record, its
// detail and its credit entries are one atomic write; the tank volume
// return and the credit ledger mirroring are side effects that never
// roll back the settlement.
func (s *Service) Create(ctx context.Context, input CreateSettlementInput) (*settlement.Record, error) {
	shift, ok := settlement.NormalizeShift(input.Shift)
	if !ok {
		return nil, settlement.ErrInvalidShift
	}

	active, err := s.staff.IsActive(ctx, input.StaffID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, settlement.ErrStaffUnknown
	}
	pump, err := s.pumps.Lookup(ctx, input.PumpID)
	if err != nil {
		return nil, err
	}
	if pump == nil || !pump.Active {
		return nil, settlement.ErrPumpUnknown
	}

	meterExpected := input.MeterExpected
	fuelPrice := input.FuelPrice
	if meterExpected == 0 && s.gateway != nil {
		amount, unitPrice, err := s.gateway.GetExpectedAmount(ctx, input.PumpID, input.ShiftDate, shift)
		if err != nil {
			// Fail-soft: the record starts pending and waits for a supervisor.
			s.log.Warn("tank gateway expected-amount lookup failed",
				zap.String("pump", input.PumpID), zap.Error(err))
		} else {
			meterExpected = amount
			if fuelPrice == 0 {
				fuelPrice = unitPrice
			}
		}
	}

	now := s.clock.Now()
	record, err := settlement.NewRecord(input.ShiftDate, input.StaffID, input.PumpID, shift,
		meterExpected, input.TestLiters, fuelPrice,
		input.CashAmount, input.CardAmount, input.CreditAmount, now)
	if err != nil {
		return nil, err
	}

	entries := make([]settlement.CreditEntry, 0, len(input.CreditSplit))
	for _, split := range input.CreditSplit {
		entries = append(entries, settlement.CreditEntry{
			RecordID:   record.ID,
			CustomerID: split.CustomerID,
			Amount:     split.Amount,
			StaffID:    record.StaffID,
			CreatedAt:  now,
		})
	}
	if err := settlement.ValidateAllocation(ctx, s.customers, record.CreditAmount, entries); err != nil {
		return nil, err
	}

	// Fast, user-friendly duplicate check; the unique index is authoritative.
	exists, err := s.repo.Exists(ctx, record.ShiftDate, record.StaffID, record.PumpID, record.Shift)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, settlement.ErrDuplicateShift
	}

	if err := s.repo.Create(ctx, record, entries); err != nil {
		return nil, err
	}

	if record.TestLiters > 0 && s.gateway != nil {
		if err := s.gateway.ApplyVolumeAdjustment(ctx, pump.TankID, record.TestLiters,
			"test liters return", record.ID); err != nil {
			s.log.Warn("tank volume return failed",
				zap.String("record", record.ID),
				zap.String("tank", pump.TankID),
				zap.Float64("liters", record.TestLiters),
				zap.Error(err))
		}
	}

	if record.CreditAmount > settlement.AmountEpsilon && s.publisher != nil {
		sales := make([]CreditSale, 0, len(entries))
		for _, entry := range entries {
			sales = append(sales, CreditSale{CustomerID: entry.CustomerID, Amount: entry.Amount})
		}
		event := SettlementCommitted{
			RecordID:   record.ID,
			ShiftDate:  record.ShiftDate,
			StaffID:    record.StaffID,
			Credit:     sales,
			OccurredAt: now,
		}
		if err := s.publisher.PublishSettlementCommitted(ctx, event); err != nil {
			s.log.Warn("settlement committed publish failed",
				zap.String("record", record.ID), zap.Error(err))
		}
	}

	return record, nil
}

// Verify moves a pending record to verified.
func (s *Service) Verify(ctx context.Context, recordID, verifierID string) (*settlement.Record, error) {
	record, err := s.repo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, settlement.ErrRecordNotFound
	}
	if err := record.Verify(verifierID, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Dispute marks a record disputed.
func (s *Service) Dispute(ctx context.Context, recordID string) (*settlement.Record, error) {
	record, err := s.repo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, settlement.ErrRecordNotFound
	}
	if err := record.Dispute(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateAdjustment settles a verified record with nonzero difference.
// The adjustment insert and the status transition are one atomic write.
func (s *Service) CreateAdjustment(ctx context.Context, recordID, adjustmentType string, amount float64, reason, approverID string) (*settlement.Adjustment, error) {
	record, err := s.repo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, settlement.ErrRecordNotFound
	}

	now := s.clock.Now()
	adjustment, err := settlement.NewAdjustment(recordID, adjustmentType, amount, reason, approverID, now)
	if err != nil {
		return nil, err
	}
	if err := record.Settle(now); err != nil {
		return nil, err
	}
	if err := s.repo.CreateAdjustment(ctx, adjustment, record); err != nil {
		return nil, err
	}
	return adjustment, nil
}

// Get loads a record by id.
func (s *Service) Get(ctx context.Context, recordID string) (*settlement.Record, error) {
	record, err := s.repo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, settlement.ErrRecordNotFound
	}
	return record, nil
}

// ListByDate returns all records for a shift date.
func (s *Service) ListByDate(ctx context.Context, shiftDate time.Time) ([]settlement.Record, error) {
	return s.repo.ListByDate(ctx, shiftDate)
}

// CreditEntries returns the credit split of a record.
func (s *Service) CreditEntries(ctx context.Context, recordID string) ([]settlement.CreditEntry, error) {
	return s.repo.CreditEntries(ctx, recordID)
}
