package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	ledgerapp "fuelstation-backoffice/internal/ledger/application"
	ledger "fuelstation-backoffice/internal/ledger/domain"
	"fuelstation-backoffice/internal/observability/metrics"
	topup "fuelstation-backoffice/internal/topup/domain"
)

// LedgerAccess is the slice of the account ledger the top-up flow needs.
type LedgerAccess interface {
	CurrentBalance(ctx context.Context, accountID string) (float64, error)
	Submit(ctx context.Context, input ledgerapp.SubmitInput) (*ledger.Entry, error)
}

// PurchaseOrderMarker flips a purchase order's account-check status in
// the procurement system. Failing the call never fails the top-up close.
type PurchaseOrderMarker interface {
	MarkAccountSufficient(ctx context.Context, orderID string) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// PartialPaymentResult reports the split of a partial payment.
type PartialPaymentResult struct {
	Paid      float64
	Remainder float64
	EntryID   int64
	TopUpID   string
}

// Service handles pending top-up use cases.
type Service struct {
	repo    topup.Repository
	ledger  LedgerAccess
	marker  PurchaseOrderMarker
	clock   Clock
	reserve float64
	log     *zap.Logger
}

// NewService constructs the top-up service. reserve is the minimum ledger
// balance a partial payment must leave untouched.
func NewService(repo topup.Repository, ledgerAccess LedgerAccess, marker PurchaseOrderMarker, clock Clock, reserve float64, log *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("topup service: nil repository")
	}
	if ledgerAccess == nil {
		return nil, errors.New("topup service: nil ledger access")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		ledger:  ledgerAccess,
		marker:  marker,
		clock:   clock,
		reserve: reserve,
		log:     log,
	}, nil
}

// Create raises a pending top-up for a purchase order shortfall. One open
// top-up per order.
func (s *Service) Create(ctx context.Context, orderID, accountID string, requiredAmount float64) (*topup.PendingTopUp, error) {
	existing, err := s.repo.GetOpenByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, topup.ErrOpenTopUpExists
	}
	pending, err := topup.NewPendingTopUp(orderID, accountID, requiredAmount, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// ResolveIfMatching closes the open top-up of the purchase order a
// completed deposit references. Deposits without a purchase order
// reference, and orders without an open top-up, are ignored.
func (s *Service) ResolveIfMatching(ctx context.Context, event ledgerapp.AccountEntryCompleted) error {
	if event.Type != ledger.TypeDeposit || event.RefType != ledger.RefTypePurchaseOrder || event.RefNumber == "" {
		return nil
	}
	pending, err := s.repo.GetOpenByOrder(ctx, event.RefNumber)
	if err != nil {
		return err
	}
	if pending == nil {
		return nil
	}
	if err := pending.Complete(event.EntryID, s.clock.Now()); err != nil {
		return err
	}
	err = s.repo.Update(ctx, pending)
	metrics.IncTopupResolve(metrics.Result(err))
	if err != nil {
		return err
	}
	s.markSufficient(ctx, pending.OrderID)
	return nil
}

// PartialPayment pays as much of a purchase order as the ledger allows
// while keeping the reserve, and raises a top-up for the remainder.
func (s *Service) PartialPayment(ctx context.Context, orderID, accountID string, amountNeeded float64, requestedBy string) (*PartialPaymentResult, error) {
	if orderID == "" {
		return nil, topup.ErrEmptyOrderID
	}
	if amountNeeded <= 0 {
		return nil, topup.ErrInvalidAmount
	}
	balance, err := s.ledger.CurrentBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	available := balance - s.reserve
	if available < 0 {
		available = 0
	}
	pay := amountNeeded
	if pay > available {
		pay = available
	}

	result := &PartialPaymentResult{Paid: pay, Remainder: amountNeeded - pay}
	if pay > 0 {
		entry, err := s.ledger.Submit(ctx, ledgerapp.SubmitInput{
			AccountID:   accountID,
			Type:        ledger.TypeWithdrawal,
			Amount:      pay,
			Description: "partial payment for purchase order " + orderID,
			RefType:     ledger.RefTypePurchaseOrder,
			RefNumber:   orderID,
			RequestedBy: requestedBy,
			AutoApprove: true,
		})
		if err != nil {
			return nil, err
		}
		result.EntryID = entry.ID
	}
	if result.Remainder > 0 {
		pending, err := s.Create(ctx, orderID, accountID, result.Remainder)
		if err != nil {
			return nil, err
		}
		result.TopUpID = pending.ID
	} else {
		s.markSufficient(ctx, orderID)
	}
	return result, nil
}

// CompleteIfSufficient explicitly closes a top-up once the ledger balance
// covers the required amount over the reserve.
func (s *Service) CompleteIfSufficient(ctx context.Context, id string) (*topup.PendingTopUp, error) {
	pending, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, topup.ErrNotFound
	}
	balance, err := s.ledger.CurrentBalance(ctx, pending.AccountID)
	if err != nil {
		return nil, err
	}
	if balance-s.reserve < pending.RequiredAmount {
		return nil, topup.ErrInsufficientBalance
	}
	if err := pending.Complete(0, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, pending); err != nil {
		return nil, err
	}
	s.markSufficient(ctx, pending.OrderID)
	return pending, nil
}

// ListOpen returns all open top-ups with their advisory deadlines.
func (s *Service) ListOpen(ctx context.Context) ([]topup.PendingTopUp, error) {
	return s.repo.ListOpen(ctx)
}

func (s *Service) markSufficient(ctx context.Context, orderID string) {
	if s.marker == nil {
		return
	}
	if err := s.marker.MarkAccountSufficient(ctx, orderID); err != nil {
		s.log.Warn("purchase order account-check update failed",
			zap.String("order", orderID), zap.Error(err))
	}
}
