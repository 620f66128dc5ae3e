package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	ledger "fuelstation-backoffice/internal/ledger/domain"
	"fuelstation-backoffice/internal/observability/metrics"
)

// Publisher emits account entry completed events.
type Publisher interface {
	PublishAccountEntryCompleted(ctx context.Context, event AccountEntryCompleted) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// SubmitInput carries a new ledger entry request. AutoApprove is set when
// the requesting actor holds approval authority; the entry then completes
// in the same call instead of queuing for a supervisor.
type SubmitInput struct {
	AccountID   string
	Type        string
	Amount      float64
	Description string
	RefType     string
	RefNumber   string
	RequestedBy string
	AutoApprove bool
}

// Service handles account ledger use cases. Every completion replays the
// balance chain in id order, so approving an old pending entry repairs
// the balances of everything after it.
type Service struct {
	repo      ledger.Repository
	publisher Publisher
	clock     Clock
	floor     float64
	log       *zap.Logger
}

// NewService constructs the ledger service. floor is the lowest balance
// any point of the chain may reach; zero means no overdraft.
func NewService(repo ledger.Repository, publisher Publisher, clock Clock, floor float64, log *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("ledger service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, publisher: publisher, clock: clock, floor: floor, log: log}, nil
}

// Submit inserts a new entry. When the requester can approve, the entry
// completes immediately; a floor violation then surfaces to the caller
// and the entry stays pending.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*ledger.Entry, error) {
	now := s.clock.Now()
	entry, err := ledger.NewEntry(input.AccountID, input.Type, input.Amount,
		input.Description, input.RequestedBy, now)
	metrics.IncAccountSubmit(input.Type, metrics.Result(err))
	if err != nil {
		return nil, err
	}
	entry.RefType = input.RefType
	entry.RefNumber = input.RefNumber
	id, err := s.repo.Insert(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id

	if !input.AutoApprove {
		return entry, nil
	}
	completed, recomputed, err := s.repo.ApproveAndRecompute(ctx, id, input.RequestedBy, s.floor, now)
	if err != nil {
		s.log.Warn("immediate completion failed, entry left pending",
			zap.Int64("entry", id), zap.Error(err))
		return nil, err
	}
	metrics.ObserveChainRecompute(recomputed)
	s.publishCompleted(ctx, completed)
	return completed, nil
}

// Approve completes a pending entry and repairs the forward chain. The
// approval fails atomically when any balance after the entry would fall
// below the floor.
func (s *Service) Approve(ctx context.Context, id int64, decidedBy string) (*ledger.Entry, error) {
	start := time.Now()
	entry, recomputed, err := s.repo.ApproveAndRecompute(ctx, id, decidedBy, s.floor, s.clock.Now())
	metrics.ObserveAccountApprove(metrics.Result(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.ObserveChainRecompute(recomputed)
	s.publishCompleted(ctx, entry)
	return entry, nil
}

// Reject cancels a pending entry. Cancelled entries never touch balances.
func (s *Service) Reject(ctx context.Context, id int64, decidedBy string) (*ledger.Entry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ledger.ErrEntryNotFound
	}
	err = entry.Cancel(decidedBy, s.clock.Now())
	metrics.IncAccountReject(metrics.Result(err))
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get loads an entry by id.
func (s *Service) Get(ctx context.Context, id int64) (*ledger.Entry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ledger.ErrEntryNotFound
	}
	return entry, nil
}

// ListByAccount returns the most recent entries of an account.
func (s *Service) ListByAccount(ctx context.Context, accountID string, limit int) ([]ledger.Entry, error) {
	if accountID == "" {
		return nil, ledger.ErrEmptyAccountID
	}
	return s.repo.ListByAccount(ctx, accountID, limit)
}

// ListPending returns pending entries awaiting a supervisor.
func (s *Service) ListPending(ctx context.Context, accountID string) ([]ledger.Entry, error) {
	return s.repo.ListPending(ctx, accountID)
}

// CurrentBalance returns the balance after the newest completed entry.
func (s *Service) CurrentBalance(ctx context.Context, accountID string) (float64, error) {
	if accountID == "" {
		return 0, ledger.ErrEmptyAccountID
	}
	return s.repo.CurrentBalance(ctx, accountID)
}

func (s *Service) publishCompleted(ctx context.Context, entry *ledger.Entry) {
	if s.publisher == nil || entry == nil {
		return
	}
	event := AccountEntryCompleted{
		EntryID:      entry.ID,
		AccountID:    entry.AccountID,
		Type:         entry.Type,
		Amount:       entry.Amount,
		RefType:      entry.RefType,
		RefNumber:    entry.RefNumber,
		BalanceAfter: entry.BalanceAfter,
		OccurredAt:   entry.DecidedAt,
	}
	if err := s.publisher.PublishAccountEntryCompleted(ctx, event); err != nil {
		s.log.Warn("account entry completed publish failed",
			zap.Int64("entry", entry.ID), zap.Error(err))
	}
}
