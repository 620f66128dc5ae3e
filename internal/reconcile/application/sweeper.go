package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fuelstation-backoffice/internal/reconcile/notify"
	settlement "fuelstation-backoffice/internal/settlement/domain"
	topup "fuelstation-backoffice/internal/topup/domain"
)

// CreditEntrySource is the slice of settlement storage the sweep reads.
type CreditEntrySource interface {
	UnmirroredCreditEntries(ctx context.Context, limit int) ([]settlement.CreditEntry, error)
	MarkCreditMirrored(ctx context.Context, recordID, customerID string, at time.Time) error
}

// TopUpSource lists open top-ups so the sweep can flag overdue ones.
type TopUpSource interface {
	ListOpen(ctx context.Context) ([]topup.PendingTopUp, error)
}

// CreditLedgerClient posts a credit sale to the customer ledger.
type CreditLedgerClient interface {
	RecordCreditSale(ctx context.Context, customerID string, amount float64, refID string, soldAt time.Time, staffID string) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// SweepReport summarizes one reconcile pass.
type SweepReport struct {
	Scanned       int       `json:"scanned"`
	Replayed      int       `json:"replayed"`
	Failed        int       `json:"failed"`
	OverdueTopUps int       `json:"overdue_topups"`
	Alerted       bool      `json:"alerted"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// Sweeper replays credit entries that never reached the customer ledger
// and flags open top-ups past their deadline.
type Sweeper struct {
	entries  CreditEntrySource
	topups   TopUpSource
	client   CreditLedgerClient
	notifier notify.Notifier
	cfg      Config
	clock    Clock
	log      *zap.Logger
}

// NewSweeper constructs a sweeper. The notifier and top-up source are
// optional.
func NewSweeper(entries CreditEntrySource, topups TopUpSource, client CreditLedgerClient, notifier notify.Notifier, cfg Config, clock Clock, log *zap.Logger) (*Sweeper, error) {
	if entries == nil {
		return nil, errors.New("sweeper: nil credit entry source")
	}
	if client == nil {
		return nil, errors.New("sweeper: nil credit ledger client")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{
		entries:  entries,
		topups:   topups,
		client:   client,
		notifier: notifier,
		cfg:      cfg,
		clock:    clock,
		log:      log,
	}, nil
}

// Run performs one sweep. Replay failures are counted, not fatal, so one
// unreachable ledger call does not stall the rest of the batch.
func (s *Sweeper) Run(ctx context.Context) (*SweepReport, error) {
	now := s.clock.Now()
	report := &SweepReport{GeneratedAt: now}

	pending, err := s.entries.UnmirroredCreditEntries(ctx, s.cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	report.Scanned = len(pending)

	for _, entry := range pending {
		refID := entry.RecordID + "|" + entry.CustomerID
		if err := s.client.RecordCreditSale(ctx, entry.CustomerID, entry.Amount, refID, entry.CreatedAt, entry.StaffID); err != nil {
			report.Failed++
			s.log.Warn("credit replay failed",
				zap.String("record", entry.RecordID),
				zap.String("customer", entry.CustomerID),
				zap.Error(err))
			continue
		}
		if err := s.entries.MarkCreditMirrored(ctx, entry.RecordID, entry.CustomerID, now); err != nil {
			return nil, err
		}
		report.Replayed++
	}

	if s.topups != nil {
		open, err := s.topups.ListOpen(ctx)
		if err != nil {
			return nil, err
		}
		for i := range open {
			if open[i].Expired(now) {
				report.OverdueTopUps++
			}
		}
	}

	s.maybeAlert(ctx, report)
	return report, nil
}

// RunLoop sweeps on the configured interval until the context is done.
func (s *Sweeper) RunLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				s.log.Error("reconcile sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) maybeAlert(ctx context.Context, report *SweepReport) {
	if s.notifier == nil {
		return
	}
	t := s.cfg.Thresholds
	breached := report.Failed > t.MaxReplayFailures ||
		report.OverdueTopUps > t.MaxOverdueTopUps ||
		report.Scanned > t.MaxUnmirrored
	if !breached {
		return
	}
	msg := notify.AlertMessage{
		Kind:   "reconcile_sweep",
		At:     report.GeneratedAt,
		Detail: fmt.Sprintf("unmirrored=%d replayed=%d failed=%d overdue_topups=%d", report.Scanned, report.Replayed, report.Failed, report.OverdueTopUps),
	}
	if report.Failed > t.MaxReplayFailures {
		msg.RecommendedAction = "check credit ledger availability"
	} else if report.OverdueTopUps > t.MaxOverdueTopUps {
		msg.RecommendedAction = "chase overdue supplier top-ups"
	} else {
		msg.RecommendedAction = "inspect unmirrored credit backlog"
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Warn("reconcile alert failed", zap.Error(err))
		return
	}
	report.Alerted = true
}
