package interfaces

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fuelstation-backoffice/internal/eventing"
	"fuelstation-backoffice/internal/eventing/eventbus"
	"fuelstation-backoffice/internal/observability/metrics"
	"fuelstation-backoffice/internal/settlement/application"
)

// CreditMirrorConsumerName identifies the consumer in the processed-events
// idempotency table.
const CreditMirrorConsumerName = "settlement.credit_mirror"

// CreditLedgerClient posts credit sales to the external customer ledger.
type CreditLedgerClient interface {
	RecordCreditSale(ctx context.Context, customerID string, amount float64, refID string, soldAt time.Time, staffID string) error
}

// MirrorMarker stamps credit entries once mirrored.
type MirrorMarker interface {
	MarkCreditMirrored(ctx context.Context, recordID, customerID string, at time.Time) error
}

// CreditMirrorConsumer forwards settlement credit sales to the external
// credit ledger. Delivery is at-least-once; the processed-events table
// stops whole-event replays and the per-(record, customer) reference id
// makes partial retries safe on the ledger side.
type CreditMirrorConsumer struct {
	client CreditLedgerClient
	marker MirrorMarker
	log    *zap.Logger
}

// NewCreditMirrorConsumer constructs a consumer.
func NewCreditMirrorConsumer(client CreditLedgerClient, marker MirrorMarker, log *zap.Logger) (*CreditMirrorConsumer, error) {
	if client == nil {
		return nil, errors.New("credit mirror consumer: nil client")
	}
	if marker == nil {
		return nil, errors.New("credit mirror consumer: nil marker")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CreditMirrorConsumer{client: client, marker: marker, log: log}, nil
}

// Handle mirrors each credit sale of a committed settlement. A failed sale
// fails the whole event so the dispatcher retries it; sales already
// mirrored in an earlier attempt are replay-safe.
func (c *CreditMirrorConsumer) Handle(ctx context.Context, event any) error {
	committed, ok := event.(application.SettlementCommitted)
	if !ok {
		return fmt.Errorf("credit mirror consumer: unexpected event %T", event)
	}
	for _, sale := range committed.Credit {
		refID := committed.RecordID + "|" + sale.CustomerID
		err := c.client.RecordCreditSale(ctx, sale.CustomerID, sale.Amount, refID, committed.OccurredAt, committed.StaffID)
		metrics.IncCreditMirror(metrics.Result(err))
		if err != nil {
			c.log.Warn("credit sale mirror failed",
				zap.String("record", committed.RecordID),
				zap.String("customer", sale.CustomerID),
				zap.Error(err))
			return err
		}
		if err := c.marker.MarkCreditMirrored(ctx, committed.RecordID, sale.CustomerID, time.Now().UTC()); err != nil {
			c.log.Warn("credit mirror stamp failed",
				zap.String("record", committed.RecordID),
				zap.String("customer", sale.CustomerID),
				zap.Error(err))
			return err
		}
	}
	return nil
}

// RegisterCreditMirrorConsumer subscribes the consumer on the bus with
// idempotency backed by the processed store.
func RegisterCreditMirrorConsumer(bus eventbus.EventBus, consumer *CreditMirrorConsumer, store eventing.ProcessedStore) {
	eventing.Subscribe(bus,
		eventbus.EventTypeOf[application.SettlementCommitted](),
		CreditMirrorConsumerName,
		consumer.Handle,
		store)
}
