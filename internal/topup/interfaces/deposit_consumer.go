package interfaces

import (
	"context"
	"fmt"

	"fuelstation-backoffice/internal/eventing"
	"fuelstation-backoffice/internal/eventing/eventbus"
	ledgerapp "fuelstation-backoffice/internal/ledger/application"
	topupapp "fuelstation-backoffice/internal/topup/application"
)

// DepositConsumerName identifies the consumer in the processed-events
// idempotency table.
const DepositConsumerName = "topup.deposit_linker"

// DepositConsumer closes open top-ups when a deposit referencing their
// purchase order completes.
type DepositConsumer struct {
	service *topupapp.Service
}

// NewDepositConsumer constructs a consumer.
func NewDepositConsumer(service *topupapp.Service) *DepositConsumer {
	return &DepositConsumer{service: service}
}

// Handle resolves the top-up matching a completed ledger entry.
func (c *DepositConsumer) Handle(ctx context.Context, event any) error {
	completed, ok := event.(ledgerapp.AccountEntryCompleted)
	if !ok {
		return fmt.Errorf("topup deposit consumer: unexpected event %T", event)
	}
	return c.service.ResolveIfMatching(ctx, completed)
}

// RegisterDepositConsumer subscribes the consumer on the bus with
// idempotency backed by the processed store.
func RegisterDepositConsumer(bus eventbus.EventBus, consumer *DepositConsumer, store eventing.ProcessedStore) {
	eventing.Subscribe(bus,
		eventbus.EventTypeOf[ledgerapp.AccountEntryCompleted](),
		DepositConsumerName,
		consumer.Handle,
		store)
}
