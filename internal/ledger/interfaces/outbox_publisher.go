package interfaces

import (
	"context"

	"fuelstation-backoffice/internal/eventing"
	"fuelstation-backoffice/internal/ledger/application"
)

// OutboxPublisher writes account entry completed events to the outbox.
type OutboxPublisher struct {
	publisher *eventing.Publisher
	stationID string
}

// NewOutboxPublisher constructs an outbox publisher.
func NewOutboxPublisher(publisher *eventing.Publisher, stationID string) *OutboxPublisher {
	return &OutboxPublisher{publisher: publisher, stationID: stationID}
}

// PublishAccountEntryCompleted writes the event to the outbox.
func (p *OutboxPublisher) PublishAccountEntryCompleted(ctx context.Context, event application.AccountEntryCompleted) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	if event.StationID == "" {
		event.StationID = p.stationID
	}
	ctx = eventing.WithStationID(ctx, p.stationID)
	return p.publisher.Publish(ctx, event)
}
