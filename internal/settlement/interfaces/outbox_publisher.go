package interfaces

import (
	"context"

	"fuelstation-backoffice/internal/eventing"
	"fuelstation-backoffice/internal/settlement/application"
)

// OutboxPublisher writes settlement committed events to the outbox.
type OutboxPublisher struct {
	publisher *eventing.Publisher
	stationID string
}

// NewOutboxPublisher constructs an outbox publisher.
func NewOutboxPublisher(publisher *eventing.Publisher, stationID string) *OutboxPublisher {
	return &OutboxPublisher{publisher: publisher, stationID: stationID}
}

// PublishSettlementCommitted writes the event to the outbox.
func (p *OutboxPublisher) PublishSettlementCommitted(ctx context.Context, event application.SettlementCommitted) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	if event.StationID == "" {
		event.StationID = p.stationID
	}
	ctx = eventing.WithStationID(ctx, p.stationID)
	return p.publisher.Publish(ctx, event)
}
