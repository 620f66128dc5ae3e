package notify

import (
	"context"
	"time"
)

// AlertMessage represents a notification payload.
type AlertMessage struct {
	Kind              string    `json:"kind"`
	At                time.Time `json:"at"`
	Detail            string    `json:"detail"`
	RecommendedAction string    `json:"recommended_action,omitempty"`
}

// Notifier sends notifications.
type Notifier interface {
	Notify(ctx context.Context, msg AlertMessage) error
}
