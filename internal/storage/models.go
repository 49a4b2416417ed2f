package storage

import (
	"time"

	"github.com/google/uuid"
)

// AlertReceipt records one received herd alert for auditing. The journal is
// write-only: live trending state is never rebuilt from it.
type AlertReceipt struct {
	ID         int64
	AlertID    uuid.UUID
	ProductID  string
	ReceivedAt time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// InteractionEvent is a journaled copy of a user interaction.
type InteractionEvent struct {
	ID         int64
	ProductID  string
	EventType  string
	OccurredAt time.Time
	CreatedAt  time.Time
}
