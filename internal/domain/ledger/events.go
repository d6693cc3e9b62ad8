package ledger

import (
	"context"

	"gledger/internal/core/id"
)

// EventType identifies a terminal posting outcome.
type EventType string

const (
	EventJournalPosted EventType = "journal_posted"
	EventBatchPosted   EventType = "batch_posted"
	EventPostingFailed EventType = "posting_failed"
)

// Event is the notification emitted after each terminal outcome, for
// UI toast display.
type Event struct {
	Type     EventType `json:"type"`
	TenantID string    `json:"tenantId"`
	ID       id.ID     `json:"id"`
	Summary  string    `json:"summary"`
}

// Notifier is the notification sink. Delivery is fire-and-forget and
// sits outside the transactional boundary: implementations must never
// fail the posting that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NopNotifier discards all events. Used in tests and as a default.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) {}
