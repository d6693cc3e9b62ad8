package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gledger/internal/core/id"
	"gledger/internal/domain/ledger"
	"gledger/pkg/logger"
)

// NotificationStatus represents the state of a queued notification.
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusFailed    NotificationStatus = "failed"
)

// Notification is a queued posting event awaiting delivery.
type Notification struct {
	ID          id.ID              `db:"id"`
	TenantID    string             `db:"tenant_id"`
	EventType   string             `db:"event_type"`
	SubjectID   id.ID              `db:"subject_id"`
	Payload     []byte             `db:"payload"`
	Status      NotificationStatus `db:"status"`
	RetryCount  int                `db:"retry_count"`
	LastError   *string            `db:"last_error"`
	NextRetryAt *time.Time         `db:"next_retry_at"`
	CreatedAt   time.Time          `db:"created_at"`
	DeliveredAt *time.Time         `db:"delivered_at"`
}

// Compile-time check that OutboxNotifier implements ledger.Notifier.
var _ ledger.Notifier = (*OutboxNotifier)(nil)

// OutboxNotifier queues posting events in the ledger_notifications
// table for asynchronous delivery. Queueing failures are logged and
// swallowed; posting never fails because a notification could not be
// recorded.
type OutboxNotifier struct {
	txManager *TxManager
}

// NewOutboxNotifier creates a new outbox-backed notifier.
func NewOutboxNotifier(txManager *TxManager) *OutboxNotifier {
	return &OutboxNotifier{txManager: txManager}
}

// Notify queues the event for delivery.
func (n *OutboxNotifier) Notify(ctx context.Context, event ledger.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx, "marshal notification payload", "error", err, "event", event.Type)
		return
	}

	querier := n.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, `
		INSERT INTO ledger_notifications (id, tenant_id, event_type, subject_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id.New(), event.TenantID, string(event.Type), event.ID, payload, NotificationStatusPending, time.Now().UTC())
	if err != nil {
		logger.Error(ctx, "queue notification", "error", err, "event", event.Type, "subject_id", event.ID)
	}
}

// NotificationSink delivers a queued notification to its destination
// (webhook, message broker, mail).
type NotificationSink interface {
	Deliver(ctx context.Context, event ledger.Event) error
}

// NotificationRelay drains pending notifications and hands them to the
// sink. Run from a background worker.
type NotificationRelay struct {
	pool      *pgxpool.Pool
	batchSize int
	sink      NotificationSink
}

// NewNotificationRelay creates a new relay.
func NewNotificationRelay(pool *pgxpool.Pool, batchSize int, sink NotificationSink) *NotificationRelay {
	return &NotificationRelay{
		pool:      pool,
		batchSize: batchSize,
		sink:      sink,
	}
}

// ProcessBatch fetches and delivers pending notifications.
// Returns the number delivered.
func (r *NotificationRelay) ProcessBatch(ctx context.Context) (int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, event_type, subject_id, payload, status,
		       retry_count, last_error, next_retry_at, created_at, delivered_at
		FROM ledger_notifications
		WHERE status = $1
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, NotificationStatusPending, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch notifications: %w", err)
	}
	defer rows.Close()

	var pending []*Notification
	for rows.Next() {
		var msg Notification
		err := rows.Scan(
			&msg.ID, &msg.TenantID, &msg.EventType, &msg.SubjectID,
			&msg.Payload, &msg.Status, &msg.RetryCount, &msg.LastError,
			&msg.NextRetryAt, &msg.CreatedAt, &msg.DeliveredAt,
		)
		if err != nil {
			return 0, fmt.Errorf("scan notification: %w", err)
		}
		pending = append(pending, &msg)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate notifications: %w", err)
	}

	delivered := 0
	for _, msg := range pending {
		if err := r.deliver(ctx, msg); err != nil {
			logger.Warn(ctx, "notification delivery failed",
				"id", msg.ID, "event", msg.EventType, "error", err)
			continue
		}
		delivered++
	}

	return delivered, nil
}

// deliver hands one notification to the sink and records the outcome.
func (r *NotificationRelay) deliver(ctx context.Context, msg *Notification) error {
	var event ledger.Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return r.markFailed(ctx, msg, fmt.Errorf("unmarshal payload: %w", err))
	}

	if err := r.sink.Deliver(ctx, event); err != nil {
		return r.markFailed(ctx, msg, err)
	}

	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE ledger_notifications
		SET status = $1, delivered_at = $2
		WHERE id = $3
	`, NotificationStatusDelivered, now, msg.ID)
	return err
}

// markFailed bumps the retry counter with linear backoff, parking the
// notification as failed after five attempts.
func (r *NotificationRelay) markFailed(ctx context.Context, msg *Notification, cause error) error {
	nextRetry := time.Now().Add(time.Duration(msg.RetryCount+1) * time.Minute)
	errStr := cause.Error()

	_, updateErr := r.pool.Exec(ctx, `
		UPDATE ledger_notifications
		SET retry_count = retry_count + 1,
		    last_error = $1,
		    next_retry_at = $2,
		    status = CASE WHEN retry_count >= 5 THEN $3 ELSE status END
		WHERE id = $4
	`, errStr, nextRetry, NotificationStatusFailed, msg.ID)
	if updateErr != nil {
		return fmt.Errorf("update failed notification: %w", updateErr)
	}
	return cause
}
