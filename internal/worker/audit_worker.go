// Package worker consumes transaction events from AMQP and appends them
// to the audit trail.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expenso/internal/amqp"
	"expenso/internal/store"
)

// AuditWorker turns published transaction events into audit log rows.
type AuditWorker struct {
	recorder store.AuditRecorder
}

func NewAuditWorker(recorder store.AuditRecorder) *AuditWorker {
	return &AuditWorker{recorder: recorder}
}

// HandleTransactionEvent processes a single event from AMQP. A returned
// error requeues the message.
func (w *AuditWorker) HandleTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"transaction_id", evt.TransactionID,
		"action", evt.Action)

	if evt.TransactionID == "" || evt.Action == "" {
		// Malformed events are logged and dropped; requeueing would
		// loop forever.
		slog.WarnContext(ctx, "Dropping malformed transaction event",
			"transaction_id", evt.TransactionID,
			"action", evt.Action)
		return nil
	}

	entry := store.AuditEntry{
		TransactionID: evt.TransactionID,
		OwnerID:       evt.OwnerID,
		Action:        evt.Action,
		OccurredAt:    evt.Timestamp,
	}
	if err := w.recorder.RecordAudit(ctx, entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}
