package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenso/internal/amqp"
	"expenso/internal/store"
)

type recorderFunc func(ctx context.Context, e store.AuditEntry) error

func (f recorderFunc) RecordAudit(ctx context.Context, e store.AuditEntry) error {
	return f(ctx, e)
}

func TestHandleTransactionEvent(t *testing.T) {
	var got store.AuditEntry
	w := NewAuditWorker(recorderFunc(func(_ context.Context, e store.AuditEntry) error {
		got = e
		return nil
	}))

	evt := &amqp.TransactionEvent{
		TransactionID: "tx-1",
		OwnerID:       "owner-1",
		Action:        amqp.ActionCreated,
		Timestamp:     time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	if err := w.HandleTransactionEvent(context.Background(), evt); err != nil {
		t.Fatalf("HandleTransactionEvent: %v", err)
	}

	if got.TransactionID != "tx-1" || got.Action != amqp.ActionCreated {
		t.Errorf("recorded entry = %+v", got)
	}
	if !got.OccurredAt.Equal(evt.Timestamp) {
		t.Errorf("OccurredAt = %v, want %v", got.OccurredAt, evt.Timestamp)
	}
}

func TestHandleTransactionEventDropsMalformed(t *testing.T) {
	called := false
	w := NewAuditWorker(recorderFunc(func(_ context.Context, _ store.AuditEntry) error {
		called = true
		return nil
	}))

	evt := &amqp.TransactionEvent{Action: amqp.ActionDeleted}
	if err := w.HandleTransactionEvent(context.Background(), evt); err != nil {
		t.Fatalf("malformed event should be dropped, got %v", err)
	}
	if called {
		t.Error("malformed event must not reach the recorder")
	}
}

func TestHandleTransactionEventPropagatesRecorderError(t *testing.T) {
	boom := errors.New("disk full")
	w := NewAuditWorker(recorderFunc(func(_ context.Context, _ store.AuditEntry) error {
		return boom
	}))

	evt := &amqp.TransactionEvent{
		TransactionID: "tx-1",
		OwnerID:       "owner-1",
		Action:        amqp.ActionUpdated,
		Timestamp:     time.Now(),
	}
	if err := w.HandleTransactionEvent(context.Background(), evt); !errors.Is(err, boom) {
		t.Errorf("got %v, want recorder error", err)
	}
}
