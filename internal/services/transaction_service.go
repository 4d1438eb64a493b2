// Package services holds the mutation gateway between the HTTP layer and
// the store. All writes funnel through here: validation happens before
// any network call, and change events go out to AMQP after the store has
// committed.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"expenso/internal/amqp"
	"expenso/internal/core"
	"expenso/internal/store"
)

// TransactionStore is the slice of the store the gateway needs.
type TransactionStore interface {
	store.TransactionWriter
	store.TransactionLister
}

// TransactionService issues create/update/delete against the store and
// publishes change events. It never mutates any in-memory list itself;
// views converge through the live feed.
type TransactionService struct {
	store  TransactionStore
	events *amqp.Client
}

func NewTransactionService(s TransactionStore, events *amqp.Client) *TransactionService {
	return &TransactionService{
		store:  s,
		events: events,
	}
}

// Create validates the transaction and stores it, returning the assigned
// id. Validation failures surface before any write is issued.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	id, err := s.store.Insert(ctx, t)
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, id, t.OwnerID, amqp.ActionCreated)
	return id, nil
}

// Update applies only the provided patch fields. Kind is immutable; the
// caller cannot change it because the patch has no kind field.
func (s *TransactionService) Update(ctx context.Context, id string, patch core.TransactionPatch) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := patch.Validate(current.Kind); err != nil {
		return err
	}

	if err := s.store.Update(ctx, id, patch); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, id, current.OwnerID, amqp.ActionUpdated)
	return nil
}

// Delete removes a transaction permanently. There is no recovery.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, id, current.OwnerID, amqp.ActionDeleted)
	return nil
}

// Get returns a single transaction, for edit forms and ownership checks.
func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.Get(ctx, id)
}

// publish sends a change event best-effort. A publish failure never
// fails the mutation: the record is already committed.
func (s *TransactionService) publish(ctx context.Context, id, ownerID, action string) {
	if s.events == nil {
		slog.DebugContext(ctx, "AMQP client not configured, skipping event", "action", action)
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(id, ownerID, action)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", id,
			"action", action,
			"error", err)
	}
}
