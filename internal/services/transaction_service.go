package services

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/live"
	"expensetracker/internal/repository"
)

// EventPublisher announces committed mutations. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, id int64, action amqp.Action) error
}

// TransactionService orchestrates transaction operations across the store
// and the event broker. The store is authoritative; events are best effort.
type TransactionService struct {
	repo      *repository.TransactionRepo
	publisher EventPublisher
}

// NewTransactionService accepts a nil publisher, which disables events.
func NewTransactionService(repo *repository.TransactionRepo, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		repo:      repo,
		publisher: publisher,
	}
}

// Create validates t and stores it as a new record.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = 0
	stored, err := s.repo.Insert(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", stored.ID,
		"transaction_type", stored.Type,
		"amount", stored.Amount.String())

	s.publish(ctx, stored.ID, amqp.ActionCreated)
	return stored, nil
}

// Update validates t and overwrites the record with its id. A missing id is
// a silent no-op.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	changed, err := s.repo.Update(ctx, t)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if changed {
		s.publish(ctx, t.ID, amqp.ActionUpdated)
	}
	return nil
}

// Delete removes the record with t's id. Deleting a missing id is a no-op.
func (s *TransactionService) Delete(ctx context.Context, t core.Transaction) error {
	return s.DeleteByID(ctx, t.ID)
}

func (s *TransactionService) DeleteByID(ctx context.Context, id int64) error {
	changed, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if changed {
		s.publish(ctx, id, amqp.ActionDeleted)
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.repo.Get(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	return s.repo.List(ctx, f)
}

func (s *TransactionService) Watch(ctx context.Context, f core.Filter) *live.Subscription[[]core.Transaction] {
	return s.repo.GetFiltered(ctx, f)
}

func (s *TransactionService) WatchByID(ctx context.Context, id int64) *live.Subscription[*core.Transaction] {
	return s.repo.GetByID(ctx, id)
}

func (s *TransactionService) publish(ctx context.Context, id int64, action amqp.Action) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "id", id, "action", action)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, id, action); err != nil {
		// The mutation is committed locally; a lost event is not fatal.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id,
			"action", action,
			"error", err)
	}
}

// Close releases the store and, when it owns one, the publisher.
func (s *TransactionService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
