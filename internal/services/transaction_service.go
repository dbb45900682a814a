package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"txdash/internal/amqp"
	"txdash/internal/core"
	"txdash/internal/log"
	"txdash/internal/remote"
)

// Ensure interface conformance
var _ remote.Store = (*TransactionService)(nil)

// EventPublisher is satisfied by *amqp.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev amqp.Event) error
}

// TransactionService orchestrates writes across the database and the AMQP
// change feed. The database write decides the outcome; a failed publish is
// logged and never fails the request.
type TransactionService struct {
	store     remote.Store
	publisher EventPublisher
	logger    *log.Logger
}

// NewTransactionService wires store and an optional publisher (nil disables
// the change feed).
func NewTransactionService(store remote.Store, publisher EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStorage),
	}
}

func (s *TransactionService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *TransactionService) ListStatuses(ctx context.Context) ([]core.StatusOption, error) {
	return s.store.ListStatuses(ctx)
}

// CreateTransaction saves locally first, then announces the new id.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	saved, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, amqp.EventCreated, saved.ID)
	return saved, nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error) {
	saved, err := s.store.UpdateTransaction(ctx, id, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, amqp.EventUpdated, id)
	return saved, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.EventDeleted, id)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, t amqp.EventType, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewEvent(t, id)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldTransactionID, id,
			"type", string(t),
			log.FieldError, err)
	}
}

// Close closes the store and the publisher when they hold resources.
func (s *TransactionService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Ping checks the underlying store when it supports it.
func (s *TransactionService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
