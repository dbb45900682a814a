package backend

import (
	"context"
	"fmt"

	"txdash/internal/amqp"
	"txdash/internal/log"
	"txdash/internal/remote/httpstore"
	"txdash/internal/remote/memory"
	"txdash/internal/seed"
	"txdash/internal/services"
	"txdash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case HTTPBackend:
		return f.createHTTPBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createHTTPBackend(config Config) (*BackendResult, error) {
	client, err := httpstore.New(config.RecordStoreURL, config.RecordStoreTimeout, httpstore.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store client: %w", err)
	}

	f.logger.Info("Initialized HTTP backend",
		"url", config.RecordStoreURL,
		"timeout", config.RecordStoreTimeout.String())

	return &BackendResult{Backend: client}, nil
}

// createSQLiteBackend opens the database, seeds it when empty and wraps it
// in a TransactionService that feeds the AMQP exchange when configured.
func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, storage.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	data, err := seed.LoadFile(config.SeedFile)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	if _, err := repo.Seed(ctx, data); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	// Initialize AMQP publisher (optional)
	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		p, err := amqp.NewPublisher(ctx, config.AMQPURL, config.AMQPExchange, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP publisher, continuing without change feed", log.FieldError, err)
		} else {
			publisher = p
			f.logger.Info("Initialized AMQP publisher", "exchange", config.AMQPExchange)
		}
	}

	service := services.NewTransactionService(repo, publisher, f.logger)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: service,
		Cleanup: service.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{Backend: store}, nil
}
