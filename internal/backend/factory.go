package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cashbook/internal/amqp"
	"cashbook/internal/docstore/gcs"
	"cashbook/internal/docstore/memory"
	"cashbook/internal/prefs"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	var cleanups []CleanupFunc

	switch config.Type {
	case MemoryDocstore:
		result.Docs = memory.New()
		f.logger.Info("initialized in-memory document store")
	case GCSDocstore:
		store, err := gcs.New(ctx, config.GCSBucket, config.GCSPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS document store: %w", err)
		}
		result.Docs = store
		cleanups = append(cleanups, store.Close)
		f.logger.Info("initialized GCS document store",
			"bucket", config.GCSBucket,
			"prefix", config.GCSPrefix)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	prefStore, err := prefs.NewSQLite(config.PrefsDBPath)
	if err != nil {
		runCleanups(cleanups)
		return nil, fmt.Errorf("failed to initialize preference store: %w", err)
	}
	result.Prefs = prefStore
	cleanups = append(cleanups, prefStore.Close)
	f.logger.Info("initialized preference store", "db_path", config.PrefsDBPath)

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			result.Events = client
			cleanups = append(cleanups, client.Close)
			f.logger.Info("initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		return runCleanups(cleanups)
	}
	return result, nil
}

func runCleanups(cleanups []CleanupFunc) error {
	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
