package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/repository"
	"github.com/noah-isme/sma-gradebook/pkg/cache"
	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/database"
)

// OpenStore builds the sink selected by STORAGE_DRIVER and loads the four
// collections from it. The returned close func releases the sink's connection.
func OpenStore(ctx context.Context, cfg *config.Config, validate *validator.Validate, logger *zap.Logger, opts ...repository.Option) (*repository.Store, func() error, error) {
	sink, closeSink, err := openSink(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewStore(sink, validate, logger, opts...)
	if err := store.Load(ctx); err != nil {
		_ = closeSink()
		return nil, nil, fmt.Errorf("load records: %w", err)
	}
	return store, closeSink, nil
}

func openSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Sink, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Driver {
	case config.StorageFile, "":
		sink, err := repository.NewFileSink(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file storage", zap.String("dir", cfg.Storage.DataDir))
		return sink, noop, nil
	case config.StorageMemory:
		logger.Warn("using in-memory storage; records are lost on exit")
		return repository.NewMemorySink(), noop, nil
	case config.StorageRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis storage", zap.String("prefix", cfg.Redis.KeyPrefix))
		return repository.NewRedisSink(client, cfg.Redis.KeyPrefix), client.Close, nil
	case config.StoragePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		sink := repository.NewPostgresSink(db)
		if err := sink.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("using postgres storage", zap.String("database", cfg.Database.Name))
		return sink, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
