// Package storage opens the metadata backend selected by STORE_BACKEND and
// hands back its repositories together with lifecycle hooks.
package storage

import (
	"context"
	"fmt"

	"github.com/lalith-99/reelroom/internal/config"
	"github.com/lalith-99/reelroom/internal/db"
	"github.com/lalith-99/reelroom/internal/repository"
	"github.com/lalith-99/reelroom/internal/repository/memory"
	"github.com/lalith-99/reelroom/internal/repository/mongodb"
	"github.com/lalith-99/reelroom/internal/repository/postgres"
	"go.uber.org/zap"
)

// Backend is an opened metadata store.
type Backend struct {
	Store repository.Store

	health func(ctx context.Context) error
	close  func(ctx context.Context) error
}

// Health pings the underlying database.
func (b *Backend) Health(ctx context.Context) error {
	if b.health == nil {
		return nil
	}
	return b.health(ctx)
}

// Close releases connections. Safe on the memory backend.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// Open connects to the configured backend and prepares its schema or
// indexes.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		m, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, m.Database()); err != nil {
			_ = m.Close(context.Background())
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return &Backend{
			Store:  mongodb.New(m.Database()),
			health: m.Health,
			close:  m.Close,
		}, nil

	case config.StorePostgres:
		pg, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return &Backend{
			Store:  postgres.New(pg.Pool()),
			health: pg.Health,
			close: func(context.Context) error {
				pg.Close()
				return nil
			},
		}, nil

	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return &Backend{Store: memory.New()}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
