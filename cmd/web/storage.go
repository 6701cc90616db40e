package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hireloop/hireloop-web/internal/config"
	"github.com/hireloop/hireloop-web/internal/crypto"
	"github.com/hireloop/hireloop-web/internal/repository"
	"github.com/hireloop/hireloop-web/internal/service"
)

// storage holds the slot factories for both credential lifetimes and the
// connections behind them.
type storage struct {
	durable   service.SlotFactory
	ephemeral service.SlotFactory
	db        *sql.DB
	redis     *redis.Client
}

// openStorage picks MySQL for durable and Redis for ephemeral credentials when
// configured, falling back to process memory. Every slot is sealed at rest.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	sealer, err := crypto.NewSealer(cfg.StorageSecret)
	if err != nil {
		return nil, fmt.Errorf("deriving storage key: %w", err)
	}
	sealed := func(f service.SlotFactory) service.SlotFactory {
		return func(ns string) repository.Slot {
			return repository.NewSealedSlot(f(ns), sealer)
		}
	}

	s := &storage{}

	if cfg.DatabaseDSN != "" {
		db, err := repository.NewDB(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating client storage: %w", err)
		}
		s.db = db
		s.durable = func(ns string) repository.Slot { return repository.NewMySQLSlot(db, ns) }
		slog.Info("durable storage", "backend", "mysql")
	} else {
		s.durable = repository.NewMemorySlots().Slot
		slog.Warn("DATABASE_DSN not set, remembered logins are lost on restart")
	}

	if cfg.RedisURL != "" {
		client, err := repository.NewRedisClient(cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("opening redis: %w", err)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis ping failed", "error", err)
		}
		s.redis = client
		s.ephemeral = func(ns string) repository.Slot { return repository.NewRedisSlot(client, ns, cfg.EphemeralTTL) }
		slog.Info("ephemeral storage", "backend", "redis", "ttl", cfg.EphemeralTTL)
	} else {
		s.ephemeral = repository.NewMemorySlots().Slot
		slog.Info("ephemeral storage", "backend", "memory")
	}

	s.durable = sealed(s.durable)
	s.ephemeral = sealed(s.ephemeral)
	return s, nil
}

// Close releases the storage connections.
func (s *storage) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}
