// Package storage assembles the registry, subscription and usage stores
// selected by configuration.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/infrastructure/cache"
	"github.com/quotagate/quotagate/internal/infrastructure/config"
	"github.com/quotagate/quotagate/internal/infrastructure/database"
	"github.com/quotagate/quotagate/internal/infrastructure/ledger"
	"github.com/quotagate/quotagate/internal/infrastructure/memstore"
	"github.com/quotagate/quotagate/internal/infrastructure/migration"
	"github.com/quotagate/quotagate/internal/infrastructure/mongostore"
	"github.com/quotagate/quotagate/internal/infrastructure/repository"
	"github.com/quotagate/quotagate/internal/infrastructure/resilience"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/db"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

const (
	BackendMemory = "memory"
	BackendSQL    = "sql"
	BackendMongo  = "mongo"

	LedgerSame     = "same"
	LedgerRedis    = "redis"
	LedgerPostgres = "postgres"
)

// Stores is the wired persistence of one process.
type Stores struct {
	Registry      registry.Repository
	Subscriptions subscription.Repository
	Ledger        usage.Ledger
	Transactor    db.Transactor
	// DB is set for the sql backend only.
	DB *gorm.DB
	// Redis is set once a component asked for RedisClient.
	Redis *redis.Client

	closers []func(context.Context) error
}

// Options adjusts Open.
type Options struct {
	// AutoMigrate applies the gorm AutoMigrate strategy to the sql backend.
	AutoMigrate bool
	// Clock stamps updated_at on stored records. Defaults to the system clock.
	Clock biztime.Clock
}

func Open(ctx context.Context, cfg *config.Config, opts Options, log logger.Interface) (*Stores, error) {
	s := &Stores{Transactor: db.NoopTransactor{}}
	if opts.Clock == nil {
		opts.Clock = biztime.SystemClock{}
	}

	if err := s.openBackend(ctx, cfg, opts, log); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	if err := s.openLedger(ctx, cfg, log); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	if cfg.Cache.Enabled {
		client, err := s.RedisClient(ctx, cfg)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.Registry = cache.NewRegistryCache(s.Registry, client, cache.Options{
			TTL:     time.Duration(cfg.Cache.TTLSeconds) * time.Second,
			Jitter:  time.Duration(cfg.Cache.JitterSeconds) * time.Second,
			NullTTL: time.Duration(cfg.Cache.NullTTLSeconds) * time.Second,
		}, log)
	}

	log.Infow("storage ready",
		"backend", cfg.Storage.Backend,
		"ledger", cfg.Storage.Ledger,
		"breaker", cfg.Breaker.Enabled && s.remoteLedger(cfg),
		"registry_cache", cfg.Cache.Enabled,
	)
	return s, nil
}

func (s *Stores) openBackend(ctx context.Context, cfg *config.Config, opts Options, log logger.Interface) error {
	switch cfg.Storage.Backend {
	case BackendMemory:
		s.Registry = memstore.NewRegistryStore()
		s.Subscriptions = memstore.NewSubscriptionStore()
		s.Ledger = memstore.NewLedger()

	case BackendSQL:
		gormDB, err := database.Open(&cfg.Database)
		if err != nil {
			return err
		}
		s.DB = gormDB
		s.closers = append(s.closers, func(context.Context) error {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		if opts.AutoMigrate {
			if err := migration.NewManagerWithStrategy(migration.NewAutoMigrateStrategy()).Migrate(gormDB); err != nil {
				return err
			}
		}
		s.Registry = repository.NewRegistryRepository(gormDB, opts.Clock, log)
		s.Subscriptions = repository.NewSubscriptionRepository(gormDB, opts.Clock, log)
		s.Ledger = repository.NewUsageLedgerRepository(gormDB, log)
		s.Transactor = db.NewTransactionManager(gormDB)

	case BackendMongo:
		client, mdb, err := mongostore.Connect(ctx, &cfg.Mongo)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, client.Disconnect)
		if err := mongostore.EnsureIndexes(ctx, mdb); err != nil {
			return err
		}
		s.Registry = mongostore.NewRegistryStore(mdb, opts.Clock, log)
		s.Subscriptions = mongostore.NewSubscriptionStore(mdb, opts.Clock, log)
		s.Ledger = mongostore.NewLedger(mdb, log)

	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

func (s *Stores) openLedger(ctx context.Context, cfg *config.Config, log logger.Interface) error {
	switch cfg.Storage.Ledger {
	case LedgerSame, "":

	case LedgerRedis:
		client, err := s.RedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		s.Ledger = ledger.NewRedisLedger(client, log)

	case LedgerPostgres:
		pg, err := ledger.OpenPostgres(ctx, &cfg.Postgres)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func(context.Context) error { return pg.Close() })
		if err := migration.NewGooseStrategy("postgres").(*migration.GooseStrategy).Up(pg); err != nil {
			return err
		}
		s.Ledger = ledger.NewPostgresLedger(pg, log)

	default:
		return fmt.Errorf("unknown ledger %q", cfg.Storage.Ledger)
	}

	if cfg.Breaker.Enabled && s.remoteLedger(cfg) {
		s.Ledger = resilience.NewBreakerLedger("usage_ledger", s.Ledger, cfg.Breaker, log)
	}
	return nil
}

func (s *Stores) remoteLedger(cfg *config.Config) bool {
	if cfg.Storage.Ledger == LedgerRedis || cfg.Storage.Ledger == LedgerPostgres {
		return true
	}
	return cfg.Storage.Backend != BackendMemory
}

// RedisClient returns the shared Redis client, connecting it on first use.
func (s *Stores) RedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if s.Redis != nil {
		return s.Redis, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.closers = append(s.closers, func(context.Context) error { return client.Close() })
	s.Redis = client
	return client, nil
}

// Close releases every connection in reverse opening order.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return stderrors.Join(errs...)
}
