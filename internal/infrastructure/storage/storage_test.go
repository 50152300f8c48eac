package storage

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/infrastructure/cache"
	"github.com/quotagate/quotagate/internal/infrastructure/config"
	"github.com/quotagate/quotagate/internal/infrastructure/ledger"
	"github.com/quotagate/quotagate/internal/infrastructure/memstore"
	"github.com/quotagate/quotagate/internal/infrastructure/repository"
	"github.com/quotagate/quotagate/internal/infrastructure/resilience"
	sharedConfig "github.com/quotagate/quotagate/internal/shared/config"
	"github.com/quotagate/quotagate/internal/shared/db"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

func testConfig(backend, ledgerKind string) *config.Config {
	return &config.Config{
		Storage: sharedConfig.StorageConfig{Backend: backend, Ledger: ledgerKind},
		Breaker: sharedConfig.BreakerConfig{
			Enabled:             true,
			MaxRequests:         1,
			IntervalSeconds:     60,
			TimeoutSeconds:      30,
			ConsecutiveFailures: 5,
		},
	}
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, testConfig(BackendMemory, LedgerSame), Options{}, logger.NewNopLogger())
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.IsType(t, &memstore.Ledger{}, s.Ledger)
	assert.IsType(t, db.NoopTransactor{}, s.Transactor)
	assert.Nil(t, s.DB)
}

func TestOpen_SQLWithBreaker(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(BackendSQL, LedgerSame)
	cfg.Database = sharedConfig.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "quotagate.db"),
	}

	s, err := Open(ctx, cfg, Options{AutoMigrate: true}, logger.NewNopLogger())
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.IsType(t, &repository.RegistryRepositoryImpl{}, s.Registry)
	assert.IsType(t, &resilience.BreakerLedger{}, s.Ledger)
	assert.IsType(t, &db.TransactionManager{}, s.Transactor)

	count, err := s.Ledger.Increment(ctx, "u", "/a", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOpen_RedisLedger(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	cfg := testConfig(BackendMemory, LedgerRedis)
	cfg.Breaker.Enabled = false
	cfg.Redis = sharedConfig.RedisConfig{Host: mr.Host(), Port: atoiPort(t, mr.Port())}

	s, err := Open(ctx, cfg, Options{}, logger.NewNopLogger())
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.IsType(t, &ledger.RedisLedger{}, s.Ledger)
	assert.NotNil(t, s.Redis)
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port := atoiPort(t, mr.Port())
	mr.Close()

	cfg := testConfig(BackendMemory, LedgerRedis)
	cfg.Redis = sharedConfig.RedisConfig{Host: "127.0.0.1", Port: port}

	_, err := Open(context.Background(), cfg, Options{}, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestStores_RedisClientIsShared(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	cfg := testConfig(BackendMemory, LedgerSame)
	cfg.Redis = sharedConfig.RedisConfig{Host: mr.Host(), Port: atoiPort(t, mr.Port())}

	s, err := Open(ctx, cfg, Options{}, logger.NewNopLogger())
	require.NoError(t, err)
	defer s.Close(ctx)
	assert.Nil(t, s.Redis)

	first, err := s.RedisClient(ctx, cfg)
	require.NoError(t, err)
	second, err := s.RedisClient(ctx, cfg)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestOpen_RegistryCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	cfg := testConfig(BackendMemory, LedgerSame)
	cfg.Redis = sharedConfig.RedisConfig{Host: mr.Host(), Port: atoiPort(t, mr.Port())}
	cfg.Cache = sharedConfig.CacheConfig{Enabled: true, TTLSeconds: 60, NullTTLSeconds: 5}

	s, err := Open(ctx, cfg, Options{}, logger.NewNopLogger())
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.IsType(t, &cache.RegistryCache{}, s.Registry)
	assert.NotNil(t, s.Redis)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), testConfig("etcd", LedgerSame), Options{}, logger.NewNopLogger())
	assert.Error(t, err)
}

func atoiPort(t *testing.T, port string) int {
	t.Helper()
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return p
}
