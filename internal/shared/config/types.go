package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Mode            string `mapstructure:"mode"`
	MetricsPort     int    `mapstructure:"metrics_port"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetMetricsAddr returns the address of the dedicated metrics listener, or an
// empty string when metrics are served on the main router.
func (s *ServerConfig) GetMetricsAddr() string {
	if s.MetricsPort <= 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", s.Host, s.MetricsPort)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Path            string `mapstructure:"path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// GetDSN returns the DSN for the configured driver. For sqlite the DSN is the
// database file path.
func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
	Timeout  int    `mapstructure:"timeout"`
}

type PostgresConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// StorageConfig selects where registry, subscription and usage state live.
// Backend is one of memory, sql or mongo. Ledger is same, redis or postgres;
// same keeps the usage ledger on the backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Ledger  string `mapstructure:"ledger"`
}

type AccessConfig struct {
	QuotaScope          string `mapstructure:"quota_scope"`
	DefaultDurationDays int    `mapstructure:"default_duration_days"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	Issuer           string `mapstructure:"issuer"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

type BreakerConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	MaxRequests         uint32 `mapstructure:"max_requests"`
	IntervalSeconds     int    `mapstructure:"interval_seconds"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	ConsecutiveFailures uint32 `mapstructure:"consecutive_failures"`
}

func (b *BreakerConfig) Interval() time.Duration {
	return time.Duration(b.IntervalSeconds) * time.Second
}

func (b *BreakerConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
	RequestsPerDay    int  `mapstructure:"requests_per_day"`
}

type RegistryConfig struct {
	SeedFile string `mapstructure:"seed_file"`
}

// CacheConfig controls the Redis read-through cache of registry lookups.
type CacheConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	TTLSeconds     int  `mapstructure:"ttl_seconds"`
	JitterSeconds  int  `mapstructure:"jitter_seconds"`
	NullTTLSeconds int  `mapstructure:"null_ttl_seconds"`
}
