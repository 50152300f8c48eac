package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
storage:
  backend: memory
access:
  quota_scope: per_plan
`)

	cfg, err := Load("", path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "same", cfg.Storage.Ledger)
	assert.Equal(t, "per_plan", cfg.Access.QuotaScope)
	assert.Equal(t, 30, cfg.Access.DefaultDurationDays)
	assert.Equal(t, uint32(5), cfg.Breaker.ConsecutiveFailures)
	assert.Equal(t, uint32(1), cfg.Breaker.MaxRequests)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("QUOTAGATE_SERVER_PORT", "7070")
	t.Setenv("QUOTAGATE_STORAGE_LEDGER", "redis")

	cfg, err := Load("release", path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Storage.Ledger)
	assert.Equal(t, "release", cfg.Server.Mode)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "backend", content: "storage:\n  backend: cassandra\n"},
		{name: "ledger", content: "storage:\n  ledger: etcd\n"},
		{name: "driver", content: "database:\n  driver: oracle\n"},
		{name: "scope", content: "access:\n  quota_scope: per_user\n"},
		{name: "duration", content: "access:\n  default_duration_days: 0\n"},
		{name: "cache ttl", content: "cache:\n  enabled: true\n  ttl_seconds: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("", writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
