package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/m47_test")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("HTTP_PORT", "18080")
	t.Setenv("SNAPSHOT_TTL_SECONDS", "45")
	t.Setenv("LOCK_SWEEP_THRESHOLD_SECONDS", "90")
	t.Setenv("PRICER_URL", "http://pricer.internal/validate")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, "M47-Invoice-Validation-Service", cfg.ServiceID)
	require.Equal(t, 18080, cfg.HTTPPort)
	require.Equal(t, 9090, cfg.GRPCPort)
	require.Equal(t, "postgres://localhost/m47_test", cfg.DatabaseURL)
	require.Equal(t, 45*time.Second, cfg.SnapshotTTL)
	require.Equal(t, 90*time.Second, cfg.LockSweepThreshold)
	require.Equal(t, 30*time.Second, cfg.LockSweepInterval)
	require.Equal(t, "http://pricer.internal/validate", cfg.PricerURL)
	require.True(t, cfg.AllowEphemeralJWT)
}

func TestLoadConfigReadsYAMLFile(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("REDIS_URL", "")

	path := filepath.Join(t.TempDir(), "default.yaml")
	raw := `
service:
  id: M47-Invoice-Validation-Service
  http_port: 8180
dependencies:
  postgres_url: postgres://localhost/from_file
  redis_url: redis://localhost:6379/2
triggers:
  rules_url: http://rules.internal/evaluate
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 8180, cfg.HTTPPort)
	require.Equal(t, "postgres://localhost/from_file", cfg.DatabaseURL)
	require.Equal(t, "redis://localhost:6379/2", cfg.RedisURL)
	require.Equal(t, "http://rules.internal/evaluate", cfg.RulesURL)
}

func TestLoadConfigRequiresDatabaseAndRedis(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("REDIS_URL", "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "DB_URL")

	t.Setenv("DB_URL", "postgres://localhost/m47_test")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "REDIS_URL")
}

func TestLoadConfigRejectsMissingJWTKeyWhenEphemeralDisabled(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/m47_test")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("JWT_ALLOW_EPHEMERAL", "false")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "JWT_PUBLIC_KEY_PEM")
}
