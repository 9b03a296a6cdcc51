package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/nexora/go/internal/validation"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "NEXORA_ALLOWED_ORIGINS", "NEXORA_STORAGE_DRIVER", "NEXORA_STORAGE_PATH",
		"NEXORA_STORAGE_DSN", "NEXORA_NAMESPACE", "NEXORA_BREAK_MINUTES", "NEXORA_REFRESH_INTERVAL",
		"NEXORA_SESSION_TTL", "NEXORA_REQUIRE_AUTH", "NATS_URL", "LOG_LEVEL", "LOG_PRETTY",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nexora.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 5*time.Minute, cfg.BreakDuration())
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: 9090
  allowed_origins: ["http://localhost:5173"]
storage:
  driver: sqlite
  path: /tmp/nexora.db
timer:
  break_minutes: 10
  break_delay: 2s
progress:
  refresh_interval: 30s
nats:
  url: nats://localhost:4222
`)
	t.Setenv("NEXORA_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("NEXORA_REQUIRE_AUTH", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/nexora.db", cfg.StorageDSN())
	assert.Equal(t, "nexora", cfg.Storage.Namespace)
	assert.Equal(t, 10, cfg.Timer.BreakMinutes)
	assert.Equal(t, 2*time.Second, cfg.Timer.BreakDelay)
	assert.Equal(t, 30*time.Second, cfg.Progress.RefreshInterval)
	assert.Equal(t, 240, cfg.Progress.DailyGoal)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.False(t, cfg.Server.RequireAuth)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server: [not a map"))
	assert.Error(t, err)

	t.Setenv("NEXORA_STORAGE_DRIVER", "mongo")
	_, err = Load("")
	fields, ok := validation.As(err)
	require.True(t, ok)
	assert.Contains(t, fields, "storage.driver")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 0
	cfg.Storage.Driver = DriverFile
	cfg.Storage.Path = ""
	cfg.Timer.BreakMinutes = 0
	cfg.Progress.RefreshInterval = time.Millisecond
	cfg.Progress.HistoryLimit = 5000
	cfg.Auth.SessionTTL = time.Second
	cfg.Log.Level = "loud"

	fields, ok := validation.As(cfg.Validate())
	require.True(t, ok)
	for _, f := range []string{
		"server.port", "storage.path", "timer.break_minutes", "progress.refresh_interval",
		"progress.history_limit", "auth.session_ttl", "log.level",
	} {
		assert.Contains(t, fields, f)
	}
}

func TestStorageDSN(t *testing.T) {
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_NAME", "")
	cfg := Default()
	cfg.Storage.Driver = DriverPostgres
	assert.Contains(t, cfg.StorageDSN(), "@pg:5432/nexora")

	cfg.Storage.DSN = "postgres://u:p@h/db"
	assert.Equal(t, "postgres://u:p@h/db", cfg.StorageDSN())
}
