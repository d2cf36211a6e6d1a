package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_PATH", "HTTP_PORT", "HTTP_REQUEST_TIMEOUT", "LOG_LEVEL", "CHART_WIDTH", "CHART_HEIGHT",
		"CHART_TZ_OFFSET", "DEBUG_ROUTES", "STORE_BACKEND", "DATABASE_URL", "INFLUXDB_URL",
		"INFLUXDB_TOKEN", "INFLUXDB_ORG", "INFLUXDB_BUCKET", "INFLUXDB_MEASUREMENT", "INFLUXDB_FIELD",
		"BADGER_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, -8*time.Hour, cfg.Chart.TZOffset)
	require.Equal(t, BackendMemory, cfg.Store.Backend)
	require.False(t, cfg.Debug.Enabled)
	require.Equal(t, ":8080", cfg.ListenAddr())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9090
chart:
  width: 800
  tzOffset: -7h
store:
  backend: influx
  influx:
    url: http://influx:8086
    bucket: flow
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("CHART_TZ_OFFSET", "-9h")
	t.Setenv("DEBUG_ROUTES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.HTTP.Port)
	require.Equal(t, 800, cfg.Chart.Width)
	require.Equal(t, 480, cfg.Chart.Height)
	require.Equal(t, -9*time.Hour, cfg.Chart.TZOffset)
	require.True(t, cfg.Debug.Enabled)
	require.Equal(t, BackendInflux, cfg.Store.Backend)
	require.Equal(t, "val", cfg.Store.Influx.Field)
}

func TestLoadInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_PORT", "abc")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateBackends(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = BackendPostgres
	require.Error(t, cfg.Validate())
	cfg.Store.Postgres.DSN = "postgres://localhost/flow"
	require.NoError(t, cfg.Validate())

	cfg.Store.Backend = BackendInflux
	require.Error(t, cfg.Validate())

	cfg.Store.Backend = "sqlite"
	require.Error(t, cfg.Validate())

	cfg.Store.Backend = BackendBadger
	require.NoError(t, cfg.Validate())
}
