package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "propval.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.InDelta(t, 10.0, cfg.Server.RateLimitRPS, 0.001)
	assert.Equal(t, 20, cfg.Server.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
	assert.Equal(t, "by_mode", cfg.Valuation.CornerPolicy)
	assert.InDelta(t, 5.0, cfg.Valuation.DefaultDistanceKM, 0.001)
	assert.InDelta(t, 2.0, cfg.Valuation.PINDefaultDistanceKM, 0.001)
	assert.Equal(t, "pincode", cfg.Dataset.CentroidField)
	assert.False(t, cfg.Notion.Enabled())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/propval
  max_conns: 4
dataset:
  pin_file: pins.json
valuation:
  corner_policy: standard
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  max_concurrent: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/propval", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.Equal(t, "pins.json", cfg.Dataset.PINFile)
	assert.Equal(t, "standard", cfg.Valuation.CornerPolicy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Batch.MaxConcurrent)
	// Defaults still apply for unset values
	assert.InDelta(t, 5.0, cfg.Valuation.DefaultDistanceKM, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("PROPVAL_STORE_DRIVER", "postgres")
	t.Setenv("PROPVAL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("PROPVAL_SERVER_PORT", "3000")
	t.Setenv("PROPVAL_NOTION_TOKEN", "secret")
	t.Setenv("PROPVAL_NOTION_LEAD_DB", "db-id")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Notion.Enabled())
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		Store:     StoreConfig{Driver: "sqlite", DatabaseURL: "propval.db"},
		Valuation: ValuationConfig{CornerPolicy: "by_mode", DefaultDistanceKM: 5, PINDefaultDistanceKM: 2},
		Batch:     BatchConfig{MaxConcurrent: 8},
		Server:    ServerConfig{Port: 3001, RateLimitRPS: 10, RateLimitBurst: 20},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidate_Defaults(t *testing.T) {
	for _, mode := range []string{"valuate", "dataset", "batch", "serve"} {
		assert.NoError(t, validDefaults().Validate(mode), mode)
	}
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("valuate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	assert.Error(t, cfg.Validate("valuate"))
}

func TestValidate_UnknownMode(t *testing.T) {
	assert.Error(t, validDefaults().Validate("bogus"))
}

func TestValidate_CornerPolicy(t *testing.T) {
	cfg := validDefaults()
	cfg.Valuation.CornerPolicy = "always"
	assert.Error(t, cfg.Validate("valuate"))
}

func TestValidate_NegativeDistance(t *testing.T) {
	cfg := validDefaults()
	cfg.Valuation.DefaultDistanceKM = -1
	assert.Error(t, cfg.Validate("valuate"))
}

func TestValidate_ServePort(t *testing.T) {
	tests := []struct {
		port    int
		wantErr bool
	}{
		{3001, false},
		{0, true},
		{70000, true},
	}
	for _, tt := range tests {
		cfg := validDefaults()
		cfg.Server.Port = tt.port
		err := cfg.Validate("serve")
		if tt.wantErr {
			assert.Error(t, err, "port %d", tt.port)
		} else {
			assert.NoError(t, err, "port %d", tt.port)
		}
	}
}

func TestValidate_ServeHalfNotionConfig(t *testing.T) {
	cfg := validDefaults()
	cfg.Notion.Token = "secret"

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion")
}

func TestValidate_BatchConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Batch.MaxConcurrent = 0
	assert.Error(t, cfg.Validate("batch"))

	cfg.Batch.MaxConcurrent = 1000
	assert.Error(t, cfg.Validate("batch"))
}
