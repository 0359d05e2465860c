package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "LOG_LEVEL", "LEDGER_DRIVER", "ORACLE_URL", "KEEPER_INTERVAL_SECONDS", "PRICE_SCALE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.LedgerDriver)
	assert.Equal(t, 5, cfg.KeeperIntervalSeconds)
	assert.Equal(t, 8, cfg.PriceScale)
	assert.Equal(t, "localhost:8080", cfg.Address())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LEDGER_DRIVER", "sqlite")
	t.Setenv("LEDGER_DSN", "data/ledger.db")
	t.Setenv("ORACLE_URL", "wss://stream.example.com/ws")

	cfg := Load()
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.LedgerDriver)
	assert.Equal(t, "data/ledger.db", cfg.LedgerDSN)
	assert.NoError(t, cfg.Validate())
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	assert.Equal(t, 8080, Load().Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.Port = 0 }, "Port"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"bad driver", func(c *Config) { c.LedgerDriver = "postgres" }, "LedgerDriver"},
		{"sqlite without dsn", func(c *Config) { c.LedgerDriver = "sqlite"; c.LedgerDSN = "" }, "LedgerDSN"},
		{"bad static price", func(c *Config) { c.OracleStaticPrice = "abc" }, "OracleStaticPrice"},
		{"zero interval", func(c *Config) { c.KeeperIntervalSeconds = 0 }, "KeeperIntervalSeconds"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "LogFormat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ENVIRONMENT=staging\nPRICE_SCALE=6\n"), 0o644))

	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PRICE_SCALE", "")
	os.Unsetenv("ENVIRONMENT")
	os.Unsetenv("PRICE_SCALE")

	require.NoError(t, LoadEnvFile(path))
	cfg := Load()
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 6, cfg.PriceScale)

	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func valid() *Config {
	return &Config{
		Host:                  "localhost",
		Port:                  8080,
		LogLevel:              "info",
		LogFormat:             "text",
		Environment:           "test",
		LedgerDriver:          "memory",
		KeeperIntervalSeconds: 5,
		PriceScale:            8,
	}
}
