package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "cryptoverde-api/pkg/market/coingecko"
)

const marketYAML = `
default: coingecko
providers:
  coingecko:
    type: coingecko
    base_url: ${CG_BASE_URL}
    historical_url: https://example.test/coins/{id}/market_chart
    vs_currency: usd
    per_page: 100
    snapshot_timeout: 15s
    historical_timeout: 10s
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadHydratesMarketAndResolvesPaths(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("CG_BASE_URL", "https://example.test/coins/markets")
	dir := t.TempDir()
	writeFile(t, dir, "market.yaml", marketYAML)
	mainPath := writeFile(t, dir, "cryptoverde.yaml", `
Name: cryptoverde-api
Host: 127.0.0.1
Port: 8888
Env: dev
Store:
  Driver: sqlite
  DSN: data/cryptoverde.db
ETL:
  IntervalSeconds: 120
Market:
  File: market.yaml
`)

	cfg, err := Load(mainPath)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, "data", "cryptoverde.db"), cfg.Store.DSN)
	assert.Equal(t, 2*time.Minute, cfg.ETL.Interval())
	assert.Equal(t, time.Minute, cfg.ETL.ErrorBackoff())
	assert.Equal(t, 5*time.Minute, cfg.ETL.CacheTTL())
	assert.True(t, cfg.ETL.RunOnStart)
	assert.Equal(t, filepath.Join(dir, "raw_data"), cfg.ETL.RawDataDir)
	assert.Equal(t, filepath.Join(dir, "cache.json"), cfg.ETL.CacheFile)
	assert.Equal(t, dir, cfg.BaseDir())
	assert.False(t, cfg.HasRedis())

	require.NotNil(t, cfg.Market.Value)
	provider := cfg.Market.Value.Providers["coingecko"]
	require.NotNil(t, provider)
	assert.Equal(t, "https://example.test/coins/markets", provider.BaseURL)
	assert.Equal(t, 15*time.Second, provider.SnapshotTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:   "prod",
			Store: StoreConf{Driver: "memory"},
			TTL:   CacheTTL{Short: 1, Medium: 1, Long: 1},
			ETL:   ETLConf{IntervalSeconds: 1, ErrorBackoffSeconds: 1, CacheTTLSeconds: 1, RawDataDir: "raw"},
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Env = ""
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsTestEnv())

	cases := map[string]func(*Config){
		"bad env":         func(c *Config) { c.Env = "staging" },
		"bad driver":      func(c *Config) { c.Store.Driver = "mysql" },
		"postgres no dsn": func(c *Config) { c.Store.Driver = "postgres" },
		"bad interval":    func(c *Config) { c.ETL.IntervalSeconds = -1 },
		"bad backoff":     func(c *Config) { c.ETL.ErrorBackoffSeconds = -5 },
		"bad cache ttl":   func(c *Config) { c.ETL.CacheTTLSeconds = -1 },
		"blank raw dir":   func(c *Config) { c.ETL.RawDataDir = " " },
		"bad ttl":         func(c *Config) { c.TTL.Medium = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateFillsOmittedSections(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 300, cfg.ETL.IntervalSeconds)
	assert.Equal(t, 60, cfg.ETL.ErrorBackoffSeconds)
	assert.Equal(t, "raw_data", cfg.ETL.RawDataDir)
	assert.Equal(t, 300, cfg.TTL.Medium)
}

func TestValidateNormalisesDriver(t *testing.T) {
	cfg := Config{
		Store: StoreConf{Driver: " Postgres ", DSN: "postgres://localhost/db"},
		TTL:   CacheTTL{Short: 1, Medium: 1, Long: 1},
		ETL:   ETLConf{IntervalSeconds: 1, ErrorBackoffSeconds: 1, CacheTTLSeconds: 1, RawDataDir: "raw"},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
