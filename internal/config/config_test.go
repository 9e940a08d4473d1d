package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Source.TimeoutSecs)
	assert.Equal(t, 3, cfg.Source.MaxRetries)
	assert.Equal(t, 8, cfg.Analysis.ProbeTimeoutSecs)
	assert.Equal(t, 10, cfg.Analysis.YieldEvery)
	assert.Equal(t, 5, cfg.Analysis.RepublishEvery)
	assert.Equal(t, 12, cfg.View.PageSize)
	assert.Equal(t, 2, cfg.View.LookaheadPages)
	assert.Equal(t, 5, cfg.View.LeaderboardSize)
	assert.Equal(t, 8, cfg.LinkCheck.Concurrency)
	assert.InDelta(t, 10.0, cfg.LinkCheck.RequestsPerSec, 0.001)
	assert.NotEmpty(t, cfg.Source.URL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  database_url: artifacts.db
log:
  level: debug
  format: console
server:
  port: 9090
view:
  page_size: 24
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 24, cfg.View.PageSize)
	// Defaults still apply for unset values
	assert.Equal(t, 8, cfg.Analysis.ProbeTimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ANALYZER_LOG_LEVEL", "warn")
	t.Setenv("ANALYZER_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file and defaults
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func validDefaults() *Config {
	return &Config{
		Source:   SourceConfig{URL: "https://example.org/artifacts.json", TimeoutSecs: 30},
		Analysis: AnalysisConfig{ProbeTimeoutSecs: 8, YieldEvery: 10, RepublishEvery: 5},
		View:     ViewConfig{PageSize: 12, LookaheadPages: 2, LeaderboardSize: 5},
		LinkCheck: LinkCheckConfig{
			Concurrency: 8, TimeoutSecs: 10, RequestsPerSec: 10,
		},
		Server: ServerConfig{Port: 8080},
	}
}

func TestValidateAnalyze(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateMissingSourceURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Source.URL = ""

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "source.url is required")
}

func TestValidateServeInvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()

	cfg.Store.Driver = "mysql"
	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")

	cfg.Store.Driver = "sqlite"
	err = cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "artifacts.db"
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateLinkCheckConcurrency(t *testing.T) {
	cfg := validDefaults()

	cfg.LinkCheck.Concurrency = 0
	err := cfg.Validate("linkcheck")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "linkcheck.concurrency must be between 1 and 64")

	cfg.LinkCheck.Concurrency = 65
	err = cfg.Validate("linkcheck")
	assert.Error(t, err)

	cfg.LinkCheck.Concurrency = 64
	assert.NoError(t, cfg.Validate("linkcheck"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidatePageSizeBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.View.PageSize = 0
	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "view.page_size")

	cfg.View.PageSize = 101
	err = cfg.Validate("analyze")
	assert.Error(t, err)
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
