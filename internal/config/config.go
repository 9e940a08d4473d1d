package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	View      ViewConfig      `yaml:"view" mapstructure:"view"`
	LinkCheck LinkCheckConfig `yaml:"linkcheck" mapstructure:"linkcheck"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures the artifact collection source.
type SourceConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the source fetch timeout as a duration.
func (c SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// StoreConfig configures the optional dimension-cache backend. An empty
// driver disables persistence; the in-memory session cache is always active.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnalysisConfig configures the image analysis scheduler.
type AnalysisConfig struct {
	ProbeTimeoutSecs int `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
	YieldEvery       int `yaml:"yield_every" mapstructure:"yield_every"`
	RepublishEvery   int `yaml:"republish_every" mapstructure:"republish_every"`
}

// ProbeTimeout returns the per-image probe timeout as a duration.
func (c AnalysisConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSecs) * time.Second
}

// ViewConfig configures pagination and leaderboard sizing.
type ViewConfig struct {
	PageSize        int `yaml:"page_size" mapstructure:"page_size"`
	LookaheadPages  int `yaml:"lookahead_pages" mapstructure:"lookahead_pages"`
	LeaderboardSize int `yaml:"leaderboard_size" mapstructure:"leaderboard_size"`
}

// LinkCheckConfig configures the bulk URL liveness checker.
type LinkCheckConfig struct {
	Concurrency    int     `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.url", "https://jespergran98.github.io/originGuessr/artifacts.json")
	v.SetDefault("source.timeout_secs", 30)
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.user_agent", "originguessr-analyzer/1.0")
	v.SetDefault("store.driver", "")
	v.SetDefault("analysis.probe_timeout_secs", 8)
	v.SetDefault("analysis.yield_every", 10)
	v.SetDefault("analysis.republish_every", 5)
	v.SetDefault("view.page_size", 12)
	v.SetDefault("view.lookahead_pages", 2)
	v.SetDefault("view.leaderboard_size", 5)
	v.SetDefault("linkcheck.concurrency", 8)
	v.SetDefault("linkcheck.timeout_secs", 10)
	v.SetDefault("linkcheck.requests_per_sec", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable for the given mode.
// Modes: "analyze", "serve", "linkcheck".
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Source.URL == "" {
		problems = append(problems, "source.url is required")
	}
	if c.Analysis.ProbeTimeoutSecs <= 0 {
		problems = append(problems, "analysis.probe_timeout_secs must be > 0")
	}
	if c.View.PageSize < 1 || c.View.PageSize > 100 {
		problems = append(problems, "view.page_size must be between 1 and 100")
	}
	if c.Store.Driver != "" && c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be empty, sqlite, or postgres")
	}
	if c.Store.Driver != "" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required when store.driver is set")
	}

	switch mode {
	case "analyze":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "linkcheck":
		if c.LinkCheck.Concurrency < 1 || c.LinkCheck.Concurrency > 64 {
			problems = append(problems, "linkcheck.concurrency must be between 1 and 64")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
