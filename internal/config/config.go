package config

import (
	"time"
)

// Config is the complete application configuration. Values come from the
// config file, AEOLENS_* environment variables, and flag overrides, merged
// by viper and decoded through mapstructure.
type Config struct {
	Server   ServerConfig            `mapstructure:"server"`
	Store    StoreConfig             `mapstructure:"store"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Engines  map[string]EngineConfig `mapstructure:"engines"`
	Judge    JudgeConfig             `mapstructure:"judge"`
	Ensemble EnsembleConfig          `mapstructure:"ensemble"`
	Crawl    CrawlConfig             `mapstructure:"crawl"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso. When neither
// Path nor URL is set the persistent cache backend stays disabled and the
// in-memory cache is used.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// Enabled reports whether a persistent store target is configured.
func (c StoreConfig) Enabled() bool {
	return c.Path != "" || c.URL != ""
}

// CacheConfig tunes the simulation result cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

// EngineConfig configures one answer engine adapter. The map key in
// Config.Engines is the engine name (chatgpt, gemini, perplexity, grok).
type EngineConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	SearchEnabled   bool          `mapstructure:"search_enabled"`
	ReasoningEffort string        `mapstructure:"reasoning_effort"`
}

// JudgeConfig configures the AI judge used for accuracy, deep sentiment, and
// gap analysis. Engine names the adapter whose driver backs the judge.
type JudgeConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Engine  string        `mapstructure:"engine"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// EnsembleConfig bounds ensemble mode.
type EnsembleConfig struct {
	DefaultRuns int `mapstructure:"default_runs"`
	Concurrency int `mapstructure:"concurrency"`
}

// CrawlConfig configures the ground-truth crawl service.
type CrawlConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	MaxWait time.Duration `mapstructure:"max_wait"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// MetricsConfig contains telemetry configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}
