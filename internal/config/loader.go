// Package config provides centralized configuration management. Values merge
// in three layers: built-in defaults, a YAML config file, and AEOLENS_*
// environment variables (plus runtime flag overrides).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the environment variable prefix, e.g. AEOLENS_SERVER_PORT.
	EnvPrefix = "AEOLENS"

	appName = "aeolens"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// Load reads the merged viper state into a typed Config. Call after the CLI
// layer has run SetDefaults and ReadInConfig.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create config decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Cache.MaxSize <= 0 {
		cfg.Cache.MaxSize = 1000
	}
	if cfg.Ensemble.DefaultRuns < 1 {
		cfg.Ensemble.DefaultRuns = 1
	}
	if cfg.Ensemble.DefaultRuns > 15 {
		cfg.Ensemble.DefaultRuns = 15
	}

	setConfig(cfg)
	return cfg, nil
}

// Get returns the current application configuration.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// SetDefaults installs the default value for every knob on the given viper
// instance. Every key listed here is overridable via config file or env.
func SetDefaults(v *viper.Viper) {
	if v == nil {
		v = viper.GetViper()
	}

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.max_size", 1000)

	v.SetDefault("engines.chatgpt.enabled", true)
	v.SetDefault("engines.chatgpt.model", "gpt-4o")
	v.SetDefault("engines.chatgpt.search_enabled", true)
	v.SetDefault("engines.chatgpt.timeout", "120s")

	v.SetDefault("engines.gemini.enabled", true)
	v.SetDefault("engines.gemini.model", "gemini-2.5-flash")
	v.SetDefault("engines.gemini.search_enabled", true)
	v.SetDefault("engines.gemini.timeout", "120s")

	v.SetDefault("engines.perplexity.enabled", true)
	v.SetDefault("engines.perplexity.model", "sonar-pro")
	v.SetDefault("engines.perplexity.search_enabled", true)
	v.SetDefault("engines.perplexity.timeout", "120s")

	v.SetDefault("engines.grok.enabled", true)
	v.SetDefault("engines.grok.model", "grok-4")
	v.SetDefault("engines.grok.search_enabled", true)
	v.SetDefault("engines.grok.timeout", "120s")

	v.SetDefault("judge.enabled", true)
	v.SetDefault("judge.engine", "chatgpt")
	v.SetDefault("judge.model", "gpt-4o-mini")
	v.SetDefault("judge.timeout", "60s")

	v.SetDefault("ensemble.default_runs", 5)
	v.SetDefault("ensemble.concurrency", 5)

	v.SetDefault("crawl.base_url", "")
	v.SetDefault("crawl.api_key", "")
	v.SetDefault("crawl.max_wait", "60s")

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
}

// DefaultConfigDir returns the XDG-style config directory for the app.
func DefaultConfigDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DefaultStorePath returns the default path for the libsql database file.
func DefaultStorePath() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); dir != "" {
		return filepath.Join(dir, appName, appName+".db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./" + appName + ".db"
	}
	return filepath.Join(home, ".local", "share", appName, appName+".db")
}
