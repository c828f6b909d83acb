package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	require.Equal(t, "localhost", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, time.Hour, cfg.Cache.TTL)
	require.Equal(t, 1000, cfg.Cache.MaxSize)

	require.Equal(t, 5, cfg.Ensemble.DefaultRuns)
	require.Equal(t, 5, cfg.Ensemble.Concurrency)

	require.Len(t, cfg.Engines, 4)
	require.True(t, cfg.Engines["chatgpt"].SearchEnabled)
	require.Equal(t, "sonar-pro", cfg.Engines["perplexity"].Model)
	require.Equal(t, 120*time.Second, cfg.Engines["grok"].Timeout)

	require.True(t, cfg.Judge.Enabled)
	require.Equal(t, "chatgpt", cfg.Judge.Engine)

	require.False(t, cfg.Store.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("cache.ttl", "15m")
	v.Set("engines.grok.api_key", "xai-test")
	v.Set("engines.grok.search_enabled", false)
	v.Set("store.path", "/tmp/aeolens.db")

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "xai-test", cfg.Engines["grok"].APIKey)
	require.False(t, cfg.Engines["grok"].SearchEnabled)
	require.True(t, cfg.Store.Enabled())
}

func TestLoadClampsEnsembleRuns(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("ensemble.default_runs", 40)

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 15, cfg.Ensemble.DefaultRuns)

	v.Set("ensemble.default_runs", 0)
	cfg, err = Load(v)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Ensemble.DefaultRuns)
}
