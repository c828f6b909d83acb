package cmd

import (
	"context"
	"fmt"

	"github.com/aeolens/aeolens/internal/ailink"
	"github.com/aeolens/aeolens/internal/ailink/driver"
	"github.com/aeolens/aeolens/internal/ailink/driver/gemini"
	"github.com/aeolens/aeolens/internal/ailink/driver/openai"
	"github.com/aeolens/aeolens/internal/ailink/driver/perplexity"
	"github.com/aeolens/aeolens/internal/ailink/driver/xai"
	"github.com/aeolens/aeolens/internal/config"
	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/aeo"
	"github.com/aeolens/aeolens/internal/core/crawl"
	"github.com/aeolens/aeolens/internal/core/engine"
	"github.com/aeolens/aeolens/internal/core/geo"
	"github.com/aeolens/aeolens/internal/core/sentiment"
	"github.com/aeolens/aeolens/internal/core/store"
)

// openStore opens the persistent store when one is configured. A nil store
// means the in-memory cache backend is used.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if cfg == nil || !cfg.Store.Enabled() {
		return nil, nil
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func buildCache(cfg *config.Config, st *store.Store) engine.Cache {
	maxSize := 0
	if cfg != nil {
		maxSize = cfg.Cache.MaxSize
	}
	if st != nil {
		return store.NewCache(st, maxSize)
	}
	return engine.NewMemoryCache(maxSize)
}

func buildDriver(name string, ec config.EngineConfig) (driver.Driver, error) {
	switch core.Engine(name) {
	case core.EngineChatGPT:
		return openai.NewClient(ec.BaseURL, ec.APIKey), nil
	case core.EngineGemini:
		return gemini.NewClient(ec.APIKey), nil
	case core.EnginePerplexity:
		return perplexity.NewClient(ec.BaseURL, ec.APIKey), nil
	case core.EngineGrok:
		return xai.NewClient(ec.BaseURL, ec.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown engine: %s", name)
	}
}

func buildAdapters(cfg *config.Config) (map[core.Engine]*engine.Adapter, error) {
	adapters := make(map[core.Engine]*engine.Adapter)
	if cfg == nil {
		return adapters, nil
	}

	for name, ec := range cfg.Engines {
		if !ec.Enabled || ec.APIKey == "" {
			continue
		}
		d, err := buildDriver(name, ec)
		if err != nil {
			return nil, err
		}
		eng := core.Engine(name)
		adapters[eng] = &engine.Adapter{
			Engine:          eng,
			Driver:          d,
			Model:           ec.Model,
			Timeout:         ec.Timeout,
			SearchEnabled:   ec.SearchEnabled,
			ReasoningEffort: ec.ReasoningEffort,
		}
	}
	return adapters, nil
}

// buildJudge resolves the judge from the configured engine's driver. A nil
// judge degrades accuracy and deep sentiment to their lexicon fallbacks.
func buildJudge(cfg *config.Config, adapters map[core.Engine]*engine.Adapter) *ailink.Judge {
	if cfg == nil || !cfg.Judge.Enabled {
		return nil
	}

	adapter, ok := adapters[core.Engine(cfg.Judge.Engine)]
	if !ok || adapter == nil {
		return nil
	}

	model := cfg.Judge.Model
	if model == "" {
		model = adapter.Model
	}
	return ailink.NewJudge(adapter.Driver, model)
}

func buildOrchestrator(cfg *config.Config, cache engine.Cache, useCache bool) (*engine.Orchestrator, error) {
	adapters, err := buildAdapters(cfg)
	if err != nil {
		return nil, err
	}

	judge := buildJudge(cfg, adapters)

	orch := &engine.Orchestrator{
		Adapters:     adapters,
		Cache:        cache,
		CacheEnabled: useCache && cfg != nil && cfg.Cache.Enabled,
		Retry:        ailink.DefaultRetryPolicy(),
		Scorer:       aeo.NewScorer(judge),
		Sentiment:    sentiment.NewAnalyzer(judge),
		Recommender:  geo.NewEngine(judge),
		ToolVersion:  versionInfo.Version,
	}
	if cfg != nil {
		orch.CacheTTL = cfg.Cache.TTL
		orch.EnsembleLimit = cfg.Ensemble.Concurrency
		if cfg.Crawl.BaseURL != "" {
			client := crawl.NewClient(cfg.Crawl.BaseURL, cfg.Crawl.APIKey)
			client.MaxWait = cfg.Crawl.MaxWait
			orch.GroundTruth = client.GroundTruth
		}
	}
	return orch, nil
}
