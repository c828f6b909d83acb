package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aeolens/aeolens/internal/ailink"
	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/aeo"
	"github.com/aeolens/aeolens/internal/core/brand"
	"github.com/aeolens/aeolens/internal/core/geo"
	"github.com/aeolens/aeolens/internal/core/normalize"
	"github.com/aeolens/aeolens/internal/core/sentiment"
)

const (
	defaultCacheTTL      = time.Hour
	defaultEnsembleLimit = 5
	maxEnsembleRuns      = 15
)

// Orchestrator coordinates one simulation: adapter call (through cache and
// retry), normalization, and the scoring pipeline. Concurrent simulations
// share nothing but the cache.
type Orchestrator struct {
	Adapters map[core.Engine]*Adapter

	Cache        Cache
	CacheTTL     time.Duration
	CacheEnabled bool

	Retry ailink.RetryPolicy

	Scorer      *aeo.Scorer
	Sentiment   *sentiment.Analyzer
	Recommender *geo.Engine

	// GroundTruth fetches crawled brand content for accuracy judgments.
	// Nil means accuracy runs against the brand description only.
	GroundTruth func(ctx context.Context, domain string) (string, error)

	Clock         func() time.Time
	ToolVersion   string
	EnsembleLimit int
}

func (o *Orchestrator) now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) adapter(engine core.Engine) (*Adapter, error) {
	adapter, ok := o.Adapters[engine]
	if !ok || adapter == nil {
		return nil, fmt.Errorf("no adapter configured for engine %q", engine)
	}
	return adapter, nil
}

// RunRaw executes one adapter call through the cache and retry policy. The
// bool reports whether the result came from cache.
func (o *Orchestrator) RunRaw(ctx context.Context, req core.SimulationRequest) (*core.RawResult, bool, error) {
	if o == nil {
		return nil, false, errors.New("orchestrator not configured")
	}
	adapter, err := o.adapter(req.Engine)
	if err != nil {
		return nil, false, err
	}

	key := CacheKey(req.Engine, req.Keyword, req.Region, req.Language)
	if o.CacheEnabled && o.Cache != nil {
		if cached, ok, err := o.Cache.Get(ctx, key); err == nil && ok {
			return cached, true, nil
		}
	}

	var result *core.RawResult
	err = o.Retry.Do(ctx, func(ctx context.Context) error {
		var runErr error
		result, runErr = adapter.Run(ctx, req)
		return runErr
	})
	if err != nil {
		return nil, false, err
	}

	if o.CacheEnabled && o.Cache != nil {
		ttl := o.CacheTTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		_ = o.Cache.Set(ctx, key, result, ttl)
	}
	return result, false, nil
}

// Simulate runs the full pipeline for one engine: raw call, normalization,
// sentiment, AEO score, and selection signals. Judge degradations surface as
// analysis notes on the artifacts, never as errors.
func (o *Orchestrator) Simulate(ctx context.Context, req core.SimulationRequest) (*core.Simulation, error) {
	requestedAt := o.now()

	raw, fromCache, err := o.RunRaw(ctx, req)
	if err != nil {
		return nil, err
	}

	std := normalize.Normalize(req.Engine, raw.Answer, raw.Sources, req.BrandDomain)
	std.Provenance = core.Provenance{
		AttemptID:   uuid.NewString(),
		RequestedAt: requestedAt,
		ResolvedAt:  o.now(),
		FromCache:   fromCache,
		ToolVersion: o.ToolVersion,
	}

	detection := brand.Check(raw.Answer, req.BrandDomain, req.BrandAliases, req.BrandName)

	var sent *core.SentimentAnalysis
	if o.Sentiment != nil {
		sent = o.Sentiment.Analyze(ctx, raw.Answer, brandDisplayName(req))
		std.Sentiment = sent
	}

	var score *core.AEOScore
	if o.Scorer != nil {
		groundTruth := ""
		if o.GroundTruth != nil && strings.TrimSpace(req.BrandDomain) != "" {
			if content, gtErr := o.GroundTruth(ctx, req.BrandDomain); gtErr == nil {
				groundTruth = content
			}
		}
		score = o.Scorer.Score(ctx, aeo.Input{
			Answer:           raw.Answer,
			BrandName:        req.BrandName,
			BrandDomain:      req.BrandDomain,
			BrandDescription: req.BrandDescription,
			Aliases:          req.BrandAliases,
			Competitors:      req.Competitors,
			Sources:          std.Sources,
			GroundTruth:      groundTruth,
		})
	}

	var signals *core.SelectionSignals
	if o.Recommender != nil {
		label := core.SentimentNeutral
		if sent != nil {
			label = sent.Label
		}
		searchGrounded := false
		if adapter, ok := o.Adapters[req.Engine]; ok && adapter != nil {
			searchGrounded = adapter.SearchEnabled && adapter.Driver != nil && adapter.Driver.Capabilities().SupportsSearch
		}
		signals = o.Recommender.Analyze(ctx, geo.Input{
			Engine:         req.Engine,
			Keyword:        req.Keyword,
			Answer:         raw.Answer,
			BrandName:      brandDisplayName(req),
			BrandDomain:    req.BrandDomain,
			Sources:        std.Sources,
			Visible:        detection.IsVisible,
			Sentiment:      label,
			SearchGrounded: searchGrounded,
		})
	}

	return &core.Simulation{
		ID:        std.Provenance.AttemptID,
		Request:   req,
		Result:    std,
		Score:     score,
		Sentiment: sent,
		Signals:   signals,
	}, nil
}

// SimulateAll runs one simulation per engine concurrently. A failing engine
// does not abort its siblings; per-engine errors come back in the map.
func (o *Orchestrator) SimulateAll(ctx context.Context, req core.SimulationRequest, engines []core.Engine) ([]*core.Simulation, map[core.Engine]error) {
	if len(engines) == 0 {
		engines = core.AllEngines()
	}

	var mu sync.Mutex
	simulations := make([]*core.Simulation, 0, len(engines))
	failures := make(map[core.Engine]error)

	group, ctx := errgroup.WithContext(ctx)
	for _, engine := range engines {
		engineReq := req
		engineReq.Engine = engine
		group.Go(func() error {
			sim, err := o.Simulate(ctx, engineReq)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[engineReq.Engine] = err
				return nil
			}
			simulations = append(simulations, sim)
			return nil
		})
	}
	_ = group.Wait()

	sort.Slice(simulations, func(i, j int) bool {
		return simulations[i].Request.Engine < simulations[j].Request.Engine
	})
	return simulations, failures
}

// Ensemble runs N independent repeats of the same engine+query and reduces
// them to a presence-frequency confidence band. Repeats bypass the cache so
// each run is a fresh sample.
func (o *Orchestrator) Ensemble(ctx context.Context, req core.SimulationRequest, runs int) (*core.EnsembleResult, error) {
	if runs < 1 {
		runs = 1
	}
	if runs > maxEnsembleRuns {
		runs = maxEnsembleRuns
	}
	adapter, err := o.adapter(req.Engine)
	if err != nil {
		return nil, err
	}

	limit := o.EnsembleLimit
	if limit <= 0 {
		limit = defaultEnsembleLimit
	}

	var mu sync.Mutex
	completed := 0
	present := 0
	var errMessages []string

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i := 0; i < runs; i++ {
		group.Go(func() error {
			var raw *core.RawResult
			runErr := o.Retry.Do(ctx, func(ctx context.Context) error {
				var err error
				raw, err = adapter.Run(ctx, req)
				return err
			})

			mu.Lock()
			defer mu.Unlock()
			if runErr != nil {
				errMessages = append(errMessages, runErr.Error())
				return nil
			}
			completed++
			if brandPresent(raw, req) {
				present++
			}
			return nil
		})
	}
	_ = group.Wait()

	frequency := 0.0
	if completed > 0 {
		frequency = float64(present) / float64(completed)
	}

	return &core.EnsembleResult{
		Engine:       req.Engine,
		Keyword:      req.Keyword,
		Runs:         runs,
		Completed:    completed,
		PresentCount: present,
		Frequency:    frequency,
		Band:         core.BandForFrequency(frequency),
		Errors:       errMessages,
	}, nil
}

// brandPresent reports brand visibility in one raw result: a text mention or
// a brand-domain source both count.
func brandPresent(raw *core.RawResult, req core.SimulationRequest) bool {
	if raw == nil {
		return false
	}
	if brand.Check(raw.Answer, req.BrandDomain, req.BrandAliases, req.BrandName).IsVisible {
		return true
	}
	for _, src := range raw.Sources {
		if normalize.IsBrandMatch(src.URL, req.BrandDomain) {
			return true
		}
	}
	return false
}

func brandDisplayName(req core.SimulationRequest) string {
	if name := strings.TrimSpace(req.BrandName); name != "" {
		return name
	}
	return strings.TrimSpace(req.BrandDomain)
}
