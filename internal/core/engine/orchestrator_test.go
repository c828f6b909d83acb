package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aeolens/aeolens/internal/ailink"
	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/aeo"
	"github.com/aeolens/aeolens/internal/core/geo"
	"github.com/aeolens/aeolens/internal/core/sentiment"
)

// scriptedDriver replays canned answers in order; after the script runs out
// it repeats the last entry. Errors interleave via errs at the same index.
type scriptedDriver struct {
	mu       sync.Mutex
	answers  []string
	errs     []error
	search   bool
	calls    int
	requests []*driver.Request
}

func (d *scriptedDriver) Complete(_ context.Context, req *driver.Request) (*driver.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	d.requests = append(d.requests, req)
	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}
	answer := ""
	if len(d.answers) > 0 {
		if i >= len(d.answers) {
			i = len(d.answers) - 1
		}
		answer = d.answers[i]
	}
	return &driver.Response{
		Content:      []content.Block{{Kind: content.KindText, Text: answer}},
		FinishReason: "stop",
	}, nil
}

func (d *scriptedDriver) Name() string { return "scripted" }

func (d *scriptedDriver) Capabilities() driver.Capabilities {
	return driver.Capabilities{SupportsSearch: d.search}
}

func (d *scriptedDriver) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func noBackoffRetry(maxAttempts int) ailink.RetryPolicy {
	return ailink.RetryPolicy{
		MaxAttempts:  maxAttempts,
		NonRetryable: func(err error) bool { return !driver.IsRetryable(err) },
	}
}

func testRequest(engine core.Engine) core.SimulationRequest {
	return core.SimulationRequest{
		Engine:      engine,
		Keyword:     "best rocket company",
		Region:      "us",
		Language:    "en",
		BrandDomain: "acme.com",
		BrandName:   "Acme",
		Competitors: []string{"Globex"},
	}
}

func newTestOrchestrator(drv driver.Driver) *Orchestrator {
	return &Orchestrator{
		Adapters: map[core.Engine]*Adapter{
			core.EngineChatGPT: {Engine: core.EngineChatGPT, Driver: drv, Model: "test-model"},
		},
		Cache:        NewMemoryCache(10),
		CacheEnabled: true,
		Retry:        noBackoffRetry(1),
		Scorer:       &aeo.Scorer{},
		Sentiment:    sentiment.NewAnalyzer(nil),
		Recommender:  geo.NewEngine(nil),
		ToolVersion:  "test",
	}
}

func TestRunRawCachesSecondCall(t *testing.T) {
	drv := &scriptedDriver{answers: []string{"Acme is the leading rocket company."}}
	orch := newTestOrchestrator(drv)
	req := testRequest(core.EngineChatGPT)

	first, fromCache, err := orch.RunRaw(context.Background(), req)
	require.NoError(t, err)
	require.False(t, fromCache)

	second, fromCache, err := orch.RunRaw(context.Background(), req)
	require.NoError(t, err)
	require.True(t, fromCache)
	require.Equal(t, first, second)
	require.Equal(t, 1, drv.callCount())
}

func TestRunRawCacheDisabled(t *testing.T) {
	drv := &scriptedDriver{answers: []string{"Acme builds rockets."}}
	orch := newTestOrchestrator(drv)
	orch.CacheEnabled = false
	req := testRequest(core.EngineChatGPT)

	_, _, err := orch.RunRaw(context.Background(), req)
	require.NoError(t, err)
	_, fromCache, err := orch.RunRaw(context.Background(), req)
	require.NoError(t, err)
	require.False(t, fromCache)
	require.Equal(t, 2, drv.callCount())
}

func TestRunRawRetriesTransientErrors(t *testing.T) {
	transient := &driver.ProviderError{Kind: driver.KindUnavailable, Message: "upstream 502"}
	drv := &scriptedDriver{
		answers: []string{"", "Acme builds rockets."},
		errs:    []error{transient, nil},
	}
	orch := newTestOrchestrator(drv)
	orch.Retry = noBackoffRetry(3)

	result, fromCache, err := orch.RunRaw(context.Background(), testRequest(core.EngineChatGPT))
	require.NoError(t, err)
	require.False(t, fromCache)
	require.Equal(t, "Acme builds rockets.", result.Answer)
	require.Equal(t, 2, drv.callCount())
}

func TestRunRawStopsOnNonRetryable(t *testing.T) {
	fatal := &driver.ProviderError{Kind: driver.KindAuth, Message: "bad key"}
	drv := &scriptedDriver{errs: []error{fatal, fatal, fatal}}
	orch := newTestOrchestrator(drv)
	orch.Retry = noBackoffRetry(3)

	_, _, err := orch.RunRaw(context.Background(), testRequest(core.EngineChatGPT))
	require.Error(t, err)
	require.Equal(t, 1, drv.callCount())
}

func TestRunRawUnknownEngine(t *testing.T) {
	orch := newTestOrchestrator(&scriptedDriver{})
	req := testRequest(core.EngineGemini)

	_, _, err := orch.RunRaw(context.Background(), req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "gemini")
}

func TestSimulateFullPipeline(t *testing.T) {
	answer := "Acme is an excellent rocket company trusted by many launch customers. " +
		"Its reusable boosters are reliable and the team has a great track record. " +
		"See https://acme.com for details."
	drv := &scriptedDriver{answers: []string{answer}}
	orch := newTestOrchestrator(drv)

	sim, err := orch.Simulate(context.Background(), testRequest(core.EngineChatGPT))
	require.NoError(t, err)

	require.NotEmpty(t, sim.ID)
	require.Equal(t, sim.ID, sim.Result.Provenance.AttemptID)
	require.False(t, sim.Result.Provenance.FromCache)
	require.Equal(t, "test", sim.Result.Provenance.ToolVersion)

	require.NotNil(t, sim.Score)
	require.Positive(t, sim.Score.NormalizedScore)
	require.NotNil(t, sim.Sentiment)
	require.Equal(t, core.SentimentPositive, sim.Sentiment.Label)
	require.Equal(t, sim.Sentiment, sim.Result.Sentiment)
	require.NotNil(t, sim.Signals)
	require.True(t, sim.Signals.IsVisible)
}

func TestSimulatePassesBrandDescriptionToJudge(t *testing.T) {
	drv := &scriptedDriver{answers: []string{"Acme builds reliable rockets. See https://acme.com."}}
	judgeDrv := &scriptedDriver{answers: []string{`{"accuracy": "accurate", "misattribution_risk": false, "details": "matches"}`}}

	orch := newTestOrchestrator(drv)
	orch.Scorer = aeo.NewScorer(ailink.NewJudge(judgeDrv, "judge-model"))

	req := testRequest(core.EngineChatGPT)
	req.BrandDescription = "reusable rocket launch provider"

	sim, err := orch.Simulate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "accurate", sim.Score.Breakdown.Accuracy.Detail)

	require.Len(t, judgeDrv.requests, 1)
	user := judgeDrv.requests[0].Messages[1].Content[0].Text
	require.Contains(t, user, "Brand description: reusable rocket launch provider")
}

func TestSimulateSecondRunMarkedFromCache(t *testing.T) {
	drv := &scriptedDriver{answers: []string{"Acme builds reliable rockets."}}
	orch := newTestOrchestrator(drv)
	req := testRequest(core.EngineChatGPT)

	first, err := orch.Simulate(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Result.Provenance.FromCache)

	second, err := orch.Simulate(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Result.Provenance.FromCache)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 1, drv.callCount())
}

func TestSimulateAllContinuesPastFailures(t *testing.T) {
	good := &scriptedDriver{answers: []string{"Acme leads the market."}}
	bad := &scriptedDriver{errs: []error{&driver.ProviderError{Kind: driver.KindAuth, Message: "bad key"}}}

	orch := newTestOrchestrator(good)
	orch.Adapters[core.EnginePerplexity] = &Adapter{Engine: core.EnginePerplexity, Driver: bad, Model: "m"}

	sims, failures := orch.SimulateAll(context.Background(), testRequest(core.EngineChatGPT),
		[]core.Engine{core.EngineChatGPT, core.EnginePerplexity, core.EngineGrok})

	require.Len(t, sims, 1)
	require.Equal(t, core.EngineChatGPT, sims[0].Request.Engine)
	require.Len(t, failures, 2)
	require.Error(t, failures[core.EnginePerplexity])
	require.Error(t, failures[core.EngineGrok])
}

func TestEnsembleBandsByPresenceFrequency(t *testing.T) {
	// 3 of 5 runs mention the brand: frequency 0.6, definite band.
	drv := &scriptedDriver{answers: []string{
		"Acme is a top pick for launches.",
		"Several providers compete in this space.",
		"Acme and Globex both offer launches.",
		"Launch pricing varies a lot between vendors.",
		"Most analysts rank Acme first.",
	}}
	orch := newTestOrchestrator(drv)

	result, err := orch.Ensemble(context.Background(), testRequest(core.EngineChatGPT), 5)
	require.NoError(t, err)
	require.Equal(t, 5, result.Runs)
	require.Equal(t, 5, result.Completed)
	require.Equal(t, 3, result.PresentCount)
	require.InDelta(t, 0.6, result.Frequency, 1e-9)
	require.Equal(t, core.BandDefinite, result.Band)
	require.Empty(t, result.Errors)
}

func TestEnsembleCountsFailedRunsSeparately(t *testing.T) {
	fatal := &driver.ProviderError{Kind: driver.KindAuth, Message: "bad key"}
	drv := &scriptedDriver{
		answers: []string{"Acme is excellent.", "", "No brands come to mind."},
		errs:    []error{nil, fatal, nil},
	}
	orch := newTestOrchestrator(drv)
	orch.EnsembleLimit = 1

	result, err := orch.Ensemble(context.Background(), testRequest(core.EngineChatGPT), 3)
	require.NoError(t, err)
	require.Equal(t, 3, result.Runs)
	require.Equal(t, 2, result.Completed)
	require.Equal(t, 1, result.PresentCount)
	require.InDelta(t, 0.5, result.Frequency, 1e-9)
	require.Equal(t, core.BandPossible, result.Band)
	require.Len(t, result.Errors, 1)
}

func TestEnsembleClampsRunCount(t *testing.T) {
	drv := &scriptedDriver{answers: []string{"Acme wins."}}
	orch := newTestOrchestrator(drv)

	result, err := orch.Ensemble(context.Background(), testRequest(core.EngineChatGPT), 40)
	require.NoError(t, err)
	require.Equal(t, 15, result.Runs)

	result, err = orch.Ensemble(context.Background(), testRequest(core.EngineChatGPT), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Runs)
}

func TestEnsembleBypassesCache(t *testing.T) {
	drv := &scriptedDriver{answers: []string{"Acme wins."}}
	orch := newTestOrchestrator(drv)
	orch.EnsembleLimit = 1

	_, err := orch.Ensemble(context.Background(), testRequest(core.EngineChatGPT), 3)
	require.NoError(t, err)
	require.Equal(t, 3, drv.callCount())
}

func TestEnsembleAbsentBand(t *testing.T) {
	drv := &scriptedDriver{answers: []string{"No specific vendors stood out."}}
	orch := newTestOrchestrator(drv)
	orch.EnsembleLimit = 1

	result, err := orch.Ensemble(context.Background(), testRequest(core.EngineChatGPT), 2)
	require.NoError(t, err)
	require.Equal(t, 0, result.PresentCount)
	require.Equal(t, core.BandAbsent, result.Band)
}

func TestEnsembleContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	drv := &scriptedDriver{answers: []string{"Acme wins."}}
	orch := newTestOrchestrator(drv)

	result, err := orch.Ensemble(ctx, testRequest(core.EngineChatGPT), 3)
	require.NoError(t, err)
	require.Equal(t, 0, result.Completed)
	require.NotEmpty(t, result.Errors)
	require.Equal(t, core.BandAbsent, result.Band)
}
