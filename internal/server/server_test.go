package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aeolens/aeolens/internal/ailink/driver"
	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/config"
	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/aeo"
	"github.com/aeolens/aeolens/internal/core/engine"
	"github.com/aeolens/aeolens/internal/core/geo"
	"github.com/aeolens/aeolens/internal/core/sentiment"
	apperrors "github.com/aeolens/aeolens/internal/errors"
)

type stubDriver struct {
	answer string
}

func (d *stubDriver) Complete(_ context.Context, _ *driver.Request) (*driver.Response, error) {
	return &driver.Response{
		Content: []content.Block{{Kind: content.KindText, Text: d.answer}},
	}, nil
}

func (d *stubDriver) Name() string { return "stub" }

func (d *stubDriver) Capabilities() driver.Capabilities {
	return driver.Capabilities{}
}

func newTestServer(answer string) *Server {
	orch := &engine.Orchestrator{
		Adapters: map[core.Engine]*engine.Adapter{
			core.EngineChatGPT: {
				Engine: core.EngineChatGPT,
				Driver: &stubDriver{answer: answer},
				Model:  "test-model",
			},
		},
		Cache:        engine.NewMemoryCache(10),
		CacheEnabled: true,
		Scorer:       aeo.NewScorer(nil),
		Sentiment:    sentiment.NewAnalyzer(nil),
		Recommender:  geo.NewEngine(nil),
	}
	return New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, orch, orch.Cache)
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer("irrelevant")

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestSimulateEndpoint(t *testing.T) {
	srv := newTestServer("Acme is a widely recommended option for rockets. Visit https://acme.com for details.")

	payload := `{
		"engine": "chatgpt",
		"keyword": "best rocket company",
		"brand_domain": "acme.com",
		"brand_name": "Acme"
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/simulations", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var sim core.Simulation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sim))
	require.NotEmpty(t, sim.ID)
	require.NotNil(t, sim.Result)
	require.NotNil(t, sim.Score)
	require.NotNil(t, sim.Signals)
	require.True(t, sim.Signals.IsVisible)
}

func TestSimulateEndpointValidation(t *testing.T) {
	srv := newTestServer("irrelevant")

	tests := []struct {
		name    string
		payload string
	}{
		{"MissingKeyword", `{"engine":"chatgpt","brand_domain":"acme.com"}`},
		{"MissingBrand", `{"engine":"chatgpt","keyword":"best crm"}`},
		{"MissingEngine", `{"keyword":"best crm","brand_domain":"acme.com"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/simulations", strings.NewReader(tc.payload))
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body apperrors.HTTPErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
		})
	}
}

func TestSimulateEndpointUnsupportedEngine(t *testing.T) {
	srv := newTestServer("irrelevant")

	payload := `{"engine":"copilot","keyword":"best crm","brand_domain":"acme.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/simulations", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
}

func TestSimulateEndpointUnconfiguredEngine(t *testing.T) {
	srv := newTestServer("irrelevant")

	payload := `{"engine":"gemini","keyword":"best crm","brand_domain":"acme.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/simulations", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEnsembleEndpoint(t *testing.T) {
	srv := newTestServer("Acme leads the market. See https://acme.com.")

	payload := `{
		"engine": "chatgpt",
		"keyword": "best rocket company",
		"brand_domain": "acme.com",
		"brand_name": "Acme",
		"runs": 3
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/simulations/ensemble", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result core.EnsembleResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.Equal(t, 3, result.Runs)
	require.Equal(t, 3, result.PresentCount)
	require.Equal(t, core.BandDefinite, result.Band)
}

func TestCacheEndpoints(t *testing.T) {
	srv := newTestServer("Acme. https://acme.com")

	simulate := httptest.NewRequest(http.MethodPost, "/v1/simulations",
		strings.NewReader(`{"engine":"chatgpt","keyword":"best crm","brand_domain":"acme.com"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, simulate)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats engine.CacheStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.Equal(t, 1, stats.Size)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil))
	var cleared engine.CacheStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cleared))
	require.Equal(t, 0, cleared.Size)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer("irrelevant")

	for _, path := range []string{"/health", "/healthz", "/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
