package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/aeolens/aeolens/internal/ailink/driver"
	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/engine"
	apperrors "github.com/aeolens/aeolens/internal/errors"
	"github.com/aeolens/aeolens/internal/metrics"
)

// Simulations serves the simulation API backed by a configured orchestrator.
type Simulations struct {
	Orchestrator *engine.Orchestrator
	Cache        engine.Cache
}

// SimulationRequestBody is the POST /v1/simulations payload. Either a single
// engine or an engines list must be set; the list form runs every engine and
// reports per-engine failures without aborting the batch.
type SimulationRequestBody struct {
	core.SimulationRequest
	Engines []core.Engine `json:"engines,omitempty"`
	Runs    int           `json:"runs,omitempty"`
}

// SimulationBatchResponse is the multi-engine response shape.
type SimulationBatchResponse struct {
	Simulations []*core.Simulation `json:"simulations"`
	Failures    map[string]string  `json:"failures,omitempty"`
}

// SimulateHandler runs one simulation per requested engine.
func (h *Simulations) SimulateHandler(w http.ResponseWriter, r *http.Request) {
	var body SimulationRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Request body must be valid JSON"))
		return
	}

	if strings.TrimSpace(body.Keyword) == "" {
		respondWithError(w, r, apperrors.NewValidationError("keyword is required"))
		return
	}
	if strings.TrimSpace(body.BrandDomain) == "" {
		respondWithError(w, r, apperrors.NewValidationError("brand_domain is required"))
		return
	}
	if body.Engine == "" && len(body.Engines) == 0 {
		respondWithError(w, r, apperrors.NewValidationError("engine or engines is required"))
		return
	}
	for _, eng := range body.Engines {
		if _, err := core.ParseEngine(string(eng)); err != nil {
			respondWithError(w, r, apperrors.NewValidationError(err.Error()))
			return
		}
	}
	if body.Engine != "" {
		eng, err := core.ParseEngine(string(body.Engine))
		if err != nil {
			respondWithError(w, r, apperrors.NewValidationError(err.Error()))
			return
		}
		body.Engine = eng
	}

	if len(body.Engines) > 0 {
		simulations, failures := h.Orchestrator.SimulateAll(r.Context(), body.SimulationRequest, body.Engines)
		for _, sim := range simulations {
			duration := time.Duration(0)
			if sim.Result != nil {
				duration = sim.Result.Provenance.ResolvedAt.Sub(sim.Result.Provenance.RequestedAt)
			}
			recordSimulation(sim.Request.Engine, nil, duration, sim)
		}
		response := SimulationBatchResponse{Simulations: simulations}
		if len(failures) > 0 {
			response.Failures = make(map[string]string, len(failures))
			for eng, err := range failures {
				recordSimulation(eng, err, 0, nil)
				response.Failures[string(eng)] = err.Error()
			}
		}
		writeJSON(w, http.StatusOK, response)
		return
	}

	start := time.Now()
	simulation, err := h.Orchestrator.Simulate(r.Context(), body.SimulationRequest)
	recordSimulation(body.Engine, err, time.Since(start), simulation)
	if err != nil {
		respondWithError(w, r, apperrors.FromProviderError(r.Context(), err))
		return
	}
	writeJSON(w, http.StatusOK, simulation)
}

func recordSimulation(eng core.Engine, err error, duration time.Duration, sim *core.Simulation) {
	metrics.RecordSimulation(string(eng), err == nil, duration)
	if err != nil {
		var provErr *driver.ProviderError
		if stderrors.As(err, &provErr) {
			metrics.RecordProviderError(string(eng), string(provErr.Kind))
		}
		return
	}
	if sim != nil && sim.Result != nil {
		metrics.RecordCacheLookup(sim.Result.Provenance.FromCache)
	}
}

// EnsembleHandler repeats one simulation and reports presence frequency.
func (h *Simulations) EnsembleHandler(w http.ResponseWriter, r *http.Request) {
	var body SimulationRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Request body must be valid JSON"))
		return
	}

	if strings.TrimSpace(body.Keyword) == "" {
		respondWithError(w, r, apperrors.NewValidationError("keyword is required"))
		return
	}
	if body.Engine == "" {
		respondWithError(w, r, apperrors.NewValidationError("engine is required"))
		return
	}

	result, err := h.Orchestrator.Ensemble(r.Context(), body.SimulationRequest, body.Runs)
	if err != nil {
		respondWithError(w, r, apperrors.FromProviderError(r.Context(), err))
		return
	}
	metrics.RecordEnsembleRun(string(body.Engine), result.Completed)
	writeJSON(w, http.StatusOK, result)
}

// CacheStatsHandler reports cache occupancy.
func (h *Simulations) CacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("No cache is configured"))
		return
	}

	stats, err := h.Cache.Stats(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Unable to read cache stats"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// CacheClearHandler drops every cached result.
func (h *Simulations) CacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("No cache is configured"))
		return
	}

	if err := h.Cache.Clear(r.Context()); err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Unable to clear cache"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
