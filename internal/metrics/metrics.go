// Package metrics emits application telemetry through the shared system.
// Every helper tolerates an uninitialized telemetry system so library code
// can call them unconditionally.
package metrics

import (
	"time"

	"github.com/aeolens/aeolens/internal/observability"
)

// Metric names follow Prometheus conventions.
var (
	SimulationsTotal    = "aeo_simulations_total"
	SimulationDuration  = "aeo_simulation_duration_ms"
	ProviderErrorsTotal = "aeo_provider_errors_total"
	CacheLookupsTotal   = "aeo_cache_lookups_total"
	JudgeFallbacksTotal = "aeo_judge_fallbacks_total"
	EnsembleRunsTotal   = "aeo_ensemble_runs_total"
	ErrorsTotal         = "errors_total"
	ErrorsByEndpoint    = "errors_by_endpoint"
	PanicsTotal         = "panics_total"
	HTTPRequestsTotal   = "http_requests_total"
	HTTPRequestDuration = "http_request_duration_ms"
)

// RecordSimulation records one simulation attempt with its outcome.
func RecordSimulation(engine string, success bool, duration time.Duration) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	_ = sys.Counter(SimulationsTotal, 1, map[string]string{
		"engine": engine,
		"status": status,
	})
	_ = sys.Histogram(SimulationDuration, duration, map[string]string{
		"engine": engine,
	})
}

// RecordProviderError records a provider failure by error kind.
func RecordProviderError(engine, kind string) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(ProviderErrorsTotal, 1, map[string]string{
		"engine": engine,
		"kind":   kind,
	})
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	_ = sys.Counter(CacheLookupsTotal, 1, map[string]string{"outcome": outcome})
}

// RecordJudgeFallback records a judge call that degraded to its deterministic
// fallback.
func RecordJudgeFallback(task string) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(JudgeFallbacksTotal, 1, map[string]string{"task": task})
}

// RecordEnsembleRun records one completed ensemble aggregation.
func RecordEnsembleRun(engine string, runs int) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(EnsembleRunsTotal, float64(runs), map[string]string{
		"engine": engine,
	})
}

// RecordError records an application error by code and HTTP status.
func RecordError(code string, statusCode int) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(ErrorsTotal, 1, map[string]string{
		"code":   code,
		"status": httpStatusClass(statusCode),
	})
}

// RecordErrorByEndpoint records an error against the endpoint that produced it.
func RecordErrorByEndpoint(endpoint, code string) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(ErrorsByEndpoint, 1, map[string]string{
		"endpoint": endpoint,
		"code":     code,
	})
}

// RecordPanic records a recovered panic.
func RecordPanic() {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(PanicsTotal, 1, nil)
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	labels := map[string]string{
		"method": method,
		"path":   path,
		"status": httpStatusClass(statusCode),
	}
	_ = sys.Counter(HTTPRequestsTotal, 1, labels)
	_ = sys.Histogram(HTTPRequestDuration, duration, labels)
}

func httpStatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
