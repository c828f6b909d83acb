package server

import (
	"github.com/aeolens/aeolens/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// Health endpoints. /healthz is the short alias for load balancers.
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/healthz", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Simulation API
	s.router.Post("/v1/simulations", s.simulations.SimulateHandler)
	s.router.Post("/v1/simulations/ensemble", s.simulations.EnsembleHandler)
	s.router.Get("/v1/cache/stats", s.simulations.CacheStatsHandler)
	s.router.Delete("/v1/cache", s.simulations.CacheClearHandler)
}
