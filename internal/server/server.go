package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aeolens/aeolens/internal/config"
	"github.com/aeolens/aeolens/internal/core/engine"
	apperrors "github.com/aeolens/aeolens/internal/errors"
	"github.com/aeolens/aeolens/internal/observability"
	"github.com/aeolens/aeolens/internal/server/handlers"
	servermw "github.com/aeolens/aeolens/internal/server/middleware"
)

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	cfg         config.ServerConfig
	simulations *handlers.Simulations
	health      *handlers.HealthManager
}

// New creates a new HTTP server instance
func New(cfg config.ServerConfig, orch *engine.Orchestrator, cache engine.Cache) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)

	// Request ID first for correlation, metrics before recovery so panics
	// still count against the endpoint.
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router: r,
		cfg:    cfg,
		simulations: &handlers.Simulations{
			Orchestrator: orch,
			Cache:        cache,
		},
		health: handlers.NewHealthManager(handlers.AppVersion),
	}

	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()

	return s
}

// RegisterHealthChecker adds a named readiness check.
func (s *Server) RegisterHealthChecker(name string, checker handlers.HealthChecker) {
	s.health.RegisterChecker(name, checker)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  timeoutOr(s.cfg.ReadTimeout, 30*time.Second),
		WriteTimeout: timeoutOr(s.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  timeoutOr(s.cfg.IdleTimeout, 120*time.Second),
	}

	observability.ServerLogger.Info("Starting HTTP server",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	observability.ServerLogger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.cfg.Port
}

func timeoutOr(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
