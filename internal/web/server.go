// Package web provides the HTTP API for agent statistics imports.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/agentstats/internal/config"
	"github.com/JonMunkholm/agentstats/internal/core"
	"github.com/JonMunkholm/agentstats/internal/metrics"
	mw "github.com/JonMunkholm/agentstats/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports backend health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the import API.
type Server struct {
	service *core.Service
	health  Pinger
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, health Pinger, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		health:  health,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(s.securityHeaders)
	s.router.Use(mw.CORS(s.cfg.Security.AllowedOrigins))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			r.Use(mw.NewRateLimiter(s.cfg.Rate.RequestsPerSecond, s.cfg.Rate.Burst).Handler)
		}
		r.Use(mw.APIKeyAuth(s.cfg.Security))

		// Limiter status is process-wide and needs no team scope.
		r.Get("/import/status", s.handleImportStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.requireTeam)

			r.Post("/import", s.handleImport)
			r.Get("/aggregate", s.handleAggregate)

			r.Get("/agents", s.handleListAgents)
			r.Post("/agents", s.handleCreateAgent)
			r.Delete("/agents/{agentID}", s.handleDeleteAgent)
			r.Get("/agents/{agentID}/stats", s.handleGetStats)
			r.Put("/agents/{agentID}/stats", s.handleReplaceStats)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health != nil {
		if err := s.health.Ping(ctx); err != nil {
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleImportStatus returns the current state of the import limiter.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.LimiterStatus())
}
