package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/mdpage/internal/config"
	"github.com/dgallion1/mdpage/internal/pipeline"
)

// Server is the HTTP API for mdpage. It starts workspace exports, reports
// their progress and serves the exported pages.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	stats        *pipeline.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. Pages are served from
// cfg.OutDir, or cfg.Root when no output directory is set.
func NewServer(orch *pipeline.Orchestrator, stats *pipeline.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/export", s.handleExport)
		r.Get("/export/{runID}", s.handleExportStatus)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/stats", s.handleStats)
	})

	r.Handle("/*", s.siteHandler())

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// siteHandler serves the exported pages.
func (s *Server) siteHandler() http.Handler {
	dir := s.cfg.OutDir
	if dir == "" {
		dir = s.cfg.Root
	}
	if dir == "" {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.Dir(dir))
}
