// Package web exposes catalog import, export and backup over HTTP.
package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/config"
	"github.com/JonMunkholm/partscatalog/internal/importer"
	weblog "github.com/JonMunkholm/partscatalog/internal/web/middleware"
)

// Importer runs a catalog import.
type Importer interface {
	Import(ctx context.Context, entity catalog.Entity, src importer.Source, opts importer.Options) (catalog.ImportStats, error)
}

// Exporter streams a catalog table as CSV.
type Exporter interface {
	Export(ctx context.Context, entity catalog.Entity, f catalog.ExportFilter, w io.Writer) (int, error)
}

// Backups creates and lists snapshots.
type Backups interface {
	Snapshot(ctx context.Context, entity catalog.Entity) (catalog.BackupArtifact, error)
	List(ctx context.Context) ([]catalog.BackupArtifact, error)
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Queue reports import slot usage.
type Queue interface {
	Status() importer.LimiterStatus
}

// Deps are the services behind the handlers. Runs, Health and Queue may
// be nil.
type Deps struct {
	Importer Importer
	Exporter Exporter
	Backups  Backups
	Runs     catalog.RunRecorder
	Health   Pinger
	Queue    Queue
}

// Server is the HTTP server for the catalog pipeline.
type Server struct {
	deps   Deps
	cfg    *config.Config
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server with its middleware and routes.
func NewServer(deps Deps, cfg *config.Config) *Server {
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(weblog.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Imports and exports of a large catalog outlive the request
		// timeout; imports carry their own deadline.
		r.Post("/import/{entity}", s.handleImport)
		r.Get("/export/{entity}", s.handleExport)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
			r.Get("/imports", s.handleListImports)
			r.Get("/imports/status", s.handleImportQueueStatus)
			r.Get("/backups", s.handleListBackups)
			r.Post("/backups/{entity}", s.handleCreateBackup)
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

	slog.Info("starting server", "addr", s.server.Addr)
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

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
