// Package server provides the HTTP API for motifscan.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/motifscan/internal/config"
	"github.com/hyperjump/motifscan/internal/curated"
	"github.com/hyperjump/motifscan/internal/scanner"
	"github.com/hyperjump/motifscan/internal/storage"
	"go.uber.org/zap"
)

const (
	requestTimeout = 60 * time.Second
	// maxBodyBytes bounds uploaded FASTA text.
	maxBodyBytes = 64 << 20
)

// WatchService is the subset of the directory watcher the API manages.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Deps are the components the server exposes. Curated and Watch may be nil.
type Deps struct {
	Service *scanner.Service
	Storage storage.Storage
	Curated *curated.Index
	Watch   WatchService
	Config  *config.Config
	// ConfigPath, when set, is where watch directory changes are persisted.
	ConfigPath string
	Logger     *zap.Logger
}

// Server is the HTTP server for the motifscan API.
type Server struct {
	service    *scanner.Service
	storage    storage.Storage
	curated    *curated.Index
	watch      WatchService
	cfg        *config.Config
	configPath string
	cfgMu      sync.Mutex
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		service:    d.Service,
		storage:    d.Storage,
		curated:    d.Curated,
		watch:      d.Watch,
		cfg:        cfg,
		configPath: d.ConfigPath,
		logger:     logger,
	}
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Route("/scans", func(r chi.Router) {
			r.Post("/", s.handleCreateScan)
			r.Get("/", s.handleListScans)
			r.Get("/{id}", s.handleGetScan)
			r.Delete("/{id}", s.handleDeleteScan)
		})

		r.Get("/curated", s.handleCurated)
		r.Get("/curated/search", s.handleCuratedSearch)

		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
