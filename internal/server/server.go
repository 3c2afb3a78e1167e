// Package server exposes the case library over HTTP. Each browser gets a
// viewer identified by a cookie; page events arrive over a websocket or
// as JSON posts and are answered with the re-rendered page parts.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/config"
	"github.com/ziadkadry99/caseshelf/internal/db"
	"github.com/ziadkadry99/caseshelf/internal/shell"
)

// Config holds server configuration.
type Config struct {
	Port      int
	AllowAll  bool   // allow all CORS origins (dev mode)
	AssetsDir string // content root served as static files; empty disables

	// Assets are doublestar patterns naming the servable files under
	// AssetsDir; empty means config.DefaultAssets.
	Assets  []string
	Exclude []string
	// DenyDirs are never served even when a pattern matches inside them.
	// The data directory belongs here.
	DenyDirs []string

	// MaxViewers caps the live viewers; MaxIdle evicts viewers unused for
	// that long. Zero picks the defaults.
	MaxViewers int
	MaxIdle    time.Duration
}

// Server is the case library HTTP server.
type Server struct {
	cfg        Config
	db         *db.DB
	viewers    *Registry
	log        *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server for session. Viewer ids and bookmarks are kept in
// database.
func New(cfg Config, database *db.DB, session *shell.Session, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		db:      database,
		log:     logger.Named("server"),
		viewers: NewRegistry(database, session, logger),
	}
	s.viewers.MaxViewers = cfg.MaxViewers
	s.viewers.MaxIdle = cfg.MaxIdle
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)

	// The websocket lives outside the timeout middleware.
	r.With(s.viewerCookie).Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(s.viewerCookie)

		r.Get("/", s.handleIndex)
		r.Get("/c/{id}", s.handleCase)
		r.Post("/api/events", s.handleEvent)
		r.Get("/api/search", s.handleSearch)
		r.Get("/api/bookmarks", s.handleBookmarks)
	})

	if s.cfg.AssetsDir != "" {
		if info, err := os.Stat(s.cfg.AssetsDir); err == nil && info.IsDir() {
			patterns := s.cfg.Assets
			if len(patterns) == 0 {
				patterns = config.DefaultAssets
			}
			r.Handle("/*", newAssetHandler(s.cfg.AssetsDir, patterns, s.cfg.Exclude, s.cfg.DenyDirs, s.log))
		}
	}

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Viewers returns the viewer registry.
func (s *Server) Viewers() *Registry { return s.viewers }

// SetSession replaces the shared session, e.g. after a manifest reload.
func (s *Server) SetSession(session *shell.Session) { s.viewers.SetSession(session) }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("caseshelf listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
