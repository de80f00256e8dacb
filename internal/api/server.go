// Package api provides the HTTP API server and handlers for the Inkwell application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/sync"
)

const apiVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	store   store.Store
	books   *service.BookService
	shelves *service.ShelfService
	engine  *sync.Engine
	watcher *sync.Watcher
	router  *chi.Mux
	api     huma.API
	logger  *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// The watcher may be nil when file watching is disabled.
func NewServer(name string, st store.Store, books *service.BookService, shelves *service.ShelfService, engine *sync.Engine, watcher *sync.Watcher, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:   st,
		books:   books,
		shelves: shelves,
		engine:  engine,
		watcher: watcher,
		router:  router,
		logger:  logger,
	}

	s.setupMiddleware()

	RegisterErrorHandler()
	s.api = humachi.New(router, huma.DefaultConfig(name, apiVersion))
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// registerRoutes registers all API routes.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerShelfRoutes()
	s.registerSyncRoutes()
}
