// Package api provides the HTTP API server and handlers for the recipes server.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/recipes-server/internal/http/response"
	"github.com/listenupapp/recipes-server/internal/logger"
	"github.com/listenupapp/recipes-server/internal/ratelimit"
	"github.com/listenupapp/recipes-server/internal/store"
)

// APIVersion is reported in the OpenAPI document.
const APIVersion = "1.0.0"

// Options configures the HTTP surface.
type Options struct {
	Name               string
	CORSAllowedOrigins []string
	// AuthRateLimit is the number of requests per minute allowed per client
	// on the public registration and token routes.
	AuthRateLimit int
	AuthRateBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	storage         *StorageServices
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, storage *StorageServices, opts Options, log *logger.Logger) *Server {
	if opts.Name == "" {
		opts.Name = "Recipes API"
	}
	if opts.AuthRateLimit <= 0 {
		opts.AuthRateLimit = 20
	}
	if opts.AuthRateBurst <= 0 {
		opts.AuthRateBurst = 10
	}

	s := &Server{
		store:           st,
		services:        services,
		storage:         storage,
		router:          chi.NewRouter(),
		logger:          log.Logger,
		authRateLimiter: NewRateLimiter(opts.AuthRateLimit, time.Minute, opts.AuthRateBurst),
	}

	// chi requires middleware before the first route, and humachi registers
	// the OpenAPI and docs routes as soon as it is created.
	s.setupMiddleware(opts, log)

	humaConfig := huma.DefaultConfig(opts.Name, APIVersion)
	humaConfig.Info.Description = "Manage recipes, tags and ingredients."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	// Drop the $schema link so every body is the bare envelope.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(s.logger)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API for tests and tooling.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options, log *logger.Logger) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(log.Middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	if len(opts.CORSAllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, "method \""+r.Method+"\" not allowed", s.logger)
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerTagRoutes()
	s.registerIngredientRoutes()
	s.registerRecipeRoutes()
	s.registerAdminRoutes()

	// Multipart upload and raw file serving bypass huma's JSON codec.
	s.router.Post("/api/v1/recipes/{id}/image", s.handleUploadRecipeImage)
	s.router.Get(MediaPathPrefix+"{file}", s.handleServeRecipeImage)
}
