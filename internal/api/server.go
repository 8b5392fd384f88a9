// Package api provides the HTTP server for the catalog: the GraphQL endpoint,
// the auth context builder and health checks.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/graph-gophers/graphql-go"

	"github.com/listenupapp/librarian/internal/domain"
	applog "github.com/listenupapp/librarian/internal/logger"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Options configures the HTTP surface.
type Options struct {
	// AllowedOrigins lists CORS origins for the browser client.
	AllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	schema *graphql.Schema
	auth   Authenticator
	health HealthSources
	router *chi.Mux
	api    huma.API
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(schema *graphql.Schema, authenticator Authenticator, health HealthSources, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		schema: schema,
		auth:   authenticator,
		health: health,
		router: router,
		logger: logger,
	}

	s.setupMiddleware(opts)

	s.api = humachi.New(router, huma.DefaultConfig("Librarian API", Version))

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleLiveness)
	s.registerHealthRoutes()

	s.router.Get("/graphql", s.handlePlayground)
	s.router.With(s.withViewer).Post("/graphql", s.handleGraphQL)
}

// requestLogger logs one line per request and tags the request context with
// its ID, so records logged further down carry it too.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := applog.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.InfoContext(ctx, "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
