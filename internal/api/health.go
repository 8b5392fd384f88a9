package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/librarian/internal/http/response"
)

// Database is the store as seen by health checks.
type Database interface {
	Ping(ctx context.Context) error
}

// CatalogCounter reports catalog sizes.
type CatalogCounter interface {
	CountBooks(ctx context.Context) (int, error)
	CountAuthors(ctx context.Context) (int, error)
}

// SearchIndex is the full-text index as seen by health checks.
type SearchIndex interface {
	DocumentCount() (uint64, error)
}

// HealthSources are the components reported by the health endpoint.
// Nil fields are reported as degraded.
type HealthSources struct {
	Database Database
	Catalog  CatalogCounter
	Search   SearchIndex
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks and catalog counts",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Books      int                        `json:"books" doc:"Number of books in the catalog"`
	Authors    int                        `json:"authors" doc:"Number of authors in the catalog"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

// handleLiveness answers as long as the process serves HTTP.
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	body := HealthResponse{
		Status:     "healthy",
		Components: make(map[string]ComponentHealth),
	}

	body.add("database", s.checkDatabase(ctx))

	catalog, books, authors := s.checkCatalog(ctx)
	body.Books, body.Authors = books, authors
	body.add("catalog", catalog)

	body.add("search", s.checkSearchIndex(books, catalog.Status == "healthy"))

	return &HealthOutput{Body: body}, nil
}

// add records a component and folds its status into the overall one.
func (h *HealthResponse) add(name string, c ComponentHealth) {
	h.Components[name] = c
	switch {
	case c.Status == "unhealthy":
		h.Status = "unhealthy"
	case c.Status == "degraded" && h.Status == "healthy":
		h.Status = "degraded"
	}
}

// checkDatabase verifies badger is accessible.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.health.Database == nil {
		return ComponentHealth{Status: "degraded", Message: "database not configured"}
	}

	start := time.Now()
	err := s.health.Database.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("Health check: database ping failed", "error", err)
		return ComponentHealth{Status: "unhealthy", Latency: latency.String(), Message: "database read failed"}
	}
	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}

func (s *Server) checkCatalog(ctx context.Context) (ComponentHealth, int, int) {
	if s.health.Catalog == nil {
		return ComponentHealth{Status: "degraded", Message: "catalog not configured"}, 0, 0
	}

	start := time.Now()
	books, err := s.health.Catalog.CountBooks(ctx)
	if err != nil {
		s.logger.Warn("Health check: counting books failed", "error", err)
		return ComponentHealth{Status: "unhealthy", Message: "counting books failed"}, 0, 0
	}
	authors, err := s.health.Catalog.CountAuthors(ctx)
	if err != nil {
		s.logger.Warn("Health check: counting authors failed", "error", err)
		return ComponentHealth{Status: "unhealthy", Message: "counting authors failed"}, books, 0
	}

	return ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}, books, authors
}

// checkSearchIndex verifies the bleve index is accessible and, when the book
// count is known, that it holds one document per book.
func (s *Server) checkSearchIndex(books int, booksKnown bool) ComponentHealth {
	if s.health.Search == nil {
		return ComponentHealth{Status: "degraded", Message: "search index not configured"}
	}

	start := time.Now()
	docCount, err := s.health.Search.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("Health check: search index unreachable", "error", err)
		return ComponentHealth{Status: "unhealthy", Latency: latency.String(), Message: "search index unreachable"}
	}

	if booksKnown && docCount != uint64(books) {
		return ComponentHealth{
			Status:  "degraded",
			Latency: latency.String(),
			Message: "index holds " + strconv.FormatUint(docCount, 10) + " of " + strconv.Itoa(books) + " books",
		}
	}

	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}
