package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/listenupapp/librarian/internal/api"
	"github.com/listenupapp/librarian/internal/config"
	"github.com/listenupapp/librarian/internal/graph"
	"github.com/listenupapp/librarian/internal/logger"
	"github.com/listenupapp/librarian/internal/service"
)

// ProvideGraphQLSchema provides the executable GraphQL schema.
func ProvideGraphQLSchema(i do.Injector) (*graphql.Schema, error) {
	catalog := do.MustInvoke[*service.CatalogService](i)
	accounts := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return graph.NewSchema(graph.NewResolver(catalog, accounts, log.Logger))
}

// shutdownTimeout bounds how long in-flight requests may finish after shutdown starts.
const shutdownTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	schema := do.MustInvoke[*graphql.Schema](i)
	accounts := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	handler := api.NewServer(schema, accounts, api.HealthSources{
		Database: storeHandle.Store,
		Catalog:  storeHandle.Store,
		Search:   indexHandle.Index,
	}, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, log.Logger)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server ready", "graphql", "http://localhost"+srv.Addr+"/graphql")

	return &HTTPServerHandle{Server: srv}, nil
}
