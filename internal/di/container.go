// Package di provides dependency injection configuration for the catalog server.
package di

import (
	"context"

	"github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/listenupapp/librarian/internal/auth"
	"github.com/listenupapp/librarian/internal/config"
	"github.com/listenupapp/librarian/internal/di/providers"
	"github.com/listenupapp/librarian/internal/logger"
	"github.com/listenupapp/librarian/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// The configuration is parsed from args, normally os.Args[1:].
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, providers.Args(args))
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideLoginLimiter)

	// Business services
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideAuthService)

	// Server
	do.Provide(injector, providers.ProvideGraphQLSchema)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes everything except the HTTP server.
func Bootstrap(ctx context.Context, injector do.Injector) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.LoginLimiterHandle](injector)

	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	if _, err := do.Invoke[*graphql.Schema](injector); err != nil {
		return err
	}

	return providers.RebuildSearchIndex(ctx, injector)
}

// Serve bootstraps the container and starts the HTTP server.
func Serve(ctx context.Context, injector do.Injector) error {
	if err := Bootstrap(ctx, injector); err != nil {
		return err
	}
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
