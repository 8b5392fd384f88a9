package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/librarian/internal/auth"
	"github.com/listenupapp/librarian/internal/config"
	"github.com/listenupapp/librarian/internal/logger"
	"github.com/listenupapp/librarian/internal/service"
)

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, indexHandle.Index, log.Logger), nil
}

// ProvideAuthService provides the signup and login service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	limiter := do.MustInvoke[*LoginLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(
		storeHandle.Store,
		tokens,
		limiter.KeyedRateLimiter,
		cfg.Auth.DefaultPassword,
		log.Logger,
	), nil
}

// RebuildSearchIndex repopulates the index from the store.
// Call it once every service is wired and before the server accepts requests.
func RebuildSearchIndex(ctx context.Context, i do.Injector) error {
	catalog := do.MustInvoke[*service.CatalogService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	start := time.Now()
	if err := catalog.RebuildSearchIndex(ctx); err != nil {
		return err
	}

	count, _ := indexHandle.DocumentCount()
	log.Info("Search index rebuilt", "documents", count, "took", time.Since(start))
	return nil
}
