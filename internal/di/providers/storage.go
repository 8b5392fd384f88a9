package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/librarian/internal/config"
	"github.com/listenupapp/librarian/internal/logger"
	"github.com/listenupapp/librarian/internal/search"
	"github.com/listenupapp/librarian/internal/store"
)

// StoreHandle closes the Badger store when the container shuts down.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// SearchIndexHandle closes the bleve index when the container shuts down.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the document store at DATABASE_PATH.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := store.New(cfg.Database.Path, log.WithField("component", "store").Logger)
	if err != nil {
		return nil, err
	}
	return &StoreHandle{Store: db}, nil
}

// ProvideSearchIndex opens the book index, in memory unless SEARCH_INDEX_PATH is set.
// Its contents are replaced by RebuildSearchIndex during bootstrap.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.New(search.Options{
		DataPath: cfg.Search.IndexPath,
		Logger:   log.WithField("component", "search").Logger,
	})
	if err != nil {
		return nil, err
	}

	location := cfg.Search.IndexPath
	if location == "" {
		location = "memory"
	}
	log.Info("Search index opened", "location", location)

	return &SearchIndexHandle{Index: index}, nil
}
