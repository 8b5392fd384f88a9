package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/librarian/internal/auth"
	"github.com/listenupapp/librarian/internal/domain"
	"github.com/listenupapp/librarian/internal/ratelimit"
	"github.com/listenupapp/librarian/internal/search"
	"github.com/listenupapp/librarian/internal/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	store   *store.Store
	index   *search.Index
	tokens  *auth.TokenService
	catalog *CatalogService
	auth    *AuthService
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.New(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	limiter := ratelimit.PerMinute(5)
	t.Cleanup(limiter.Stop)

	return &testEnv{
		store:   s,
		index:   index,
		tokens:  tokens,
		catalog: NewCatalogService(s, index, logger),
		auth:    NewAuthService(s, tokens, limiter, "secret", logger),
	}
}

func asViewerUser() *domain.User {
	return &domain.User{
		Record: domain.Record{ID: "user-test"},
		Email:  "viewer@example.com",
	}
}

// asViewer returns a context carrying a signed-in user.
func asViewer() context.Context {
	return auth.WithUser(context.Background(), asViewerUser())
}

func ptr[T any](v T) *T { return &v }
