package graph

import (
	"context"
	"log/slog"

	"github.com/listenupapp/librarian/internal/auth"
	"github.com/listenupapp/librarian/internal/domain"
	domainerrors "github.com/listenupapp/librarian/internal/errors"
	"github.com/listenupapp/librarian/internal/service"
)

// Catalog is what the resolvers need from the catalog service.
type Catalog interface {
	BookCount(ctx context.Context) (int, error)
	AuthorCount(ctx context.Context) (int, error)
	AllBooks(ctx context.Context, q service.BookQuery) ([]*service.BookView, error)
	AllAuthors(ctx context.Context) ([]*service.AuthorView, error)
	AddBook(ctx context.Context, in service.AddBookInput) (*service.BookView, error)
	EditAuthor(ctx context.Context, in service.EditAuthorInput) (*service.AuthorView, error)
	SearchBooks(ctx context.Context, text string, limit int) ([]*service.BookView, error)
}

// Accounts is what the resolvers need from the auth service.
type Accounts interface {
	CreateUser(ctx context.Context, in service.CreateUserInput) (*domain.User, error)
	Login(ctx context.Context, in service.LoginInput) (string, error)
}

// Resolver is the root resolver for both Query and Mutation.
// The viewer travels in each call's ctx; Resolver itself holds no request state.
type Resolver struct {
	catalog  Catalog
	accounts Accounts
	logger   *slog.Logger
}

// NewResolver creates the root resolver.
func NewResolver(catalog Catalog, accounts Accounts, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog:  catalog,
		accounts: accounts,
		logger:   logger,
	}
}

// fail converts err into what the client sees. Classified errors pass through
// with their code; anything else is logged and replaced by an opaque INTERNAL.
func (r *Resolver) fail(ctx context.Context, field string, err error) error {
	classified, ok := domainerrors.Classify(err)
	if !ok {
		r.logger.ErrorContext(ctx, "resolver failed", "field", field, "error", err)
	} else if classified.Cause() != nil {
		r.logger.WarnContext(ctx, "resolver error", "field", field, "code", classified.Code, "error", classified.Cause())
	}
	return classified
}

func viewer(ctx context.Context) *domain.User {
	return auth.UserFromContext(ctx)
}
