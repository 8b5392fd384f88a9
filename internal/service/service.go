// Package service implements the catalog's queries and mutations on top of
// the store, the search index and the token service.
package service

import (
	"context"

	"github.com/listenupapp/librarian/internal/domain"
	"github.com/listenupapp/librarian/internal/search"
	"github.com/listenupapp/librarian/internal/store"
	"github.com/listenupapp/librarian/internal/validation"
)

// CatalogStore is the persistence CatalogService needs.
type CatalogStore interface {
	CountBooks(ctx context.Context) (int, error)
	CountAuthors(ctx context.Context) (int, error)
	ListBooks(ctx context.Context, filter store.BookFilter) ([]*domain.Book, error)
	ListAuthors(ctx context.Context) ([]*domain.Author, error)
	GetBook(ctx context.Context, bookID string) (*domain.Book, error)
	GetAuthor(ctx context.Context, authorID string) (*domain.Author, error)
	GetAuthorByName(ctx context.Context, name string) (*domain.Author, error)
	EnsureAuthor(ctx context.Context, name string) (*domain.Author, bool, error)
	UpdateAuthor(ctx context.Context, author *domain.Author) error
	CreateBook(ctx context.Context, book *domain.Book) error
	CountBooksByAuthor(ctx context.Context, authorID string) (int, error)
}

// UserStore is the persistence AuthService needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// BookIndex is the full-text index over books.
type BookIndex interface {
	IndexBook(doc *search.BookDocument) error
	Rebuild(docs []*search.BookDocument) error
	Search(ctx context.Context, text string, limit int) ([]search.Hit, error)
}

var validate = validation.New()
