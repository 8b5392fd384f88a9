package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/listenupapp/librarian/internal/auth"
	"github.com/listenupapp/librarian/internal/domain"
	domainerrors "github.com/listenupapp/librarian/internal/errors"
	"github.com/listenupapp/librarian/internal/id"
	"github.com/listenupapp/librarian/internal/search"
	"github.com/listenupapp/librarian/internal/store"
)

// BookView is a book together with its author's name.
type BookView struct {
	*domain.Book
	AuthorName string
}

// AuthorView is an author together with the number of books attributed to it.
type AuthorView struct {
	*domain.Author
	BookCount int
}

// BookQuery filters AllBooks. Nil fields do not filter.
type BookQuery struct {
	Author *string
	Genre  *string
}

// AddBookInput is the input of the addBook mutation.
type AddBookInput struct {
	Title     string   `json:"title" validate:"required,max=500"`
	Author    string   `json:"author" validate:"required,max=200"`
	Published int      `json:"published"`
	Genres    []string `json:"genres" validate:"max=50,dive,required,max=100"`
}

// EditAuthorInput is the input of the editAuthor mutation.
type EditAuthorInput struct {
	Name string `json:"name" validate:"required"`
	Born int    `json:"born"`
}

// CatalogService serves book and author queries and mutations.
type CatalogService struct {
	store  CatalogStore
	index  BookIndex
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store CatalogStore, index BookIndex, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// BookCount returns the number of books in the catalog.
func (s *CatalogService) BookCount(ctx context.Context) (int, error) {
	return s.store.CountBooks(ctx)
}

// AuthorCount returns the number of authors in the catalog.
func (s *CatalogService) AuthorCount(ctx context.Context) (int, error) {
	return s.store.CountAuthors(ctx)
}

// AllBooks returns books whose author has exactly the given name and whose
// genres contain the given genre. Both filters apply when both are set; an
// empty string counts as not set.
func (s *CatalogService) AllBooks(ctx context.Context, q BookQuery) ([]*BookView, error) {
	var filter store.BookFilter

	if q.Author != nil && *q.Author != "" {
		author, err := s.store.GetAuthorByName(ctx, *q.Author)
		if errors.Is(err, store.ErrNotFound) {
			return []*BookView{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("lookup author: %w", err)
		}
		filter.AuthorID = author.ID
	}
	if q.Genre != nil {
		filter.Genre = *q.Genre
	}

	books, err := s.store.ListBooks(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.withAuthorNames(ctx, books)
}

// AllAuthors returns every author with its book count.
func (s *CatalogService) AllAuthors(ctx context.Context) ([]*AuthorView, error) {
	authors, err := s.store.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*AuthorView, 0, len(authors))
	for _, a := range authors {
		view, err := s.authorView(ctx, a)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// AddBook creates a book, creating its author first if no author has that
// name yet. Requires an authenticated user in ctx.
func (s *CatalogService) AddBook(ctx context.Context, in AddBookInput) (*BookView, error) {
	if auth.UserFromContext(ctx) == nil {
		return nil, domainerrors.Unauthenticated("not authenticated")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Author = domain.NormalizeAuthorName(in.Author)
	if err := validate.Validate(in); err != nil {
		return nil, err
	}

	author, created, err := s.store.EnsureAuthor(ctx, in.Author)
	if err != nil {
		s.logger.ErrorContext(ctx, "ensure author failed", "author", in.Author, "error", err)
		return nil, domainerrors.WriteFailed("saving book failed")
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}
	book := &domain.Book{
		Record:    domain.Record{ID: bookID},
		Title:     in.Title,
		Published: in.Published,
		AuthorID:  author.ID,
		Genres:    in.Genres,
	}
	if book.Genres == nil {
		book.Genres = []string{}
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		s.logger.ErrorContext(ctx, "create book failed",
			"title", in.Title,
			"author_id", author.ID,
			"author_created", created,
			"error", err,
		)
		return nil, domainerrors.WriteFailed("saving book failed")
	}

	if err := s.index.IndexBook(search.NewBookDocument(book, author.Name)); err != nil {
		s.logger.WarnContext(ctx, "failed to index book", "book_id", book.ID, "error", err)
	}

	return &BookView{Book: book, AuthorName: author.Name}, nil
}

// EditAuthor sets the birth year of the author with exactly the given name.
// An unknown name yields (nil, nil). Requires an authenticated user in ctx.
func (s *CatalogService) EditAuthor(ctx context.Context, in EditAuthorInput) (*AuthorView, error) {
	if auth.UserFromContext(ctx) == nil {
		return nil, domainerrors.Unauthenticated("not authenticated")
	}
	in.Name = domain.NormalizeAuthorName(in.Name)
	if err := validate.Validate(in); err != nil {
		return nil, err
	}

	author, err := s.store.GetAuthorByName(ctx, in.Name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup author: %w", err)
	}

	author.SetBorn(in.Born)
	if err := s.store.UpdateAuthor(ctx, author); err != nil {
		s.logger.ErrorContext(ctx, "update author failed", "author_id", author.ID, "error", err)
		return nil, domainerrors.WriteFailed("saving author failed")
	}

	return s.authorView(ctx, author)
}

// SearchBooks runs a full-text search and returns matching books by relevance.
func (s *CatalogService) SearchBooks(ctx context.Context, text string, limit int) ([]*BookView, error) {
	if text == "" {
		return nil, domainerrors.Validation("query is required")
	}
	if limit < 0 {
		return nil, domainerrors.Validation("limit must not be negative")
	}

	hits, err := s.index.Search(ctx, text, limit)
	if err != nil {
		return nil, err
	}

	books := make([]*domain.Book, 0, len(hits))
	for _, hit := range hits {
		book, err := s.store.GetBook(ctx, hit.ID)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.DebugContext(ctx, "search hit for missing book", "book_id", hit.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return s.withAuthorNames(ctx, books)
}

// RebuildSearchIndex reindexes every book in the store.
func (s *CatalogService) RebuildSearchIndex(ctx context.Context) error {
	books, err := s.store.ListBooks(ctx, store.BookFilter{})
	if err != nil {
		return err
	}
	views, err := s.withAuthorNames(ctx, books)
	if err != nil {
		return err
	}

	docs := make([]*search.BookDocument, len(views))
	for i, v := range views {
		docs[i] = search.NewBookDocument(v.Book, v.AuthorName)
	}
	if err := s.index.Rebuild(docs); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	return nil
}

func (s *CatalogService) authorView(ctx context.Context, author *domain.Author) (*AuthorView, error) {
	count, err := s.store.CountBooksByAuthor(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("count books for %s: %w", author.ID, err)
	}
	return &AuthorView{Author: author, BookCount: count}, nil
}

// withAuthorNames resolves each book's author, loading every author once.
func (s *CatalogService) withAuthorNames(ctx context.Context, books []*domain.Book) ([]*BookView, error) {
	names := make(map[string]string)
	views := make([]*BookView, 0, len(books))

	for _, b := range books {
		name, ok := names[b.AuthorID]
		if !ok {
			author, err := s.store.GetAuthor(ctx, b.AuthorID)
			if err != nil {
				return nil, fmt.Errorf("load author %s: %w", b.AuthorID, err)
			}
			name = author.Name
			names[b.AuthorID] = name
		}
		views = append(views, &BookView{Book: b, AuthorName: name})
	}
	return views, nil
}
