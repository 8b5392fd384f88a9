package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/librarian/internal/domain"
	"github.com/listenupapp/librarian/internal/id"
)

// BookFilter narrows ListBooks. Empty fields do not filter; set fields combine with AND.
type BookFilter struct {
	AuthorID string
	Genre    string
}

// Author Operations

// CreateAuthor stores a new author. Returns ErrAuthorExists if the name is
// taken and ErrAuthorName if it is blank.
func (s *Store) CreateAuthor(ctx context.Context, author *domain.Author) error {
	if domain.NormalizeAuthorName(author.Name) == "" {
		return ErrAuthorName
	}
	err := s.Authors.Create(ctx, author.ID, author)
	if errors.Is(err, ErrAlreadyExists) {
		return ErrAuthorExists
	}
	if err != nil {
		return fmt.Errorf("create author: %w", err)
	}
	return nil
}

// GetAuthor retrieves an author by ID.
func (s *Store) GetAuthor(ctx context.Context, authorID string) (*domain.Author, error) {
	return s.Authors.Get(ctx, authorID)
}

// GetAuthorByName looks an author up by exact name.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	return s.Authors.GetByIndex(ctx, "name", name)
}

// UpdateAuthor persists changes to an existing author.
func (s *Store) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	author.Touch()
	if err := s.Authors.Update(ctx, author.ID, author); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return ErrAuthorExists
		}
		return fmt.Errorf("update author: %w", err)
	}
	return nil
}

// ListAuthors returns all authors in creation order.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors, err := s.Authors.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	slices.SortFunc(authors, func(a, b *domain.Author) int {
		return byCreation(a.Record, b.Record)
	})
	return authors, nil
}

// CountAuthors returns the number of stored authors.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	return s.Authors.Count(ctx)
}

// EnsureAuthor returns the author called name, creating it if needed. The
// lookup and the insert share one transaction, so concurrent callers with the
// same name conflict and get replayed; exactly one of them creates the record.
// The boolean reports whether this call created it.
func (s *Store) EnsureAuthor(ctx context.Context, name string) (*domain.Author, bool, error) {
	name = domain.NormalizeAuthorName(name)
	if name == "" {
		return nil, false, ErrAuthorName
	}

	var (
		author  *domain.Author
		created bool
	)
	err := s.update(ctx, func(txn *badger.Txn) error {
		created = false

		existing, err := s.Authors.getByIndex(txn, "name", name)
		if err == nil {
			author = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		authorID, err := id.Generate(id.PrefixAuthor)
		if err != nil {
			return err
		}
		author = domain.NewAuthor(authorID, name)
		if err := s.Authors.create(txn, author.ID, author); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("ensure author: %w", err)
	}

	if created && s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "author created",
			slog.String("id", author.ID),
			slog.String("name", author.Name),
		)
	}
	return author, created, nil
}

// Book Operations

// CreateBook stores a new book. The author must already exist.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, err := s.Authors.get(txn, book.AuthorID); err != nil {
			return fmt.Errorf("author %s: %w", book.AuthorID, err)
		}
		return s.Books.create(txn, book.ID, book)
	})
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("author_id", book.AuthorID),
		)
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.Books.Get(ctx, bookID)
}

// ListBooks returns books matching filter in creation order.
func (s *Store) ListBooks(ctx context.Context, filter BookFilter) ([]*domain.Book, error) {
	var (
		books []*domain.Book
		err   error
	)
	switch {
	case filter.AuthorID != "":
		books, err = s.Books.ListByIndex(ctx, "author", filter.AuthorID)
		if err == nil && filter.Genre != "" {
			books = slices.DeleteFunc(books, func(b *domain.Book) bool {
				return !b.HasGenre(filter.Genre)
			})
		}
	case filter.Genre != "":
		books, err = s.Books.ListByIndex(ctx, "genre", filter.Genre)
	default:
		books, err = s.Books.Collect(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	slices.SortFunc(books, func(a, b *domain.Book) int {
		return byCreation(a.Record, b.Record)
	})
	return books, nil
}

// CountBooks returns the number of stored books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.Books.Count(ctx)
}

// CountBooksByAuthor returns how many books reference authorID.
func (s *Store) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	return s.Books.CountByIndex(ctx, "author", authorID)
}

func byCreation(a, b domain.Record) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
