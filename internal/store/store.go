// Package store persists catalog records as JSON documents in Badger.
//
// Each record kind lives under its own key prefix (a "collection"). Secondary
// indexes are plain keys under <prefix>idx: maintained in the same transaction
// as the document they point at.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/librarian/internal/domain"
)

const (
	authorPrefix = "author:"
	bookPrefix   = "book:"
	userPrefix   = "user:"

	// maxTxnRetries bounds how often a write is replayed after badger reports
	// a conflicting concurrent transaction.
	maxTxnRetries = 10
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Authors *Entity[domain.Author]
	Books   *Entity[domain.Book]
	Users   *Entity[domain.User]
}

// New opens (or creates) the document store at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}
	s.initAuthors()
	s.initBooks()
	s.initUsers()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping checks the database can serve a read transaction.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("database is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// update runs fn in a read-write transaction, replaying it when badger
// detects a conflict with a concurrent transaction. fn must be idempotent.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}

		if s.logger != nil {
			s.logger.Debug("transaction conflict, retrying", "attempt", attempt+1)
		}
		time.Sleep(time.Duration(attempt+1) * time.Millisecond)
	}
	return fmt.Errorf("transaction retries exhausted: %w", err)
}

// initAuthors indexes authors by exact (trimmed) name. The index is unique,
// which is what makes the name usable as a lookup key.
func (s *Store) initAuthors() {
	s.Authors = NewEntity[domain.Author](s, authorPrefix).
		WithIndexTransform("name",
			func(a *domain.Author) []string {
				return []string{domain.NormalizeAuthorName(a.Name)}
			},
			domain.NormalizeAuthorName,
		)
}

// initBooks indexes books by author and by genre. Both are many-to-one.
func (s *Store) initBooks() {
	s.Books = NewEntity[domain.Book](s, bookPrefix).
		WithMultiIndex("author", func(b *domain.Book) []string {
			return []string{b.AuthorID}
		}).
		WithMultiIndex("genre", func(b *domain.Book) []string {
			return b.Genres
		})
}

// initUsers uses case-insensitive email indexing via normalizeEmail.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, userPrefix).
		WithIndexTransform("email",
			func(u *domain.User) []string {
				return []string{normalizeEmail(u.Email)}
			},
			normalizeEmail,
		)
}
