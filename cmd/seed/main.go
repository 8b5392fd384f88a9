// Package main loads the demo catalog into the document store.
//
// Running it twice leaves the catalog unchanged: authors are upserted by name
// and books carry fixed IDs.
//
// Usage:
//
//	DATABASE_PATH=./data/db go run ./cmd/seed
//	go run ./cmd/seed --db-path ./data/db --user demo@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/listenupapp/librarian/internal/auth"
	"github.com/listenupapp/librarian/internal/domain"
	"github.com/listenupapp/librarian/internal/id"
	"github.com/listenupapp/librarian/internal/store"
)

var (
	dbPath   = flag.String("db-path", "", "Path to the document store (default: $DATABASE_PATH)")
	userMail = flag.String("user", "", "Also create a demo user with this email")
	password = flag.String("password", "secret", "Password for the demo user")
)

type seedAuthor struct {
	name string
	born int // 0 when unknown
}

type seedBook struct {
	id        string
	title     string
	published int
	author    string
	genres    []string
}

var authors = []seedAuthor{
	{name: "Robert Martin", born: 1952},
	{name: "Martin Fowler", born: 1963},
	{name: "Fyodor Dostoevsky", born: 1821},
	{name: "Joshua Kerievsky"},
	{name: "Sandi Metz"},
}

var books = []seedBook{
	{"afa5b6f4-344d-11e9-a414-719c6709cf3e", "Clean Code", 2008, "Robert Martin", []string{"refactoring"}},
	{"afa5b6f5-344d-11e9-a414-719c6709cf3e", "Agile software development", 2002, "Robert Martin", []string{"agile", "patterns", "design"}},
	{"afa5de00-344d-11e9-a414-719c6709cf3e", "Refactoring, edition 2", 2018, "Martin Fowler", []string{"refactoring"}},
	{"afa5de01-344d-11e9-a414-719c6709cf3e", "Refactoring to patterns", 2008, "Joshua Kerievsky", []string{"refactoring", "patterns"}},
	{"afa5de02-344d-11e9-a414-719c6709cf3e", "Practical Object-Oriented Design, An Agile Primer Using Ruby", 2012, "Sandi Metz", []string{"refactoring", "design"}},
	{"afa5de03-344d-11e9-a414-719c6709cf3e", "Crime and punishment", 1866, "Fyodor Dostoevsky", []string{"classic", "crime"}},
	{"afa5de04-344d-11e9-a414-719c6709cf3e", "Demons", 1872, "Fyodor Dostoevsky", []string{"classic", "revolution"}},
}

func main() {
	flag.Parse()

	path := *dbPath
	if path == "" {
		path = os.Getenv("DATABASE_PATH")
	}
	if path == "" {
		log.Fatal("No database path: pass --db-path or set DATABASE_PATH")
	}

	fmt.Printf("Opening database at: %s\n", path)

	s, err := store.New(path, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	authorIDs, err := seedAuthors(ctx, s)
	if err != nil {
		log.Fatalf("Failed to seed authors: %v", err)
	}

	created, err := seedBooks(ctx, s, authorIDs)
	if err != nil {
		log.Fatalf("Failed to seed books: %v", err)
	}
	fmt.Printf("Books: %d created, %d already present\n", created, len(books)-created)

	if *userMail != "" {
		if err := seedUser(ctx, s, *userMail, *password); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
	}

	fmt.Println("Done. Restart the server to rebuild the search index.")
}

func seedAuthors(ctx context.Context, s *store.Store) (map[string]string, error) {
	ids := make(map[string]string, len(authors))

	for _, a := range authors {
		author, created, err := s.EnsureAuthor(ctx, a.name)
		if err != nil {
			return nil, err
		}
		ids[author.Name] = author.ID

		if a.born != 0 && author.Born == nil {
			author.SetBorn(a.born)
			if err := s.UpdateAuthor(ctx, author); err != nil {
				return nil, fmt.Errorf("set born for %s: %w", a.name, err)
			}
		}

		status := "exists"
		if created {
			status = "created"
		}
		fmt.Printf("  Author %-20s %s\n", a.name, status)
	}

	return ids, nil
}

func seedBooks(ctx context.Context, s *store.Store, authorIDs map[string]string) (int, error) {
	created := 0

	for _, b := range books {
		book := &domain.Book{
			Record:    domain.Record{ID: id.PrefixBook + "-" + uuid.MustParse(b.id).String()},
			Title:     b.title,
			Published: b.published,
			AuthorID:  authorIDs[b.author],
			Genres:    b.genres,
		}
		book.InitTimestamps()

		err := s.CreateBook(ctx, book)
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("%s: %w", b.title, err)
		}
		created++
	}

	return created, nil
}

func seedUser(ctx context.Context, s *store.Store, email, pw string) error {
	hash, err := auth.HashPassword(pw)
	if err != nil {
		return err
	}

	user := &domain.User{
		Record:       domain.Record{ID: id.MustGenerate(id.PrefixUser)},
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
	}
	user.InitTimestamps()

	err = s.CreateUser(ctx, user)
	if errors.Is(err, store.ErrEmailExists) {
		fmt.Printf("User %s already exists\n", email)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("User %s created\n", email)
	return nil
}
