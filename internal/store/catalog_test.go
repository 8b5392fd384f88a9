package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/librarian/internal/domain"
	"github.com/listenupapp/librarian/internal/id"
	"github.com/listenupapp/librarian/internal/store"
)

func addBook(t *testing.T, s *store.Store, title, authorID string, genres ...string) *domain.Book {
	t.Helper()

	book := &domain.Book{
		Record:    domain.Record{ID: id.MustGenerate(id.PrefixBook)},
		Title:     title,
		Published: 2000,
		AuthorID:  authorID,
		Genres:    genres,
	}
	book.InitTimestamps()
	require.NoError(t, s.CreateBook(context.Background(), book))
	return book
}

func TestEnsureAuthor_CreatesOnce(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, created, err := s.EnsureAuthor(ctx, "Sandi Metz")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Sandi Metz", first.Name)
	assert.Nil(t, first.Born)

	again, created, err := s.EnsureAuthor(ctx, "  Sandi Metz ")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	count, err := s.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEnsureAuthor_BlankName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		author, created, err := s.EnsureAuthor(ctx, name)
		assert.ErrorIs(t, err, store.ErrAuthorName)
		assert.ErrorIs(t, err, store.ErrInvalid)
		assert.Nil(t, author)
		assert.False(t, created)
	}

	err := s.CreateAuthor(ctx, domain.NewAuthor("author-blank", " "))
	assert.ErrorIs(t, err, store.ErrAuthorName)

	count, err := s.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEnsureAuthor_Concurrent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = make(map[string]bool)
		creates int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			author, created, err := s.EnsureAuthor(ctx, "Joshua Kerievsky")
			assert.NoError(t, err)
			if author == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[author.ID] = true
			if created {
				creates++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, creates)

	count, err := s.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateAuthor_DuplicateName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAuthor(ctx, domain.NewAuthor(id.MustGenerate(id.PrefixAuthor), "Martin Fowler")))

	err := s.CreateAuthor(ctx, domain.NewAuthor(id.MustGenerate(id.PrefixAuthor), "Martin Fowler"))
	assert.ErrorIs(t, err, store.ErrAuthorExists)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUpdateAuthor_SetsBorn(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	author, _, err := s.EnsureAuthor(ctx, "Robert Martin")
	require.NoError(t, err)

	author.SetBorn(1952)
	require.NoError(t, s.UpdateAuthor(ctx, author))

	got, err := s.GetAuthorByName(ctx, "Robert Martin")
	require.NoError(t, err)
	require.NotNil(t, got.Born)
	assert.Equal(t, 1952, *got.Born)
}

func TestListAuthors_CreationOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	names := []string{"Robert Martin", "Martin Fowler", "Fyodor Dostoevsky"}
	for _, name := range names {
		_, _, err := s.EnsureAuthor(ctx, name)
		require.NoError(t, err)
	}

	authors, err := s.ListAuthors(ctx)
	require.NoError(t, err)
	require.Len(t, authors, 3)
	for i, a := range authors {
		assert.Equal(t, names[i], a.Name)
	}
}

func TestCreateBook_RequiresAuthor(t *testing.T) {
	s := setupTestStore(t)

	book := &domain.Book{
		Record:   domain.Record{ID: id.MustGenerate(id.PrefixBook)},
		Title:    "Orphan",
		AuthorID: "author-missing",
	}
	err := s.CreateBook(context.Background(), book)
	assert.ErrorIs(t, err, store.ErrNotFound)

	count, err := s.CountBooks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListBooks_Filters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	martin, _, err := s.EnsureAuthor(ctx, "Robert Martin")
	require.NoError(t, err)
	fyodor, _, err := s.EnsureAuthor(ctx, "Fyodor Dostoevsky")
	require.NoError(t, err)

	addBook(t, s, "Clean Code", martin.ID, "refactoring")
	addBook(t, s, "Agile software development", martin.ID, "agile", "patterns", "design")
	addBook(t, s, "Crime and punishment", fyodor.ID, "classic", "crime")
	addBook(t, s, "Demons", fyodor.ID, "classic", "revolution")

	tests := []struct {
		name   string
		filter store.BookFilter
		want   []string
	}{
		{"all", store.BookFilter{}, []string{"Clean Code", "Agile software development", "Crime and punishment", "Demons"}},
		{"by author", store.BookFilter{AuthorID: martin.ID}, []string{"Clean Code", "Agile software development"}},
		{"by genre", store.BookFilter{Genre: "classic"}, []string{"Crime and punishment", "Demons"}},
		{"author and genre", store.BookFilter{AuthorID: fyodor.ID, Genre: "crime"}, []string{"Crime and punishment"}},
		{"no overlap", store.BookFilter{AuthorID: martin.ID, Genre: "classic"}, nil},
		{"unknown genre", store.BookFilter{Genre: "poetry"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := s.ListBooks(ctx, tt.filter)
			require.NoError(t, err)

			var titles []string
			for _, b := range books {
				titles = append(titles, b.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestCountBooksByAuthor(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	metz, _, err := s.EnsureAuthor(ctx, "Sandi Metz")
	require.NoError(t, err)
	kerievsky, _, err := s.EnsureAuthor(ctx, "Joshua Kerievsky")
	require.NoError(t, err)
	addBook(t, s, "Practical Object-Oriented Design, An Agile Primer Using Ruby", metz.ID, "refactoring", "design")

	n, err := s.CountBooksByAuthor(ctx, metz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.CountBooksByAuthor(ctx, kerievsky.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
