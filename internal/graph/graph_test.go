package graph

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/librarian/internal/auth"
	"github.com/listenupapp/librarian/internal/domain"
	"github.com/listenupapp/librarian/internal/ratelimit"
	"github.com/listenupapp/librarian/internal/search"
	"github.com/listenupapp/librarian/internal/service"
	"github.com/listenupapp/librarian/internal/store"
)

type graphEnv struct {
	schema *graphql.Schema
	tokens *auth.TokenService
}

func setupSchema(t *testing.T) *graphEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.New(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokens, err := auth.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	limiter := ratelimit.PerMinute(100)
	t.Cleanup(limiter.Stop)

	catalog := service.NewCatalogService(s, index, logger)
	accounts := service.NewAuthService(s, tokens, limiter, "secret", logger)

	schema, err := NewSchema(NewResolver(catalog, accounts, logger))
	require.NoError(t, err)

	return &graphEnv{schema: schema, tokens: tokens}
}

type gqlError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions"`
}

// exec runs an operation and decodes its data into out. It returns the
// errors re-encoded the way a client would receive them.
func (e *graphEnv) exec(t *testing.T, ctx context.Context, query string, vars map[string]any, out any) []gqlError {
	t.Helper()

	// Round-trip variables through JSON so they arrive typed as from a client.
	var decoded map[string]any
	if vars != nil {
		b, err := json.Marshal(vars)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(b, &decoded))
	}

	resp := e.schema.Exec(ctx, query, "", decoded)

	raw, err := json.Marshal(resp.Errors)
	require.NoError(t, err)
	var errs []gqlError
	require.NoError(t, json.Unmarshal(raw, &errs))

	if out != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return errs
}

func signedIn() context.Context {
	return auth.WithUser(context.Background(), &domain.User{
		Record: domain.Record{ID: "user-test"},
		Email:  "viewer@example.com",
	})
}

const addBookMutation = `
mutation Add($title: String!, $author: String!, $published: Int!, $genres: [String!]) {
  addBook(title: $title, author: $author, published: $published, genres: $genres) {
    id title published author genres
  }
}`

func (e *graphEnv) addBook(t *testing.T, title, author string, published int, genres ...string) {
	t.Helper()

	vars := map[string]any{"title": title, "author": author, "published": published, "genres": genres}
	errs := e.exec(t, signedIn(), addBookMutation, vars, nil)
	require.Empty(t, errs)
}

func (e *graphEnv) seed(t *testing.T) {
	t.Helper()

	e.addBook(t, "Clean Code", "Robert Martin", 2008, "refactoring")
	e.addBook(t, "Agile software development", "Robert Martin", 2002, "agile", "patterns", "design")
	e.addBook(t, "Refactoring, edition 2", "Martin Fowler", 2018, "refactoring")
	e.addBook(t, "Crime and punishment", "Fyodor Dostoevsky", 1866, "classic", "crime")
	e.addBook(t, "Demons", "Fyodor Dostoevsky", 1872, "classic", "revolution")
}

func TestNewSchema(t *testing.T) {
	env := setupSchema(t)
	assert.NotNil(t, env.schema)
}

func TestQuery_Counts(t *testing.T) {
	env := setupSchema(t)
	env.seed(t)

	var data struct {
		BookCount   int `json:"bookCount"`
		AuthorCount int `json:"authorCount"`
	}
	errs := env.exec(t, context.Background(), `{ bookCount authorCount }`, nil, &data)
	require.Empty(t, errs)
	assert.Equal(t, 5, data.BookCount)
	assert.Equal(t, 3, data.AuthorCount)
}

func TestQuery_AllBooksFilters(t *testing.T) {
	env := setupSchema(t)
	env.seed(t)

	type book struct {
		Title  string   `json:"title"`
		Author string   `json:"author"`
		Genres []string `json:"genres"`
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", `{ allBooks { title author genres } }`, []string{"Clean Code", "Agile software development", "Refactoring, edition 2", "Crime and punishment", "Demons"}},
		{"author", `{ allBooks(author: "Fyodor Dostoevsky") { title author genres } }`, []string{"Crime and punishment", "Demons"}},
		{"genre", `{ allBooks(genre: "refactoring") { title author genres } }`, []string{"Clean Code", "Refactoring, edition 2"}},
		{"both", `{ allBooks(author: "Robert Martin", genre: "design") { title author genres } }`, []string{"Agile software development"}},
		{"unknown author", `{ allBooks(author: "Nobody") { title author genres } }`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data struct {
				AllBooks []book `json:"allBooks"`
			}
			errs := env.exec(t, context.Background(), tt.query, nil, &data)
			require.Empty(t, errs)

			got := make([]string, len(data.AllBooks))
			for i, b := range data.AllBooks {
				got[i] = b.Title
				assert.NotEmpty(t, b.Author)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_AllAuthors(t *testing.T) {
	env := setupSchema(t)
	env.seed(t)

	var data struct {
		AllAuthors []struct {
			Name      string `json:"name"`
			Born      *int   `json:"born"`
			BookCount int    `json:"bookCount"`
		} `json:"allAuthors"`
	}
	errs := env.exec(t, context.Background(), `{ allAuthors { name born bookCount } }`, nil, &data)
	require.Empty(t, errs)
	require.Len(t, data.AllAuthors, 3)

	assert.Equal(t, "Robert Martin", data.AllAuthors[0].Name)
	assert.Equal(t, 2, data.AllAuthors[0].BookCount)
	assert.Nil(t, data.AllAuthors[0].Born)
	assert.Equal(t, 1, data.AllAuthors[1].BookCount)
	assert.Equal(t, 2, data.AllAuthors[2].BookCount)
}

func TestQuery_Me(t *testing.T) {
	env := setupSchema(t)

	var data struct {
		Me *struct {
			Email string `json:"email"`
		} `json:"me"`
	}
	errs := env.exec(t, context.Background(), `{ me { email } }`, nil, &data)
	require.Empty(t, errs)
	assert.Nil(t, data.Me)

	errs = env.exec(t, signedIn(), `{ me { email } }`, nil, &data)
	require.Empty(t, errs)
	require.NotNil(t, data.Me)
	assert.Equal(t, "viewer@example.com", data.Me.Email)
}

func TestMutation_AddBookUnauthenticated(t *testing.T) {
	env := setupSchema(t)

	vars := map[string]any{"title": "Demons", "author": "Fyodor Dostoevsky", "published": 1872}
	var data struct {
		AddBook *struct{ Title string } `json:"addBook"`
	}
	errs := env.exec(t, context.Background(), addBookMutation, vars, &data)
	require.Len(t, errs, 1)
	assert.Equal(t, "not authenticated", errs[0].Message)
	assert.Equal(t, "UNAUTHENTICATED", errs[0].Extensions["code"])
	assert.Nil(t, data.AddBook)

	var counts struct {
		BookCount   int `json:"bookCount"`
		AuthorCount int `json:"authorCount"`
	}
	require.Empty(t, env.exec(t, context.Background(), `{ bookCount authorCount }`, nil, &counts))
	assert.Zero(t, counts.BookCount)
	assert.Zero(t, counts.AuthorCount)
}

func TestMutation_AddBookReturnsBook(t *testing.T) {
	env := setupSchema(t)

	vars := map[string]any{"title": "Demons", "author": "Fyodor Dostoevsky", "published": 1872, "genres": []string{"classic"}}
	var data struct {
		AddBook struct {
			ID        string   `json:"id"`
			Title     string   `json:"title"`
			Published int      `json:"published"`
			Author    string   `json:"author"`
			Genres    []string `json:"genres"`
		} `json:"addBook"`
	}
	errs := env.exec(t, signedIn(), addBookMutation, vars, &data)
	require.Empty(t, errs)
	assert.NotEmpty(t, data.AddBook.ID)
	assert.Equal(t, "Demons", data.AddBook.Title)
	assert.Equal(t, 1872, data.AddBook.Published)
	assert.Equal(t, "Fyodor Dostoevsky", data.AddBook.Author)
	assert.Equal(t, []string{"classic"}, data.AddBook.Genres)
}

func TestMutation_AddBookValidation(t *testing.T) {
	env := setupSchema(t)

	vars := map[string]any{"title": "", "author": "Someone", "published": 2000}
	errs := env.exec(t, signedIn(), addBookMutation, vars, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "BAD_USER_INPUT", errs[0].Extensions["code"])
	assert.Contains(t, errs[0].Extensions, "details")
}

func TestMutation_EditAuthor(t *testing.T) {
	env := setupSchema(t)
	env.seed(t)

	const edit = `mutation($name: String!, $born: Int!) { editAuthor(name: $name, born: $born) { name born bookCount } }`

	var data struct {
		EditAuthor *struct {
			Name      string `json:"name"`
			Born      *int   `json:"born"`
			BookCount int    `json:"bookCount"`
		} `json:"editAuthor"`
	}
	errs := env.exec(t, signedIn(), edit, map[string]any{"name": "Robert Martin", "born": 1952}, &data)
	require.Empty(t, errs)
	require.NotNil(t, data.EditAuthor)
	require.NotNil(t, data.EditAuthor.Born)
	assert.Equal(t, 1952, *data.EditAuthor.Born)
	assert.Equal(t, 2, data.EditAuthor.BookCount)

	data.EditAuthor = nil
	errs = env.exec(t, signedIn(), edit, map[string]any{"name": "Unknown", "born": 1900}, &data)
	require.Empty(t, errs)
	assert.Nil(t, data.EditAuthor)

	errs = env.exec(t, context.Background(), edit, map[string]any{"name": "Robert Martin", "born": 1900}, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "UNAUTHENTICATED", errs[0].Extensions["code"])

	var counts struct {
		AuthorCount int `json:"authorCount"`
	}
	require.Empty(t, env.exec(t, context.Background(), `{ authorCount }`, nil, &counts))
	assert.Equal(t, 3, counts.AuthorCount)
}

func TestMutation_CreateUserAndLogin(t *testing.T) {
	env := setupSchema(t)

	var created struct {
		CreateUser struct {
			ID    string  `json:"id"`
			Email string  `json:"email"`
			Name  *string `json:"name"`
			Born  *int    `json:"born"`
		} `json:"createUser"`
	}
	errs := env.exec(t, context.Background(),
		`mutation { createUser(email: "ada@example.com", name: "Ada", born: 1815) { id email name born } }`, nil, &created)
	require.Empty(t, errs)
	assert.Equal(t, "ada@example.com", created.CreateUser.Email)
	require.NotNil(t, created.CreateUser.Name)
	assert.Equal(t, "Ada", *created.CreateUser.Name)
	require.NotNil(t, created.CreateUser.Born)
	assert.Equal(t, 1815, *created.CreateUser.Born)

	var login struct {
		Login *struct {
			Value string `json:"value"`
		} `json:"login"`
	}
	errs = env.exec(t, context.Background(),
		`mutation { login(email: "ada@example.com", password: "secret") { value } }`, nil, &login)
	require.Empty(t, errs)
	require.NotNil(t, login.Login)

	claims, err := env.tokens.Verify(login.Login.Value)
	require.NoError(t, err)
	assert.Equal(t, created.CreateUser.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)

	login.Login = nil
	errs = env.exec(t, context.Background(),
		`mutation { login(email: "ada@example.com", password: "wrong") { value } }`, nil, &login)
	require.Len(t, errs, 1)
	assert.Equal(t, "INVALID_CREDENTIALS", errs[0].Extensions["code"])
	assert.Nil(t, login.Login)
}

func TestMutation_CreateUserDuplicate(t *testing.T) {
	env := setupSchema(t)

	const create = `mutation { createUser(email: "ada@example.com") { id } }`
	require.Empty(t, env.exec(t, context.Background(), create, nil, nil))

	errs := env.exec(t, context.Background(), create, nil, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "ALREADY_EXISTS", errs[0].Extensions["code"])
}

func TestQuery_SearchBooks(t *testing.T) {
	env := setupSchema(t)
	env.seed(t)

	var data struct {
		SearchBooks []struct {
			Title string `json:"title"`
		} `json:"searchBooks"`
	}
	errs := env.exec(t, context.Background(), `{ searchBooks(query: "demons") { title } }`, nil, &data)
	require.Empty(t, errs)
	require.NotEmpty(t, data.SearchBooks)
	assert.Equal(t, "Demons", data.SearchBooks[0].Title)

	errs = env.exec(t, context.Background(), `{ searchBooks(query: "") { title } }`, nil, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "BAD_USER_INPUT", errs[0].Extensions["code"])
}

func TestQuery_SearchBooksLimit(t *testing.T) {
	env := setupSchema(t)
	env.seed(t)

	type result struct {
		SearchBooks []struct {
			Title string `json:"title"`
		} `json:"searchBooks"`
	}

	var all result
	require.Empty(t, env.exec(t, context.Background(), `{ searchBooks(query: "refactoring") { title } }`, nil, &all))
	assert.GreaterOrEqual(t, len(all.SearchBooks), 2, "default limit covers every match")

	var one result
	require.Empty(t, env.exec(t, context.Background(), `{ searchBooks(query: "refactoring", limit: 1) { title } }`, nil, &one))
	assert.Len(t, one.SearchBooks, 1)

	errs := env.exec(t, context.Background(), `{ searchBooks(query: "refactoring", limit: -1) { title } }`, nil, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "BAD_USER_INPUT", errs[0].Extensions["code"])
}

func TestQuery_DepthLimit(t *testing.T) {
	env := setupSchema(t)

	// __type recursion nests deeper than MaxDepth.
	deep := `{ __schema { types { fields { type { ofType { ofType { ofType { ofType { ofType { ofType { name } } } } } } } } } } }`
	errs := env.exec(t, context.Background(), deep, nil, nil)
	assert.NotEmpty(t, errs)
}
