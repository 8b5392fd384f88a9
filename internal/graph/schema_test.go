package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// The SDL must also parse under a second, stricter implementation so that
// tooling such as cmd/schema and client code generators accept it.
func TestSDL_ValidatesWithGqlparser(t *testing.T) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: SDL})
	require.NoError(t, err)

	require.NotNil(t, schema.Query)
	require.NotNil(t, schema.Mutation)

	for _, field := range []string{"bookCount", "authorCount", "allBooks", "allAuthors", "me", "searchBooks"} {
		assert.NotNil(t, schema.Query.Fields.ForName(field), field)
	}
	for _, field := range []string{"addBook", "editAuthor", "createUser", "login"} {
		assert.NotNil(t, schema.Mutation.Fields.ForName(field), field)
	}

	author := schema.Types["Author"]
	require.NotNil(t, author)
	bookCount := author.Fields.ForName("bookCount")
	require.NotNil(t, bookCount)
	assert.True(t, bookCount.Type.NonNull)
}
