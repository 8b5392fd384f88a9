// Package graph exposes the catalog as a GraphQL schema.
package graph

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/graph-gophers/graphql-go"
)

// SDL is the GraphQL schema served by the API.
//
//go:embed schema.graphql
var SDL string

// MaxDepth bounds how deeply a query may nest selections.
const MaxDepth = 10

// NewSchema parses the SDL and binds it to a resolver.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(SDL, r,
		graphql.MaxDepth(MaxDepth),
		graphql.Logger(panicLogger{logger: r.logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return schema, nil
}

// panicLogger reports resolver panics through slog. The executor turns the
// panic into an opaque error for the client.
type panicLogger struct {
	logger *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.logger.ErrorContext(ctx, "panic in resolver", "panic", fmt.Sprint(value))
}
