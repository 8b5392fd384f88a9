package graph

import (
	"context"

	"github.com/listenupapp/librarian/internal/service"
)

func (r *Resolver) BookCount(ctx context.Context) (int32, error) {
	n, err := r.catalog.BookCount(ctx)
	if err != nil {
		return 0, r.fail(ctx, "bookCount", err)
	}
	return int32(n), nil //nolint:gosec // catalog sizes fit in int32
}

func (r *Resolver) AuthorCount(ctx context.Context) (int32, error) {
	n, err := r.catalog.AuthorCount(ctx)
	if err != nil {
		return 0, r.fail(ctx, "authorCount", err)
	}
	return int32(n), nil //nolint:gosec // catalog sizes fit in int32
}

type allBooksArgs struct {
	Author *string
	Genre  *string
}

func (r *Resolver) AllBooks(ctx context.Context, args allBooksArgs) ([]*bookResolver, error) {
	books, err := r.catalog.AllBooks(ctx, service.BookQuery{Author: args.Author, Genre: args.Genre})
	if err != nil {
		return nil, r.fail(ctx, "allBooks", err)
	}
	return newBookResolvers(books), nil
}

func (r *Resolver) AllAuthors(ctx context.Context) ([]*authorResolver, error) {
	authors, err := r.catalog.AllAuthors(ctx)
	if err != nil {
		return nil, r.fail(ctx, "allAuthors", err)
	}
	out := make([]*authorResolver, len(authors))
	for i, a := range authors {
		out[i] = &authorResolver{a}
	}
	return out, nil
}

// Me returns the signed-in user, or null for anonymous requests.
func (r *Resolver) Me(ctx context.Context) *userResolver {
	if u := viewer(ctx); u != nil {
		return &userResolver{u}
	}
	return nil
}

type searchBooksArgs struct {
	Query string
	Limit int32 // the schema default fills it when omitted
}

func (r *Resolver) SearchBooks(ctx context.Context, args searchBooksArgs) ([]*bookResolver, error) {
	books, err := r.catalog.SearchBooks(ctx, args.Query, int(args.Limit))
	if err != nil {
		return nil, r.fail(ctx, "searchBooks", err)
	}
	return newBookResolvers(books), nil
}
