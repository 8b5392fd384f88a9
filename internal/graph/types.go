package graph

import (
	"github.com/graph-gophers/graphql-go"

	"github.com/listenupapp/librarian/internal/domain"
	"github.com/listenupapp/librarian/internal/service"
)

type bookResolver struct {
	b *service.BookView
}

func newBookResolvers(books []*service.BookView) []*bookResolver {
	out := make([]*bookResolver, len(books))
	for i, b := range books {
		out[i] = &bookResolver{b}
	}
	return out
}

func (r *bookResolver) ID() graphql.ID {
	return graphql.ID(r.b.ID)
}

func (r *bookResolver) Title() string {
	return r.b.Title
}

func (r *bookResolver) Published() int32 {
	return int32(r.b.Published) //nolint:gosec // years fit in int32
}

func (r *bookResolver) Author() string {
	return r.b.AuthorName
}

func (r *bookResolver) Genres() []string {
	if r.b.Genres == nil {
		return []string{}
	}
	return r.b.Genres
}

type authorResolver struct {
	a *service.AuthorView
}

func (r *authorResolver) ID() graphql.ID {
	return graphql.ID(r.a.ID)
}

func (r *authorResolver) Name() string {
	return r.a.Name
}

func (r *authorResolver) Phone() *string {
	return optionalString(r.a.Phone)
}

func (r *authorResolver) Born() *int32 {
	return optionalInt(r.a.Born)
}

func (r *authorResolver) BookCount() int32 {
	return int32(r.a.BookCount) //nolint:gosec // counts fit in int32
}

type userResolver struct {
	u *domain.User
}

func (r *userResolver) ID() graphql.ID {
	return graphql.ID(r.u.ID)
}

func (r *userResolver) Name() *string {
	return optionalString(r.u.Name)
}

func (r *userResolver) Phone() *string {
	return optionalString(r.u.Phone)
}

func (r *userResolver) Email() string {
	return r.u.Email
}

func (r *userResolver) Born() *int32 {
	return optionalInt(r.u.Born)
}

type tokenResolver struct {
	value string
}

func (r *tokenResolver) Value() string {
	return r.value
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(n *int) *int32 {
	if n == nil {
		return nil
	}
	v := int32(*n) //nolint:gosec // years fit in int32
	return &v
}
