package graph

import (
	"context"

	"github.com/listenupapp/librarian/internal/service"
)

type addBookArgs struct {
	Title     string
	Author    string
	Published int32
	Genres    *[]string
}

func (r *Resolver) AddBook(ctx context.Context, args addBookArgs) (*bookResolver, error) {
	in := service.AddBookInput{
		Title:     args.Title,
		Author:    args.Author,
		Published: int(args.Published),
	}
	if args.Genres != nil {
		in.Genres = *args.Genres
	}

	book, err := r.catalog.AddBook(ctx, in)
	if err != nil {
		return nil, r.fail(ctx, "addBook", err)
	}
	return &bookResolver{book}, nil
}

type editAuthorArgs struct {
	Name string
	Born int32
}

// EditAuthor returns null when no author has the given name.
func (r *Resolver) EditAuthor(ctx context.Context, args editAuthorArgs) (*authorResolver, error) {
	author, err := r.catalog.EditAuthor(ctx, service.EditAuthorInput{Name: args.Name, Born: int(args.Born)})
	if err != nil {
		return nil, r.fail(ctx, "editAuthor", err)
	}
	if author == nil {
		return nil, nil
	}
	return &authorResolver{author}, nil
}

type createUserArgs struct {
	Email    string
	Password *string
	Name     *string
	Phone    *string
	Born     *int32
}

func (r *Resolver) CreateUser(ctx context.Context, args createUserArgs) (*userResolver, error) {
	in := service.CreateUserInput{
		Email:    args.Email,
		Password: args.Password,
		Name:     args.Name,
		Phone:    args.Phone,
	}
	if args.Born != nil {
		born := int(*args.Born)
		in.Born = &born
	}

	user, err := r.accounts.CreateUser(ctx, in)
	if err != nil {
		return nil, r.fail(ctx, "createUser", err)
	}
	return &userResolver{user}, nil
}

type loginArgs struct {
	Email    string
	Password string
}

func (r *Resolver) Login(ctx context.Context, args loginArgs) (*tokenResolver, error) {
	token, err := r.accounts.Login(ctx, service.LoginInput{Email: args.Email, Password: args.Password})
	if err != nil {
		return nil, r.fail(ctx, "login", err)
	}
	return &tokenResolver{value: token}, nil
}
