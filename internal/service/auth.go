package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/listenupapp/librarian/internal/auth"
	"github.com/listenupapp/librarian/internal/domain"
	domainerrors "github.com/listenupapp/librarian/internal/errors"
	"github.com/listenupapp/librarian/internal/id"
	"github.com/listenupapp/librarian/internal/store"
)

// LoginLimiter throttles login attempts per key.
type LoginLimiter interface {
	Allow(key string) bool
}

// CreateUserInput is the input of the createUser mutation.
type CreateUserInput struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password *string `json:"password" validate:"omitnil,min=1,max=1024"`
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Born     *int    `json:"born"`
}

// LoginInput is the input of the login mutation.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthService handles signup, login and token verification.
type AuthService struct {
	store           UserStore
	tokens          *auth.TokenService
	limiter         LoginLimiter
	defaultPassword string
	logger          *slog.Logger
}

// NewAuthService creates a new authentication service. defaultPassword is
// given to users created without one.
func NewAuthService(
	store UserStore,
	tokens *auth.TokenService,
	limiter LoginLimiter,
	defaultPassword string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:           store,
		tokens:          tokens,
		limiter:         limiter,
		defaultPassword: defaultPassword,
		logger:          logger,
	}
}

// CreateUser registers a user. The password is optional and falls back to
// the configured default.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Validate(in); err != nil {
		return nil, err
	}

	password := s.defaultPassword
	if in.Password != nil {
		password = *in.Password
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Record:       domain.Record{ID: userID},
		Email:        in.Email,
		PasswordHash: hash,
		Born:         in.Born,
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		s.logger.ErrorContext(ctx, "create user failed", "error", err)
		return nil, domainerrors.WriteFailed("creating user failed")
	}

	return user, nil
}

// Login checks the credentials and issues an access token.
// Unknown email and wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	if err := validate.Validate(in); err != nil {
		return "", err
	}

	if !s.limiter.Allow(strings.ToLower(strings.TrimSpace(in.Email))) {
		return "", domainerrors.RateLimited("too many login attempts, try again later")
	}

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return "", domainerrors.InvalidCredentials("wrong credentials")
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, in.Password) {
		return "", domainerrors.InvalidCredentials("wrong credentials")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return token, nil
}

// Authenticate resolves a bearer token to its user.
// A bad or expired token, or one naming a vanished user, is INVALID_TOKEN.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.DebugContext(ctx, "token rejected", "error", err)
		return nil, domainerrors.InvalidToken("invalid or expired token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.InvalidToken("invalid or expired token")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
