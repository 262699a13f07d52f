package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"authgate/internal/model"
	"authgate/internal/pkg/jwtutil"
	"authgate/internal/pkg/password"
	"authgate/internal/repository"
)

// UserDirectory is the keyed user store. Lookups of absent users return (nil, nil);
// a Create that violates a unique index returns repository.ErrDuplicate.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, id uint, fields map[string]any) (*model.User, error)
}

type TokenIssuer interface {
	Issue(identity jwtutil.Identity) (string, error)
}

type AuthService struct {
	users  UserDirectory
	hasher password.Hasher
	tokens TokenIssuer
	logger *slog.Logger
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AdminSeed struct {
	Username string
	Email    string
	Password string
}

type AuthResult struct {
	Token string         `json:"token"`
	User  model.UserView `json:"user"`
}

type AuthServiceOption func(*AuthService)

func WithLogger(logger *slog.Logger) AuthServiceOption {
	return func(s *AuthService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewAuthService(users UserDirectory, hasher password.Hasher, tokens TokenIssuer, opts ...AuthServiceOption) (*AuthService, error) {
	if users == nil {
		return nil, errors.New("user directory is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}

	s := &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, input, model.RoleUser)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return s.authResult(user)
}

// Login accepts either the username or the email in input.Username.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	identifier := strings.TrimSpace(input.Username)
	if err := validateInput(LoginInput{Username: identifier, Password: input.Password}); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.users.FindByEmail(ctx, identifier)
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		s.logger.DebugContext(ctx, "login rejected", "reason", "unknown identifier")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(input.Password, user.Password) {
		s.logger.DebugContext(ctx, "login rejected", "reason", "password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.authResult(user)
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*model.UserView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	view := user.View()
	return &view, nil
}

// EnsureAdmin creates the administrator account when no user holds seed.Username.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	input := RegisterInput{
		Username: strings.TrimSpace(seed.Username),
		Email:    strings.TrimSpace(seed.Email),
		Password: seed.Password,
	}
	if err := validateInput(input); err != nil {
		return false, fmt.Errorf("admin seed: %w", err)
	}

	user, err := s.createUser(ctx, input, model.RoleAdmin)
	if errors.Is(err, ErrUsernameExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("admin seed: %w", err)
	}

	s.logger.InfoContext(ctx, "default admin user created", "user_id", user.ID, "username", user.Username)
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, input RegisterInput, role string) (*model.User, error) {
	existing, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	existing, err = s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: input.Username,
		Email:    input.Email,
		Password: digest,
		Role:     role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.duplicateConflict(ctx, input)
		}
		return nil, err
	}
	return user, nil
}

// duplicateConflict names the field a concurrent insert claimed first, in the same
// order as the pre-insert checks.
func (s *AuthService) duplicateConflict(ctx context.Context, input RegisterInput) error {
	if existing, err := s.users.FindByUsername(ctx, input.Username); err == nil && existing != nil {
		return ErrUsernameExists
	}
	if existing, err := s.users.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return ErrEmailExists
	}
	return ErrResourceExists
}

func (s *AuthService) authResult(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(jwtutil.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.View()}, nil
}
