package auth

import (
	"context"
	"errors"
	"log/slog"

	"sweet-shop/apperror"
	models "sweet-shop/model"
	"sweet-shop/store"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
)

// Result is returned by Register and Login.
type Result struct {
	User  models.Identity `json:"user"`
	Token string          `json:"token"`
}

// Service registers accounts and logs them in.
type Service struct {
	users      store.UserStore
	tokens     *TokenManager
	bcryptCost int
	logger     *slog.Logger
}

func NewService(users store.UserStore, tokens *TokenManager, bcryptCost int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, tokens: tokens, bcryptCost: bcryptCost, logger: logger.With("component", "auth")}
}

// Register creates an account. An empty role means USER.
func (s *Service) Register(ctx context.Context, email, password string, role models.Role) (Result, error) {
	const op = "auth.Register"
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return Result{}, apperror.Validation("role", "Valid role is required")
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return Result{}, apperror.Conflict(op, msgUserExists, store.ErrEmailTaken)
	case !errors.Is(err, store.ErrUserNotFound):
		return Result{}, apperror.Internal(op, err)
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return Result{}, apperror.Internal(op, err)
	}
	u, err := s.users.CreateUser(ctx, email, hash, role)
	if errors.Is(err, store.ErrEmailTaken) {
		return Result{}, apperror.Conflict(op, msgUserExists, err)
	}
	if err != nil {
		return Result{}, apperror.Internal(op, err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return s.issue(op, u)
}

func (s *Service) Login(ctx context.Context, email, password string) (Result, error) {
	const op = "auth.Login"
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return Result{}, apperror.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return Result{}, apperror.Internal(op, err)
	}
	if !CheckPasswordHash(password, u.PasswordHash) {
		s.logger.InfoContext(ctx, "login rejected", "user_id", u.ID)
		return Result{}, apperror.Unauthenticated(msgInvalidCredentials)
	}
	return s.issue(op, u)
}

func (s *Service) issue(op string, u models.User) (Result, error) {
	id := models.Identity{ID: u.ID, Email: u.Email, Role: u.Role}
	token, err := s.tokens.Issue(id)
	if err != nil {
		return Result{}, apperror.Internal(op, err)
	}
	return Result{User: id, Token: token}, nil
}
