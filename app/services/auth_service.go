package services

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// Session is returned by a successful login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

type AuthService struct {
	users repositories.UserRepository
}

func NewAuthService(users repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Login checks credentials and issues a JWT carrying the user's role.
// Unknown users and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, req requests.Login) (Session, error) {
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		return Session{}, apperror.Validation(errs)
	}

	u, err := s.users.FindByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return Session{}, apperror.Unauthorized("invalid credentials")
	case err != nil:
		return Session{}, apperror.Internal("could not load user", err)
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		logger.WithCtx(ctx).Warn("login failed", "username", req.Username)
		return Session{}, apperror.Unauthorized("invalid credentials")
	}

	token, err := auth.GenerateToken(u.ID, u.Role)
	if err != nil {
		return Session{}, apperror.Internal("could not issue token", err)
	}
	return Session{Token: token, ExpiresAt: time.Now().Add(auth.TokenTTL), User: u}, nil
}

// EnsureUser creates username with the given role unless it already exists.
func (s *AuthService) EnsureUser(ctx context.Context, username, password, role string) (models.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u = models.User{Username: username, PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	if err := s.users.Create(ctx, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}
