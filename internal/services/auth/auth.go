// Package services содержит регистрацию аккаунтов и выдачу JWT.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/package-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/package-tracker/internal/lib/password"
	"github.com/magabrotheeeer/package-tracker/internal/models"
)

// RoleUser роль, с которой регистрируются аккаунты.
const RoleUser = "user"

// UserRepository описывает контракт для работы с аккаунтами в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет новый аккаунт и возвращает его ID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает аккаунт по email или models.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService отвечает за регистрацию и вход.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает аккаунт с хэшированным паролем и ролью "user".
func (s *AuthService) Register(ctx context.Context, req models.DummyUser) (string, error) {
	const op = "services.auth.Register"

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hashed,
		Role:         RoleUser,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль и возвращает JWT вместе с аккаунтом.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}
