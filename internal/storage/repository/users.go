package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/package-tracker/internal/models"
)

// RegisterUser сохраняет новый аккаунт и возвращает его ID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var newID string
	query := `INSERT INTO users (name, email, phone, password_hash, role)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Phone, user.PasswordHash, user.Role).Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, models.ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail возвращает аккаунт по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	return s.getUser(ctx, op, `WHERE email = $1`, email)
}

// GetUser возвращает аккаунт по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	return s.getUser(ctx, op, `WHERE uid = $1`, userUID)
}

func (s *Storage) getUser(ctx context.Context, op, where string, arg string) (*models.User, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT uid, name, email, phone, password_hash, role, created_at FROM users ` + where
	u := &models.User{}
	err := s.DB.QueryRowContext(ctx, query, arg).Scan(&u.UUID, &u.Name, &u.Email, &u.Phone,
		&u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
