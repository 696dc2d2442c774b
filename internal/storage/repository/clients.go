package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/package-tracker/internal/models"
)

const clientColumns = `id, owner_id, name, email, phone, package_name, package_duration, package_start,
	status_is_active, status_days_remaining, status_expiry_date,
	document_path, document_file_name, document_generated_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c              models.Client
		isActive       sql.NullBool
		daysRemaining  sql.NullInt64
		expiryDate     sql.NullTime
		docPath        sql.NullString
		docFileName    sql.NullString
		docGeneratedAt sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone,
		&c.PackageName, &c.PackageDuration, &c.PackageStart,
		&isActive, &daysRemaining, &expiryDate,
		&docPath, &docFileName, &docGeneratedAt,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	if isActive.Valid && daysRemaining.Valid && expiryDate.Valid {
		c.PackageStatus = &models.PackageStatus{
			IsActive:      isActive.Bool,
			DaysRemaining: int(daysRemaining.Int64),
			ExpiryDate:    expiryDate.Time.UTC(),
		}
	}
	if docPath.Valid && docFileName.Valid {
		c.Document = &models.DocumentRecord{
			Path:        docPath.String,
			FileName:    docFileName.String,
			GeneratedAt: docGeneratedAt.Time,
		}
	}
	return &c, nil
}

func statusArgs(status *models.PackageStatus) (sql.NullBool, sql.NullInt64, sql.NullTime) {
	if status == nil {
		return sql.NullBool{}, sql.NullInt64{}, sql.NullTime{}
	}
	return sql.NullBool{Bool: status.IsActive, Valid: true},
		sql.NullInt64{Int64: int64(status.DaysRemaining), Valid: true},
		sql.NullTime{Time: status.ExpiryDate, Valid: true}
}

func (s *Storage) queryClients(ctx context.Context, op, query string, args ...any) ([]*models.Client, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateClient вставляет нового клиента вместе с рассчитанным статусом и возвращает сохранённую запись.
func (s *Storage) CreateClient(ctx context.Context, c models.Client) (*models.Client, error) {
	const op = "storage.CreateClient"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	isActive, daysRemaining, expiryDate := statusArgs(c.PackageStatus)
	query := `INSERT INTO clients (id, owner_id, name, email, phone, package_name, package_duration,
			      package_start, status_is_active, status_days_remaining, status_expiry_date,
			      created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
			  RETURNING ` + clientColumns
	created, err := scanClient(s.DB.QueryRowContext(ctx, query,
		c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.PackageName, c.PackageDuration,
		c.PackageStart, isActive, daysRemaining, expiryDate, c.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetClient возвращает клиента по ID.
func (s *Storage) GetClient(ctx context.Context, id string) (*models.Client, error) {
	const op = "storage.GetClient"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	c, err := scanClient(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// FindClientByEmail ищет клиента владельца по email без учёта регистра.
// Возвращает nil, nil если такого клиента нет.
func (s *Storage) FindClientByEmail(ctx context.Context, ownerID, email string) (*models.Client, error) {
	const op = "storage.FindClientByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE owner_id = $1 AND lower(email) = lower($2)`
	c, err := scanClient(s.DB.QueryRowContext(ctx, query, ownerID, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ListClientsByOwner возвращает всех клиентов аккаунта.
func (s *Storage) ListClientsByOwner(ctx context.Context, ownerID string) ([]*models.Client, error) {
	const op = "storage.ListClientsByOwner"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE owner_id = $1 ORDER BY created_at`
	return s.queryClients(ctx, op, query, ownerID)
}

// ListAllClients возвращает всех клиентов всех аккаунтов.
func (s *Storage) ListAllClients(ctx context.Context) ([]*models.Client, error) {
	const op = "storage.ListAllClients"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY created_at`
	return s.queryClients(ctx, op, query)
}

// UpdateClient сохраняет профиль, пакет, статус и ссылку на документ клиента.
// Пустой c.Document очищает ссылку.
func (s *Storage) UpdateClient(ctx context.Context, c models.Client) (*models.Client, error) {
	const op = "storage.UpdateClient"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	isActive, daysRemaining, expiryDate := statusArgs(c.PackageStatus)
	var docPath, docName sql.NullString
	var docAt sql.NullTime
	if c.Document != nil {
		docPath = sql.NullString{String: c.Document.Path, Valid: true}
		docName = sql.NullString{String: c.Document.FileName, Valid: true}
		docAt = sql.NullTime{Time: c.Document.GeneratedAt, Valid: true}
	}
	query := `UPDATE clients
			  SET name = $1, email = $2, phone = $3, package_name = $4, package_duration = $5,
			      package_start = $6, status_is_active = $7, status_days_remaining = $8,
			      status_expiry_date = $9, document_path = $10, document_file_name = $11,
			      document_generated_at = $12, updated_at = NOW()
			  WHERE id = $13
			  RETURNING ` + clientColumns
	updated, err := scanClient(s.DB.QueryRowContext(ctx, query,
		c.Name, c.Email, c.Phone, c.PackageName, c.PackageDuration, c.PackageStart,
		isActive, daysRemaining, expiryDate, docPath, docName, docAt, c.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// ApplyStatus обновляет только поля статуса пакета и возвращает актуальную запись.
// Параллельные правки профиля этим запросом не перезаписываются.
func (s *Storage) ApplyStatus(ctx context.Context, id string, status models.PackageStatus) (*models.Client, error) {
	const op = "storage.ApplyStatus"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE clients
			  SET status_is_active = $1, status_days_remaining = $2, status_expiry_date = $3,
			      updated_at = NOW()
			  WHERE id = $4
			  RETURNING ` + clientColumns
	updated, err := scanClient(s.DB.QueryRowContext(ctx, query,
		status.IsActive, status.DaysRemaining, status.ExpiryDate, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// SetDocument заменяет ссылку на документ клиента.
func (s *Storage) SetDocument(ctx context.Context, id string, doc models.DocumentRecord) error {
	const op = "storage.SetDocument"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE clients
			  SET document_path = $1, document_file_name = $2, document_generated_at = $3
			  WHERE id = $4`
	result, err := s.DB.ExecContext(ctx, query, doc.Path, doc.FileName, doc.GeneratedAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// DeleteClient удаляет клиента по ID.
func (s *Storage) DeleteClient(ctx context.Context, id string) error {
	const op = "storage.DeleteClient"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
