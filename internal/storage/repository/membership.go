package repository

import (
	"context"
	"fmt"
)

// AttachClient добавляет клиента в список клиентов аккаунта.
// Повторное добавление не является ошибкой.
func (s *Storage) AttachClient(ctx context.Context, accountID, clientID string) error {
	const op = "storage.AttachClient"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO account_clients (account_id, client_id)
			  VALUES ($1, $2)
			  ON CONFLICT (account_id, client_id) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, accountID, clientID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DetachClient убирает клиента из списка аккаунта.
func (s *Storage) DetachClient(ctx context.Context, accountID, clientID string) error {
	const op = "storage.DetachClient"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `DELETE FROM account_clients WHERE account_id = $1 AND client_id = $2`
	if _, err := s.DB.ExecContext(ctx, query, accountID, clientID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListMembership возвращает ID клиентов из списка аккаунта.
func (s *Storage) ListMembership(ctx context.Context, accountID string) ([]string, error) {
	const op = "storage.ListMembership"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT client_id FROM account_clients WHERE account_id = $1 ORDER BY added_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}
