package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/magabrotheeeer/package-tracker/internal/migrations"
	"github.com/magabrotheeeer/package-tracker/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестовый аккаунт и возвращает его UID
func (f *TestDataFactory) CreateUser(t *testing.T, email string) string {
	id, err := f.storage.RegisterUser(context.Background(), models.User{
		Name:         "owner",
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         "user",
	})
	require.NoError(t, err)
	return id
}

// CreateClient создает тестового клиента владельца
func (f *TestDataFactory) CreateClient(t *testing.T, ownerID, email string, status *models.PackageStatus) *models.Client {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c, err := f.storage.CreateClient(context.Background(), models.Client{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Name:            "Client",
		Email:           email,
		Phone:           "+70000000000",
		PackageName:     "Gold",
		PackageDuration: 30,
		PackageStart:    now,
		PackageStatus:   status,
		CreatedAt:       now,
	})
	require.NoError(t, err)
	return c
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) *Storage {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	t.Cleanup(func() {
		_ = storage.Close()
		_ = pgContainer.Terminate(ctx)
	})
	return storage
}
