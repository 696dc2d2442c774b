package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/package-tracker/internal/models"
)

func TestStorage_ClientLifecycle(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	owner := factory.CreateUser(t, "owner@example.com")
	expiry := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	created := factory.CreateClient(t, owner, "client@example.com", &models.PackageStatus{
		IsActive: true, DaysRemaining: 30, ExpiryDate: expiry,
	})

	got, err := storage.GetClient(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.OwnerID)
	require.NotNil(t, got.PackageStatus)
	assert.True(t, got.PackageStatus.ExpiryDate.Equal(expiry))
	assert.Nil(t, got.Document)

	found, err := storage.FindClientByEmail(ctx, owner, "CLIENT@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := storage.FindClientByEmail(ctx, owner, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = storage.GetClient(ctx, uuid.New().String())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_DuplicateEmailPerOwner(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)

	ownerA := factory.CreateUser(t, "a@example.com")
	ownerB := factory.CreateUser(t, "b@example.com")
	factory.CreateClient(t, ownerA, "same@example.com", nil)

	_, err := storage.CreateClient(context.Background(), models.Client{
		ID: uuid.New().String(), OwnerID: ownerA, Name: "dup", Email: "same@example.com",
		Phone: "1", PackageName: "Gold", PackageDuration: 10, PackageStart: time.Now(), CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	other := factory.CreateClient(t, ownerB, "same@example.com", nil)
	assert.Equal(t, ownerB, other.OwnerID)
}

func TestStorage_ApplyStatusIsFieldScoped(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	owner := factory.CreateUser(t, "owner@example.com")
	c := factory.CreateClient(t, owner, "client@example.com", nil)

	c.Name = "Renamed"
	_, err := storage.UpdateClient(ctx, *c)
	require.NoError(t, err)

	status := models.PackageStatus{IsActive: false, DaysRemaining: 0, ExpiryDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}
	updated, err := storage.ApplyStatus(ctx, c.ID, status)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	require.NotNil(t, updated.PackageStatus)
	assert.True(t, updated.PackageStatus.Equal(status))

	_, err = storage.ApplyStatus(ctx, uuid.New().String(), status)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_DocumentOverwrite(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	owner := factory.CreateUser(t, "owner@example.com")
	c := factory.CreateClient(t, owner, "client@example.com", nil)

	require.NoError(t, storage.SetDocument(ctx, c.ID, models.DocumentRecord{Path: "/a.pdf", FileName: "a.pdf", GeneratedAt: time.Now()}))
	require.NoError(t, storage.SetDocument(ctx, c.ID, models.DocumentRecord{Path: "/b.pdf", FileName: "b.pdf", GeneratedAt: time.Now()}))

	got, err := storage.GetClient(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Document)
	assert.Equal(t, "b.pdf", got.Document.FileName)
}

func TestStorage_MembershipAndDelete(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	owner := factory.CreateUser(t, "owner@example.com")
	c := factory.CreateClient(t, owner, "client@example.com", nil)

	require.NoError(t, storage.AttachClient(ctx, owner, c.ID))
	require.NoError(t, storage.AttachClient(ctx, owner, c.ID))

	ids, err := storage.ListMembership(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids)

	require.NoError(t, storage.DetachClient(ctx, owner, c.ID))
	require.NoError(t, storage.DeleteClient(ctx, c.ID))

	ids, err = storage.ListMembership(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, ids)

	list, err := storage.ListClientsByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, storage.DeleteClient(ctx, c.ID), models.ErrNotFound)
}
