package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/servicehub/internal/migrations"
	"github.com/magabrotheeeer/servicehub/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, storage.CheckDatabaseReady(ctx))
	return storage
}

// TestDataFactory создаёт тестовые данные.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создаёт новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создаёт пользователя и возвращает его UID.
func (f *TestDataFactory) CreateUser(t *testing.T, username string) string {
	t.Helper()
	uid, err := f.storage.CreateUser(context.Background(), models.User{
		Email:        username + "@example.com",
		Username:     username,
		Phone:        "+233241234567",
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return uid
}

// CreatePayment создаёт платёж в статусе pending.
func (f *TestDataFactory) CreatePayment(t *testing.T, userUID string, category models.Category, kind models.PaymentKind, cycle models.BillingCycle) *models.Payment {
	t.Helper()
	p := &models.Payment{
		ID:           uuid.NewString(),
		UserUID:      userUID,
		Category:     category,
		Kind:         kind,
		Amount:       50,
		Currency:     "GHS",
		BillingCycle: cycle,
	}
	require.NoError(t, f.storage.CreatePayment(context.Background(), p))
	return p
}

// CreateListing создаёт объявление с заданным временем создания.
func (f *TestDataFactory) CreateListing(t *testing.T, ownerUID string, category models.Category, title string, rating float64, createdAt time.Time) *models.Listing {
	t.Helper()
	l := &models.Listing{
		ID:         uuid.NewString(),
		OwnerUID:   ownerUID,
		Category:   category,
		Title:      title,
		Location:   "Accra",
		Attributes: map[string]string{},
		Rating:     rating,
	}
	require.NoError(t, f.storage.CreateListing(context.Background(), l))
	_, err := f.storage.DB.Exec(`UPDATE listings SET created_at = $2 WHERE id = $1`, l.ID, createdAt)
	require.NoError(t, err)
	l.CreatedAt = createdAt
	return l
}
