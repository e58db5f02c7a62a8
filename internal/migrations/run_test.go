package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func getTestDB(t *testing.T) (*sql.DB, func()) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	cleanup := func() {
		_ = db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)
	return filepath.Join(projectRoot, "migrations")
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestRunMigrations(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	require.NoError(t, Run(db, getMigrationsPath(t)))

	for _, table := range []string{"users", "payments", "category_subscriptions", "listings"} {
		require.True(t, tableExists(t, db, table), "table %s should exist", table)
	}

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'listings'
			AND indexname = 'idx_listings_category_created'
		)`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "listing index should exist")
}

func TestGraceConstraint(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	require.NoError(t, Run(db, getMigrationsPath(t)))

	var uid string
	err := db.QueryRow(`INSERT INTO users (email, username, phone, password_hash)
		VALUES ('a@example.com', 'alice', '+233241234567', 'hash') RETURNING uid`).Scan(&uid)
	require.NoError(t, err)

	now := time.Now()
	_, err = db.Exec(`INSERT INTO category_subscriptions
		(user_uid, category, billing_cycle, paid_through, grace_until)
		VALUES ($1, 'hotels', 'monthly', $2, $3)`, uid, now, now.Add(-time.Hour))
	require.Error(t, err, "grace_until before paid_through must be rejected")

	_, err = db.Exec(`INSERT INTO category_subscriptions
		(user_uid, category, billing_cycle, paid_through, grace_until)
		VALUES ($1, 'hotels', 'monthly', $2, $2)`, uid, now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO category_subscriptions
		(user_uid, category, billing_cycle, paid_through, grace_until)
		VALUES ($1, 'hotels', 'annual', $2, $2)`, uid, now)
	require.Error(t, err, "second subscription for the same category must be rejected")
}

func TestMigrationIdempotency(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	path := getMigrationsPath(t)
	require.NoError(t, Run(db, path))
	require.NoError(t, Run(db, path))
}
