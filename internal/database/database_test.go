package database_test

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"cpa-academy/internal/config"
	"cpa-academy/internal/database"
	"cpa-academy/internal/domain"
	"cpa-academy/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts PostgreSQL in a container and applies the migrations.
// Skipped unless TEST_INTEGRATION is set.
func setupPostgres(t *testing.T) (*config.Config, *sqlx.DB) {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("cpa_academy_test"),
		postgres.WithUsername("cpa"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := &config.Config{DB: config.DBConfig{
		Host:     host,
		Port:     portNum,
		User:     "cpa",
		Password: "test-password",
		DBName:   "cpa_academy_test",
		SSLMode:  "disable",
	}}

	require.NoError(t, database.RunMigrations(cfg.MigrationURL()))

	db, err := database.NewSQLXDB(ctx, cfg.DB, cfg.GetDSN())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return cfg, db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	cfg, _ := setupPostgres(t)
	assert.NoError(t, database.RunMigrations(cfg.MigrationURL()))
}

func TestMigrationsRollback(t *testing.T) {
	cfg, db := setupPostgres(t)

	require.NoError(t, database.RollbackMigrations(cfg.MigrationURL(), 1))
	var exists bool
	require.NoError(t, db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'materials')`))
	assert.False(t, exists)

	require.NoError(t, database.RunMigrations(cfg.MigrationURL()))
	assert.Error(t, database.RollbackMigrations(cfg.MigrationURL(), 0))
}

func TestConcurrentDownloadCountIncrements(t *testing.T) {
	_, db := setupPostgres(t)
	ctx := context.Background()

	catalog := repository.NewSQLXCatalogRepository(db)
	materials := repository.NewSQLXMaterialRepository(db)

	subject := &domain.Subject{Name: "Financial Accounting and Reporting"}
	require.NoError(t, catalog.CreateSubject(ctx, subject))
	unit := &domain.Unit{SubjectID: subject.ID, Title: "Leases", Code: "FAR-7", Order: 7}
	require.NoError(t, catalog.CreateUnit(ctx, unit))

	material := &domain.Material{
		UnitID:     unit.ID,
		Title:      "Lease classification",
		FileKey:    "materials/lease.pdf",
		FileName:   "lease.pdf",
		FileType:   "pdf",
		UploadDate: time.Now(),
		IsPublic:   true,
	}
	require.NoError(t, materials.CreateMaterial(ctx, material))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := materials.IncrementDownloadCount(ctx, material.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := materials.GetMaterialByID(ctx, material.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), stored.DownloadCount)
	assert.Equal(t, []string{}, stored.Tags)
	assert.Equal(t, "FAR-7", stored.Unit.Code)

	listed, err := materials.ListPublicMaterials(ctx, domain.MaterialFilter{Search: "lease", Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	deleted, err := materials.DeleteMaterial(ctx, material.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = materials.IncrementDownloadCount(ctx, material.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
