// Package integration runs the sync engine against a real PostgreSQL started
// with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erp/syncengine/internal/infrastructure/logger"
	"github.com/erp/syncengine/internal/infrastructure/migration"
)

// customersTable stands in for the host ERP's customer table
const customersTable = `
CREATE TABLE IF NOT EXISTS customers (
	id              TEXT PRIMARY KEY,
	tenant_id       UUID NOT NULL,
	name            TEXT NOT NULL,
	email           TEXT,
	external_id     TEXT,
	external_system TEXT
)`

// postgresFixture is one container shared by every test in the package. The
// schema is applied once when it starts.
var postgresFixture struct {
	mu        sync.Mutex
	container *tcpostgres.PostgresContainer
	dsn       string
}

// TestDB is a per-test connection to the shared database
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewTestDB connects to the shared database, starting it on first use, and
// truncates every sync table before returning.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dsn := sharedDSN(t)
	db := openGorm(t, dsn)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tdb := &TestDB{DB: db, t: t}
	tdb.truncate()
	return tdb
}

func sharedDSN(t *testing.T) string {
	postgresFixture.mu.Lock()
	defer postgresFixture.mu.Unlock()
	if postgresFixture.container != nil {
		return postgresFixture.dsn
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("syncengine_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db := openGorm(t, dsn)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	m, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "apply embedded schema")
	require.NoError(t, db.Exec(customersTable).Error)

	postgresFixture.container = container
	postgresFixture.dsn = dsn
	return dsn
}

// openGorm logs SQL through the test log when TEST_DB_DEBUG is set
func openGorm(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	var l gormlogger.Interface = gormlogger.Discard
	if os.Getenv("TEST_DB_DEBUG") != "" {
		l = logger.NewGormLogger(zaptest.NewLogger(t), gormlogger.Config{LogLevel: gormlogger.Info})
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: l})
	require.NoError(t, err, "connect to postgres")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	return db
}

func (tdb *TestDB) truncate() {
	tdb.t.Helper()
	var tables []string
	require.NoError(tdb.t, tdb.DB.Raw(
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public' AND tablename <> ?`,
		migration.MigrationsTable,
	).Scan(&tables).Error)

	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE "+table+" CASCADE").Error, table)
	}
}

// CreateCustomer inserts a local customer owned by tenantID
func (tdb *TestDB) CreateCustomer(tenantID uuid.UUID, id, name, email string) {
	tdb.t.Helper()
	require.NoError(tdb.t, tdb.DB.Exec(
		`INSERT INTO customers (id, tenant_id, name, email) VALUES (?, ?, ?, ?)`,
		id, tenantID, name, email,
	).Error)
}

// CustomerExternalID returns the external id stamped on a local customer
func (tdb *TestDB) CustomerExternalID(id string) string {
	tdb.t.Helper()
	var externalID sql.NullString
	require.NoError(tdb.t, tdb.DB.Raw(`SELECT external_id FROM customers WHERE id = ?`, id).Scan(&externalID).Error)
	return externalID.String
}

// CleanupSharedContainer terminates the shared container. Call it from TestMain.
func CleanupSharedContainer() {
	postgresFixture.mu.Lock()
	defer postgresFixture.mu.Unlock()
	if postgresFixture.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = postgresFixture.container.Terminate(ctx)
	postgresFixture.container = nil
	postgresFixture.dsn = ""
}
