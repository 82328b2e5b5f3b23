package testing

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/db"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/testinfra"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		pg, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = pg.DSN
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test server connection string.
// Priority: RECORDER_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("RECORDER_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("RECORDER_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// NewTestConfig creates an empty database on the test server and returns a
// connection config pointing at it. The database is dropped when the test ends.
func NewTestConfig(t *testing.T) *recorder.ConnectionConfig {
	t.Helper()

	connString := RequireDatabase(t)
	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse test connection string: %v", err)
	}

	dbName := "recorder_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	CreateTestDB(t, connString, dbName)
	t.Cleanup(func() { CleanupTestDB(t, connString, dbName) })

	config.Database = dbName
	return config
}

// adminPool opens a short-lived pool on the server's maintenance database.
func adminPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, connString)
}

// CreateTestDB creates dbName on the test server.
func CreateTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()
	pool, err := adminPool(ctx, connString)
	if err != nil {
		t.Fatalf("connect to test server: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Fatalf("create database %s: %v", dbName, err)
	}
}

// CleanupTestDB drops dbName. The pool under test may still hold idle
// connections, so FORCE disconnects them. Failures are only logged.
func CleanupTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()
	pool, err := adminPool(ctx, connString)
	if err != nil {
		t.Logf("cleanup of %s skipped: %v", dbName, err)
		return
	}
	defer pool.Close()

	drop := "DROP DATABASE IF EXISTS " + pgx.Identifier{dbName}.Sanitize() + " WITH (FORCE)"
	if _, err := pool.Exec(ctx, drop); err != nil {
		t.Logf("drop database %s: %v", dbName, err)
	}
}
