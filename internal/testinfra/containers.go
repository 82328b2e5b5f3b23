// Package testinfra starts the disposable PostgreSQL server used by the
// integration tests when RECORDER_TEST_CONN is not set.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage matches the major version the dashboard is deployed on.
const PostgresImage = "postgres:16-alpine"

// Superuser credentials of the throwaway server. Tests create one
// database per test through this account.
const (
	adminUser     = "recorder"
	adminPassword = "recorder"
	adminDatabase = "recorder_admin"
)

// Postgres is a running container plus a superuser DSN with sslmode=disable.
type Postgres struct {
	*postgres.PostgresContainer
	DSN string
}

// StartPostgres runs PostgresImage and waits until it accepts connections.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	ctr, err := postgres.Run(ctx, PostgresImage,
		postgres.WithUsername(adminUser),
		postgres.WithPassword(adminPassword),
		postgres.WithDatabase(adminDatabase),
		testcontainers.WithWaitStrategy(
			// initdb starts the server, stops it and starts it again.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", PostgresImage, err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, fmt.Errorf("resolve container DSN: %w", err)
	}
	return &Postgres{PostgresContainer: ctr, DSN: dsn}, nil
}
