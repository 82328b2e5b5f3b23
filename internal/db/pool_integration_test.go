package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/db"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/logging"
	testhelpers "github.com/se-tech-pvt-ltd/recorder-dashboard/internal/testing"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

func connect(t *testing.T) recorder.ConnPool {
	t.Helper()

	config := testhelpers.NewTestConfig(t)
	config.MaxConns = 2

	connector, err := db.NewConnector(config, logging.NewNullLogger())
	require.NoError(t, err)

	pool, err := connector.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPool_ReadWriteAgainstPostgres(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	require.NoError(t, conn.Ping(ctx))

	_, err = conn.Exec(ctx, `CREATE TABLE items (id BIGSERIAL PRIMARY KEY, code TEXT UNIQUE NOT NULL, qty INT)`)
	require.NoError(t, err)

	res, err := conn.Exec(ctx, `INSERT INTO items (code, qty) VALUES ($1, $2) RETURNING id`, "a", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.AffectedRows)
	require.NotNil(t, res.InsertID)
	assert.EqualValues(t, 1, *res.InsertID)

	res, err = conn.Exec(ctx, `INSERT INTO items (code, qty) VALUES ($1, $2), ($3, $4)`, "b", 2, "c", 3)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.AffectedRows)
	assert.Nil(t, res.InsertID)

	res, err = conn.Exec(ctx, `UPDATE items SET qty = qty + 1 WHERE qty >= $1`, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.AffectedRows)

	rows, err := conn.Query(ctx, `SELECT code, qty FROM items ORDER BY code`)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0]["code"])
	assert.EqualValues(t, 4, rows[2]["qty"])

	rows, err = conn.Query(ctx, `SELECT code FROM items WHERE qty > 100`)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = conn.Exec(ctx, `INSERT INTO items (code) VALUES ($1)`, "a")
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr), "expected PgError, got %v", err)
	assert.Equal(t, "23505", pgErr.Code)
}

func TestPool_LimitsCheckedOutConnections(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()

	first, err := pool.Acquire(ctx)
	require.NoError(t, err)
	second, err := pool.Acquire(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, pool.Stat().InUse)

	first.Release()
	third, err := pool.Acquire(ctx)
	require.NoError(t, err)

	second.Release()
	third.Release()
	assert.Equal(t, 0, pool.Stat().InUse)
}
