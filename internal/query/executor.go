// Package query runs parameterized statements against the connection pool,
// retrying connectivity faults with exponential backoff.
package query

import (
	"context"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/retry"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// Executor implements recorder.QueryExecutor on top of a ConnPool.
// Each attempt acquires its own connection and releases it before any
// backoff wait, so a retrying caller never holds a pool slot while sleeping.
//
// Thread-Safety: Safe for concurrent use. Calls share nothing but the pool.
type Executor struct {
	pool   recorder.ConnPool
	retry  *retry.Executor
	logger recorder.Logger
}

// NewExecutor creates an Executor. A nil retryExecutor selects
// retry.NewDefaultExecutor().
func NewExecutor(pool recorder.ConnPool, retryExecutor *retry.Executor, logger recorder.Logger) *Executor {
	if retryExecutor == nil {
		retryExecutor = retry.NewDefaultExecutor()
	}
	return &Executor{
		pool:   pool,
		retry:  retryExecutor,
		logger: logger,
	}
}

// ExecuteRead runs a query and returns every row. An empty result is an
// empty, non-nil slice.
func (e *Executor) ExecuteRead(ctx context.Context, sql string, params ...recorder.Value) ([]recorder.Row, error) {
	return run(ctx, e, sql, params, func(ctx context.Context, conn recorder.PooledConn, args []any) ([]recorder.Row, error) {
		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []recorder.Row{}
		}
		return rows, nil
	})
}

// ExecuteWrite runs an INSERT, UPDATE, DELETE or DDL statement.
func (e *Executor) ExecuteWrite(ctx context.Context, sql string, params ...recorder.Value) (recorder.WriteResult, error) {
	return run(ctx, e, sql, params, func(ctx context.Context, conn recorder.PooledConn, args []any) (recorder.WriteResult, error) {
		return conn.Exec(ctx, sql, args...)
	})
}

// run validates the bind values once, then retries fn on a fresh connection
// per attempt.
func run[T any](
	ctx context.Context,
	e *Executor,
	sql string,
	params []recorder.Value,
	fn func(ctx context.Context, conn recorder.PooledConn, args []any) (T, error),
) (T, error) {
	var zero T
	if err := checkPlaceholders(sql, params); err != nil {
		return zero, err
	}

	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.Any()
	}

	e.logger.Verbose("query: %s (%d bind values)", sql, len(params))

	maxAttempts := e.retry.MaxAttempts()
	attempt := 0

	return retry.Do(ctx, e.retry, func(ctx context.Context) (T, error) {
		attempt++
		result, err := withConn(ctx, e.pool, args, fn)
		if err != nil {
			e.logger.Error("database query error (attempt %d/%d): %v", attempt, maxAttempts, err)
			return zero, err
		}
		return result, nil
	})
}

// withConn runs fn on a connection that is released on every path.
func withConn[T any](
	ctx context.Context,
	pool recorder.ConnPool,
	args []any,
	fn func(ctx context.Context, conn recorder.PooledConn, args []any) (T, error),
) (T, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer conn.Release()

	return fn(ctx, conn, args)
}

var _ recorder.QueryExecutor = (*Executor)(nil)
