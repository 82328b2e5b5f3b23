package recorder

import "context"

// ConnPool hands out exclusive connections.
//
// Thread-Safety: implementations must be safe for concurrent use.
type ConnPool interface {
	// Acquire obtains a dedicated connection, waiting for one to become free.
	// Returns ErrPoolExhausted without waiting when the wait queue is full.
	// Caller must call Release() on the returned PooledConn exactly once.
	Acquire(ctx context.Context) (PooledConn, error)

	// Stat reports current usage.
	Stat() PoolStats

	// Close closes all connections. Acquire must not be called afterwards.
	Close()
}

// PooledConn represents a connection acquired from a pool.
// The caller must call Release() when done to return it to the pool.
type PooledConn interface {
	// Query runs a statement and collects every result row.
	Query(ctx context.Context, sql string, args ...any) ([]Row, error)

	// Exec runs a data-modifying statement.
	Exec(ctx context.Context, sql string, args ...any) (WriteResult, error)

	// Ping confirms the connection is alive.
	Ping(ctx context.Context) error

	// Release returns the connection to the pool.
	// After calling Release, the connection should not be used.
	Release()
}

// QueryExecutor is the entry point route handlers use to reach the database.
type QueryExecutor interface {
	// ExecuteRead runs a query and returns its rows.
	ExecuteRead(ctx context.Context, sql string, params ...Value) ([]Row, error)

	// ExecuteWrite runs an INSERT/UPDATE/DELETE/DDL statement.
	ExecuteWrite(ctx context.Context, sql string, params ...Value) (WriteResult, error)
}
