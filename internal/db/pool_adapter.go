package db

import (
	"context"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// connSource is the raw connection supply behind Pool.
// *pgxpool.Pool satisfies it through pgxSource; tests substitute fakes.
type connSource interface {
	acquire(ctx context.Context) (recorder.PooledConn, error)
	close()
}

// pgxSource adapts *pgxpool.Pool so pgx types stay inside this package.
type pgxSource struct {
	pool *pgxpool.Pool
}

func (s pgxSource) acquire(ctx context.Context) (recorder.PooledConn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: conn}, nil
}

func (s pgxSource) close() {
	s.pool.Close()
}

// pgxConn adapts *pgxpool.Conn to implement recorder.PooledConn.
type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) ([]recorder.Row, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	result := make([]recorder.Row, len(maps))
	for i, m := range maps {
		result[i] = recorder.Row(m)
	}
	return result, nil
}

var returningClause = regexp.MustCompile(`(?is)\breturning\b`)

// Exec runs a write. Statements with a RETURNING clause report the first
// column of the first row as InsertID when it is an integer.
func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (recorder.WriteResult, error) {
	if !returningClause.MatchString(sql) {
		tag, err := c.conn.Exec(ctx, sql, args...)
		if err != nil {
			return recorder.WriteResult{}, err
		}
		return recorder.WriteResult{AffectedRows: tag.RowsAffected()}, nil
	}

	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return recorder.WriteResult{}, err
	}
	defer rows.Close()

	var result recorder.WriteResult
	if rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return recorder.WriteResult{}, err
		}
		if len(values) > 0 {
			result.InsertID = toInsertID(values[0])
		}
	}

	// The command tag is only available once the result set is drained.
	rows.Close()
	if err := rows.Err(); err != nil {
		return recorder.WriteResult{}, err
	}
	result.AffectedRows = rows.CommandTag().RowsAffected()
	return result, nil
}

func (c *pgxConn) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *pgxConn) Release() {
	c.conn.Release()
}

func toInsertID(v any) *int64 {
	var id int64
	switch n := v.(type) {
	case int64:
		id = n
	case int32:
		id = int64(n)
	case int16:
		id = int64(n)
	default:
		return nil
	}
	return &id
}

var (
	_ connSource          = pgxSource{}
	_ recorder.PooledConn = (*pgxConn)(nil)
)
