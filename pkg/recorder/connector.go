package recorder

import "context"

// Connector is a unified interface for establishing database connection pools.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM tokens, etc.).
type Connector interface {
	// Connect builds the connection pool. Connections are opened lazily, so a
	// nil error does not prove the database is reachable.
	// The returned pool should be closed by the caller when done.
	Connect(ctx context.Context) (ConnPool, error)
}
