package recorder

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or missing credentials
	ExitConnectionError = 11 // Failed to connect to database
)

const (
	// DefaultHost is used when DB_HOST is not set.
	DefaultHost = "localhost"

	// DefaultPort is the PostgreSQL port used when DB_PORT is not set.
	DefaultPort = 5432

	// DefaultSSLMode is the libpq sslmode used when none is configured.
	DefaultSSLMode = "prefer"

	// DefaultMaxConns is the maximum number of concurrently checked-out connections.
	DefaultMaxConns = 10

	// DefaultQueueLimit is the maximum number of callers waiting for a connection.
	// Zero means the queue is unbounded.
	DefaultQueueLimit = 0

	// DefaultMaxConnIdleTime keeps idle connections around between bursts of requests.
	DefaultMaxConnIdleTime = 30 * time.Minute

	// DefaultRetryMaxAttempts is the total number of attempts per logical query,
	// counting the first one.
	DefaultRetryMaxAttempts = 3

	// DefaultRetryInitialDelay is the wait before the second attempt.
	// Each further wait doubles it: 2s, 4s, 8s, ...
	DefaultRetryInitialDelay = 2 * time.Second

	// DefaultRetryMultiplier is the growth factor between consecutive waits.
	DefaultRetryMultiplier = 2.0

	// DefaultHTTPAddr is the listen address of the dashboard API.
	DefaultHTTPAddr = ":8080"

	// DefaultShutdownTimeout bounds graceful HTTP shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// AppName is reported to PostgreSQL as application_name.
	AppName = "recorder-dashboard"
)
