package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// PostgreSQL error codes that mean the server dropped or refused the connection.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 08 - Connection Exception (matched by prefix)
	pgClassConnectionException = "08"

	// Class 57 - Operator Intervention
	pgCodeAdminShutdown    = "57P01"
	pgCodeCrashShutdown    = "57P02"
	pgCodeCannotConnectNow = "57P03"
)

// ConnectivityClassifier implements recorder.ErrorClassifier.
//
// Only connection-layer faults are transient: connection reset, connection
// refused, host not found, timed out, and connection lost mid-protocol.
// Anything else (constraint violations, syntax errors, authentication
// failures, pool exhaustion) is permanent, because retrying it either
// cannot help or could repeat a side effect.
type ConnectivityClassifier struct{}

// NewConnectivityClassifier creates a new connectivity classifier.
func NewConnectivityClassifier() *ConnectivityClassifier {
	return &ConnectivityClassifier{}
}

// IsTransient determines if an error is a recoverable connectivity fault.
func (c *ConnectivityClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Errors we raise ourselves and caller cancellation are never retried.
	if errors.Is(err, recorder.ErrPoolExhausted) ||
		errors.Is(err, recorder.ErrParamMismatch) ||
		errors.Is(err, recorder.ErrUnsupportedValue) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isConnectionLostCode(pgErr.Code)
	}

	if isNetworkError(err) {
		return true
	}

	return isConnectionErrorMessage(err)
}

// isConnectionLostCode reports whether a SQLSTATE means the session was lost or refused.
func isConnectionLostCode(code string) bool {
	if strings.HasPrefix(code, pgClassConnectionException) {
		return true
	}
	switch code {
	case pgCodeAdminShutdown, pgCodeCrashShutdown, pgCodeCannotConnectNow:
		return true
	}
	return false
}

// isNetworkError checks socket- and resolver-level errors.
func isNetworkError(err error) bool {
	// Host not found
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ECONNABORTED):
		return true
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, os.ErrDeadlineExceeded):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// pgconn reports dial and read timeouts this way, including its own connect_timeout.
	return pgconn.Timeout(err) && !errors.Is(err, context.Canceled)
}

// isConnectionErrorMessage matches faults that reach us only as text,
// e.g. when a driver or proxy flattens the underlying error.
func isConnectionErrorMessage(err error) bool {
	errMsg := strings.ToLower(err.Error())

	transientPatterns := []string{
		"econnreset",
		"econnrefused",
		"enotfound",
		"etimedout",
		"protocol_connection_lost",
		"connection reset",
		"connection refused",
		"no such host",
		"i/o timeout",
		"timed out",
		"broken pipe",
		"unexpected eof",
		"server closed the connection",
		"conn closed",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

var _ recorder.ErrorClassifier = (*ConnectivityClassifier)(nil)
