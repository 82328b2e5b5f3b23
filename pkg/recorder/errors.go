package recorder

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	rows, err := executor.ExecuteRead(ctx, sql)
//	if errors.Is(err, recorder.ErrPoolExhausted) {
//	    // Shed load instead of queueing more work
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingCredential indicates a required database credential was not supplied.
	ErrMissingCredential = errors.New("missing database credential")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrPoolExhausted indicates every connection is in use and the wait queue is full.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrParamMismatch indicates the placeholder count of a statement does not match its bind values.
	ErrParamMismatch = errors.New("placeholder count does not match bind values")

	// ErrUnsupportedValue indicates a bind value has a type the driver cannot bind.
	ErrUnsupportedValue = errors.New("unsupported bind value type")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrMissingCredential),
		errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	errStr := err.Error()
	if isUsageError(errStr) {
		return ExitUsageError
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// isUsageError recognizes the messages cobra/pflag produce for bad invocations.
func isUsageError(msg string) bool {
	usagePrefixes := []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"required flag",
		"invalid argument",
		"flag needs an argument",
	}
	for _, prefix := range usagePrefixes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
