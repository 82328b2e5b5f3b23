package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

func opErr(op string, errno syscall.Errno) error {
	return &net.OpError{
		Op:  op,
		Net: "tcp",
		Err: os.NewSyscallError(op, errno),
	}
}

func TestConnectivityClassifier_Transient(t *testing.T) {
	classifier := NewConnectivityClassifier()

	tests := []struct {
		name string
		err  error
	}{
		{"connection reset", opErr("read", syscall.ECONNRESET)},
		{"connection refused", opErr("dial", syscall.ECONNREFUSED)},
		{"timed out errno", opErr("dial", syscall.ETIMEDOUT)},
		{"broken pipe", opErr("write", syscall.EPIPE)},
		{"host not found", &net.DNSError{Err: "no such host", Name: "db.invalid", IsNotFound: true}},
		{"unexpected eof", fmt.Errorf("receive message: %w", io.ErrUnexpectedEOF)},
		{"deadline exceeded on socket", fmt.Errorf("read: %w", os.ErrDeadlineExceeded)},
		{"pg connection failure (08006)", &pgconn.PgError{Code: "08006", Message: "connection failure"}},
		{"pg unable to connect (08001)", &pgconn.PgError{Code: "08001"}},
		{"pg admin shutdown (57P01)", &pgconn.PgError{Code: "57P01", Message: "terminating connection due to administrator command"}},
		{"pg starting up (57P03)", &pgconn.PgError{Code: "57P03", Message: "the database system is starting up"}},
		{"wrapped reset", fmt.Errorf("query branches: %w", opErr("read", syscall.ECONNRESET))},
		{"message ECONNRESET", errors.New("read ECONNRESET")},
		{"message protocol lost", errors.New("PROTOCOL_CONNECTION_LOST: Connection lost: The server closed the connection.")},
		{"message refused", errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !classifier.IsTransient(tt.err) {
				t.Errorf("IsTransient(%v) = false, want true", tt.err)
			}
		})
	}
}

func TestConnectivityClassifier_Permanent(t *testing.T) {
	classifier := NewConnectivityClassifier()

	tests := []struct {
		name string
		err  error
	}{
		{"nil", nil},
		{"unique violation (23505)", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}},
		{"foreign key (23503)", &pgconn.PgError{Code: "23503"}},
		{"syntax error (42601)", &pgconn.PgError{Code: "42601", Message: "syntax error at or near"}},
		{"undefined table (42P01)", &pgconn.PgError{Code: "42P01"}},
		{"auth failed (28P01)", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}},
		{"serialization failure (40001)", &pgconn.PgError{Code: "40001"}},
		{"too many connections (53300)", &pgconn.PgError{Code: "53300"}},
		{"pool exhausted", fmt.Errorf("acquire: %w", recorder.ErrPoolExhausted)},
		{"param mismatch", recorder.ErrParamMismatch},
		{"caller cancelled", context.Canceled},
		{"generic", errors.New("something else went wrong")},
		{"permission denied errno", opErr("dial", syscall.EACCES)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if classifier.IsTransient(tt.err) {
				t.Errorf("IsTransient(%v) = true, want false", tt.err)
			}
		})
	}
}
