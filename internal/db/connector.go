package db

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// DefaultMinConns maintains at least one warm connection in the pool.
const DefaultMinConns = 1

// configurePool applies the recorder pool contract to a parsed pgxpool config.
// pgxpool enforces the same MaxConns ceiling as the admission gate in Pool.
func configurePool(poolConfig *pgxpool.Config, config *recorder.ConnectionConfig, logger recorder.Logger) {
	poolConfig.MaxConns = int32(config.MaxConns)
	poolConfig.MinConns = DefaultMinConns
	if poolConfig.MinConns > poolConfig.MaxConns {
		poolConfig.MinConns = poolConfig.MaxConns
	}
	poolConfig.MaxConnIdleTime = recorder.DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres notice: %s", notice.Message)
	}
}

// StandardConnector implements the Connector interface for standard
// username/password authentication.
type StandardConnector struct {
	config *recorder.ConnectionConfig
	logger recorder.Logger
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *recorder.ConnectionConfig, logger recorder.Logger) *StandardConnector {
	return &StandardConnector{
		config: config,
		logger: logger,
	}
}

// Connect builds a bounded pool using standard authentication.
func (c *StandardConnector) Connect(ctx context.Context) (recorder.ConnPool, error) {
	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(c.config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig, c.config, c.logger)

	pgxPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, WrapConnectionError(err, c.config)
	}

	return NewPool(pgxPool, c.config.MaxConns, c.config.QueueLimit), nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *recorder.ConnectionConfig, logger recorder.Logger) (recorder.Connector, error) {
	switch config.AuthMethod {
	case recorder.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case recorder.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case recorder.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case recorder.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, recorder.ErrUnsupportedAuthMethod)
	}
}

// WrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result matches both recorder.ErrConnectionFailed and err under errors.Is.
// The password is never part of the message.
func WrapConnectionError(err error, config *recorder.ConnectionConfig) error {
	return fmt.Errorf("%w: %s\n\nOriginal error: %w", recorder.ErrConnectionFailed, connectionGuidance(err, config), err)
}

func connectionGuidance(err error, config *recorder.ConnectionConfig) string {
	errStr := strings.ToLower(err.Error())
	host, port, database := config.Host, config.Port, config.Database
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong DB_HOST or DB_PORT
  - Firewall blocking the connection`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - DB_HOST is misspelled
  - DNS is not configured or reachable
  - Network connection issue`, host)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Sprintf(`password authentication failed for database "%s"

Possible causes:
  - Wrong DB_PASS
  - Wrong DB_USER
  - User does not have access to the database`, database)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Sprintf(`database "%s" does not exist

To create it:
  createdb %s`, database, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Firewall silently dropping packets`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return `SSL/TLS connection error

Possible causes:
  - Server requires SSL but DB_SSLMODE is wrong
  - Certificate verification failed (try DB_SSLMODE=require)`

	case strings.Contains(errStr, "too many connections"):
		return fmt.Sprintf(`too many connections to database "%s"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Other replicas of this service hold DB_MAX_CONNS connections each`, database)

	default:
		return fmt.Sprintf("failed to connect to database at %s", addr)
	}
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *recorder.ConnectionConfig, logger recorder.Logger) (recorder.Connector, error) {
	endpoint := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *recorder.ConnectionConfig, logger recorder.Logger) (recorder.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires DB_GOOGLE_INSTANCE (project:region:instance): %w", recorder.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires DB_USER: %w", recorder.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, logger), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// If explicit credentials (tenant, client, secret) are provided, uses Service Principal auth.
// Otherwise, falls back to DefaultAzureCredential chain.
func newAzureConnector(config *recorder.ConnectionConfig, logger recorder.Logger) (recorder.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
