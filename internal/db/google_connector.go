package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// GoogleCloudSQLConnector implements the Connector interface for Google Cloud SQL
// using IAM database authentication via the Cloud SQL Go Connector.
// The dialer is closed together with the returned pool.
type GoogleCloudSQLConnector struct {
	config *recorder.ConnectionConfig
	logger recorder.Logger
}

// NewGoogleCloudSQLConnector creates a connector for Google Cloud SQL IAM authentication.
// config.GoogleInstance is the instance connection name (project:region:instance).
func NewGoogleCloudSQLConnector(config *recorder.ConnectionConfig, logger recorder.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config: config,
		logger: logger,
	}
}

// Connect builds a pool whose connections are dialed through the Cloud SQL
// connector, which handles the IAM login and TLS.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (recorder.ConnPool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}

	dsn := fmt.Sprintf(
		"user=%s dbname=%s sslmode=disable application_name=%s",
		c.config.Username,
		c.config.Database,
		appName(c.config),
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	instance := c.config.GoogleInstance
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, instance)
	}

	configurePool(poolConfig, c.config, c.logger)

	pgxPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		dialer.Close()
		return nil, WrapConnectionError(err, c.config)
	}

	pool := NewPool(pgxPool, c.config.MaxConns, c.config.QueueLimit)
	pool.onClose = func() { dialer.Close() }
	return pool, nil
}
