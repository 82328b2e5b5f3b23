package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// Every new physical connection is opened with a current token as password.
type TokenBasedConnector struct {
	config        *recorder.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	logger        recorder.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error and warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *recorder.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger recorder.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: newCachedTokenProvider(tokenProvider),
		providerName:  providerName,
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (recorder.ConnPool, error) {
	withoutPassword := *c.config
	withoutPassword.Password = ""

	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&withoutPassword))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig, c.config, c.logger)
	poolConfig.BeforeConnect = c.beforeConnect

	c.logger.Verbose("Using %s token provider %s", c.providerName, c.tokenProvider)

	pgxPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, WrapConnectionError(err, c.config)
	}

	return NewPool(pgxPool, c.config.MaxConns, c.config.QueueLimit), nil
}

// beforeConnect injects the token as the password of a connection about to open.
func (c *TokenBasedConnector) beforeConnect(ctx context.Context, connConfig *pgx.ConnConfig) error {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
	}

	if remaining := time.Until(expiresOn); remaining < tokenRefreshWindow {
		c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
	}

	connConfig.Password = token
	return nil
}
