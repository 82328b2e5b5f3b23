// Package startup brings the database layer up: it builds the pool, proves
// the database is reachable, and provisions the schema.
package startup

import (
	"context"
	"errors"
	"fmt"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/db"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/query"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/retry"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/schema"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// Options configures Run. Config and Logger are required.
type Options struct {
	Config *recorder.ConnectionConfig
	Logger recorder.Logger

	// Connector overrides the connector selected from Config.AuthMethod.
	Connector recorder.Connector

	// Retry overrides the default retry policy of the query executor.
	Retry *retry.Executor

	// Tables overrides schema.Tables().
	Tables []schema.Table

	// SkipSchema stops after the connectivity probe.
	SkipSchema bool
}

// Runtime is the database layer handed to the HTTP handlers.
type Runtime struct {
	Pool     recorder.ConnPool
	Executor *query.Executor
	Schema   schema.Report
}

// Close releases every pooled connection.
func (r *Runtime) Close() {
	r.Pool.Close()
}

// Run builds the pool and probes it. A failed probe is fatal and returns an
// error matching recorder.ErrConnectionFailed. Schema failures are logged
// and reported in Runtime.Schema but never fail startup, so the service can
// still run against tables created by other means.
func Run(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, logger := opts.Config, opts.Logger

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Initializing database connection...")

	connector := opts.Connector
	if connector == nil {
		var err error
		connector, err = db.NewConnector(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, connectionFailed(logger, cfg, err)
	}

	if err := Probe(ctx, pool); err != nil {
		pool.Close()
		return nil, connectionFailed(logger, cfg, err)
	}
	logger.Info("Database connected successfully to %s", cfg.Database)

	rt := &Runtime{
		Pool:     pool,
		Executor: query.NewExecutor(pool, opts.Retry, logger),
	}

	if opts.SkipSchema {
		return rt, nil
	}

	tables := opts.Tables
	if tables == nil {
		tables = schema.Tables()
	}
	rt.Schema = schema.NewInitializer(rt.Executor, tables, logger).Run(ctx)
	if err := rt.Schema.Err(); err != nil {
		logger.Error("Failed to initialize database tables, continuing with the existing schema: %v", err)
		return rt, nil
	}

	logger.Info("Database initialized successfully")
	return rt, nil
}

// Probe acquires one connection, pings it and releases it.
func Probe(ctx context.Context, pool recorder.ConnPool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return conn.Ping(ctx)
}

// connectionFailed logs where the service tried to connect and returns
// err wrapped with recorder.ErrConnectionFailed. The password is never logged.
func connectionFailed(logger recorder.Logger, cfg *recorder.ConnectionConfig, err error) error {
	if !errors.Is(err, recorder.ErrConnectionFailed) {
		err = db.WrapConnectionError(err, cfg)
	}

	logger.Error("Database connection failed: %v", err)
	logger.Error("   Host: %s", cfg.Host)
	logger.Error("   Port: %d", cfg.Port)
	logger.Error("   Database: %s", cfg.Database)
	logger.Error("   User: %s", cfg.Username)
	logger.Error("   Auth: %s", cfg.AuthMethod)
	logger.Error("Check DB_HOST, DB_PORT, DB_NAME, DB_USER and DB_PASS in the environment or .env file")

	return fmt.Errorf("database startup: %w", err)
}
