// Package schema creates the dashboard tables at startup.
//
// Every statement is idempotent (IF NOT EXISTS), so the initializer can run
// against an empty database or one that is already fully provisioned.
package schema

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// State tracks the lifecycle of an Initializer.
type State int32

const (
	StateNotStarted State = iota
	StateRunning
	StateCompleted
	StateCompletedWithErrors
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCompletedWithErrors:
		return "completed with errors"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// TableError records why one table could not be created.
type TableError struct {
	Table string
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %s: %v", e.Table, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// Report is the outcome of one initialization run.
type Report struct {
	Ready    []string
	Failures []*TableError
}

// Err joins every table failure, or returns nil when all tables are ready.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Initializer creates tables through a QueryExecutor, so each statement
// gets the same connectivity retries as any other query.
// A failing table is logged and skipped; the remaining tables are still attempted.
type Initializer struct {
	exec   recorder.QueryExecutor
	tables []Table
	logger recorder.Logger

	once   sync.Once
	state  atomic.Int32
	report Report
}

// NewInitializer creates an Initializer for tables, in order.
func NewInitializer(exec recorder.QueryExecutor, tables []Table, logger recorder.Logger) *Initializer {
	return &Initializer{
		exec:   exec,
		tables: tables,
		logger: logger,
	}
}

// State reports where the initializer is in its lifecycle.
func (i *Initializer) State() State {
	return State(i.state.Load())
}

// Run creates every table once. Later calls, including concurrent ones,
// wait for the first run and return its report without touching the database.
func (i *Initializer) Run(ctx context.Context) Report {
	i.once.Do(func() {
		i.state.Store(int32(StateRunning))
		i.report = i.run(ctx)
		if len(i.report.Failures) > 0 {
			i.state.Store(int32(StateCompletedWithErrors))
		} else {
			i.state.Store(int32(StateCompleted))
		}
	})
	return i.report
}

func (i *Initializer) run(ctx context.Context) Report {
	var report Report

	for _, table := range i.tables {
		if err := i.createTable(ctx, table); err != nil {
			i.logger.Error("Failed to initialize table %s: %v", table.Name, err)
			report.Failures = append(report.Failures, &TableError{Table: table.Name, Err: err})
			continue
		}
		i.logger.Verbose("Table %s ready", table.Name)
		report.Ready = append(report.Ready, table.Name)
	}

	if len(report.Failures) > 0 {
		i.logger.Error("Schema initialization finished with %d of %d tables failing", len(report.Failures), len(i.tables))
	} else {
		i.logger.Info("Schema initialized (%d tables)", len(report.Ready))
	}
	return report
}

func (i *Initializer) createTable(ctx context.Context, table Table) error {
	for _, stmt := range table.Statements() {
		if _, err := i.exec.ExecuteWrite(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
