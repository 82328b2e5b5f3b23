package schema

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/logging"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// fakeExecutor fails any statement mentioning one of the failing tables.
type fakeExecutor struct {
	mu         sync.Mutex
	statements []string
	failing    map[string]error
}

func (f *fakeExecutor) ExecuteRead(ctx context.Context, sql string, params ...recorder.Value) ([]recorder.Row, error) {
	return nil, errors.New("not used")
}

func (f *fakeExecutor) ExecuteWrite(ctx context.Context, sql string, params ...recorder.Value) (recorder.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, sql)
	for table, err := range f.failing {
		if strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			return recorder.WriteResult{}, err
		}
	}
	return recorder.WriteResult{}, nil
}

func (f *fakeExecutor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statements)
}

func totalStatements(tables []Table) int {
	n := 0
	for _, t := range tables {
		n += len(t.Statements())
	}
	return n
}

func TestTables_OrderAndIdempotentDDL(t *testing.T) {
	want := []string{"branches", "devices", "heartbeat", "recordings", "users", "deployments", "complaints", "password_reset_tokens"}
	tables := Tables()
	if len(tables) != len(want) {
		t.Fatalf("got %d tables, want %d", len(tables), len(want))
	}

	for i, table := range tables {
		if table.Name != want[i] {
			t.Errorf("table %d = %s, want %s", i, table.Name, want[i])
		}
		if !strings.HasPrefix(table.DDL, "CREATE TABLE IF NOT EXISTS "+table.Name+" (") {
			t.Errorf("%s DDL is not idempotent: %.60s", table.Name, table.DDL)
		}
		for _, idx := range table.Indexes {
			if !strings.HasPrefix(idx, "CREATE INDEX IF NOT EXISTS ") {
				t.Errorf("%s index is not idempotent: %s", table.Name, idx)
			}
		}
	}
}

func TestTables_ReferencesPointBackwards(t *testing.T) {
	seen := map[string]bool{}
	for _, table := range Tables() {
		for _, other := range Tables() {
			if strings.Contains(table.DDL, "REFERENCES "+other.Name+" ") && !seen[other.Name] {
				t.Errorf("%s references %s before it is created", table.Name, other.Name)
			}
		}
		seen[table.Name] = true
	}
}

func TestTables_ReturnsCopy(t *testing.T) {
	tables := Tables()
	tables[0].Name = "mutated"
	if Tables()[0].Name != "branches" {
		t.Error("Tables() exposes the package-level slice")
	}
}

func TestInitializer_AllTablesReady(t *testing.T) {
	exec := &fakeExecutor{}
	logger := logging.NewMemoryLogger()
	initializer := NewInitializer(exec, Tables(), logger)

	if initializer.State() != StateNotStarted {
		t.Fatalf("initial state = %v", initializer.State())
	}

	report := initializer.Run(context.Background())

	if err := report.Err(); err != nil {
		t.Fatalf("report.Err() = %v", err)
	}
	if len(report.Ready) != len(Tables()) {
		t.Errorf("ready = %v", report.Ready)
	}
	if initializer.State() != StateCompleted {
		t.Errorf("state = %v, want completed", initializer.State())
	}
	if exec.count() != totalStatements(Tables()) {
		t.Errorf("statements = %d, want %d", exec.count(), totalStatements(Tables()))
	}
	if !logger.Contains("Schema initialized (8 tables)") {
		t.Errorf("missing summary: %q", logger.Lines())
	}
}

func TestInitializer_FailureDoesNotAbortOthers(t *testing.T) {
	devicesErr := &pgconn.PgError{Code: "42501", Message: "permission denied for schema public"}
	exec := &fakeExecutor{failing: map[string]error{"devices": devicesErr}}
	logger := logging.NewMemoryLogger()
	initializer := NewInitializer(exec, Tables(), logger)

	report := initializer.Run(context.Background())

	if len(report.Failures) != 1 || report.Failures[0].Table != "devices" {
		t.Fatalf("failures = %v", report.Failures)
	}
	if len(report.Ready) != len(Tables())-1 {
		t.Errorf("ready = %v", report.Ready)
	}
	for _, name := range report.Ready {
		if name == "devices" {
			t.Error("devices reported ready")
		}
	}

	err := report.Err()
	if !errors.Is(err, devicesErr) {
		t.Errorf("report.Err() does not wrap the devices failure: %v", err)
	}
	var tableErr *TableError
	if !errors.As(err, &tableErr) || tableErr.Table != "devices" {
		t.Errorf("errors.As TableError = %v", tableErr)
	}

	if initializer.State() != StateCompletedWithErrors {
		t.Errorf("state = %v, want completed with errors", initializer.State())
	}
	if !logger.Contains("[ERROR] Failed to initialize table devices") {
		t.Errorf("missing failure log: %q", logger.Lines())
	}
	// devices has one index that is skipped with its table.
	if want := totalStatements(Tables()) - 1; exec.count() != want {
		t.Errorf("statements = %d, want %d", exec.count(), want)
	}
}

func TestInitializer_MultipleFailuresJoined(t *testing.T) {
	usersErr := errors.New("users failed")
	heartbeatErr := errors.New("heartbeat failed")
	exec := &fakeExecutor{failing: map[string]error{"users": usersErr, "heartbeat": heartbeatErr}}
	initializer := NewInitializer(exec, Tables(), logging.NewNullLogger())

	err := initializer.Run(context.Background()).Err()
	if !errors.Is(err, usersErr) || !errors.Is(err, heartbeatErr) {
		t.Errorf("joined error missing a failure: %v", err)
	}
}

func TestInitializer_RunsOnce(t *testing.T) {
	exec := &fakeExecutor{failing: map[string]error{"complaints": errors.New("boom")}}
	initializer := NewInitializer(exec, Tables(), logging.NewNullLogger())

	first := initializer.Run(context.Background())
	calls := exec.count()

	second := initializer.Run(context.Background())
	if exec.count() != calls {
		t.Errorf("second Run touched the database (%d -> %d statements)", calls, exec.count())
	}
	if len(second.Failures) != len(first.Failures) || len(second.Ready) != len(first.Ready) {
		t.Errorf("second report differs: %+v vs %+v", second, first)
	}
}

func TestInitializer_ConcurrentRunsShareOneExecution(t *testing.T) {
	exec := &fakeExecutor{}
	initializer := NewInitializer(exec, Tables(), logging.NewNullLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := initializer.Run(context.Background()).Err(); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if exec.count() != totalStatements(Tables()) {
		t.Errorf("statements = %d, want %d", exec.count(), totalStatements(Tables()))
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateNotStarted:          "not started",
		StateRunning:             "running",
		StateCompleted:           "completed",
		StateCompletedWithErrors: "completed with errors",
		State(9):                 "State(9)",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int32(state), got, want)
		}
	}
}
