package retry

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// recordingSleeper records requested delays instead of waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func (r *recordingSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range r.delays {
		sum += d
	}
	return sum
}

// mockOperation tracks invocation count and simulates transient failures
type mockOperation struct {
	invocations  int
	failUntil    int // Fail for invocations < failUntil
	transientErr error
	fatalErr     error
}

func (m *mockOperation) execute(ctx context.Context) error {
	m.invocations++

	if m.invocations < m.failUntil {
		if m.transientErr != nil {
			return m.transientErr
		}
		return &pgconn.PgError{Code: "08006", Message: "connection failure"}
	}

	if m.invocations == m.failUntil && m.fatalErr != nil {
		return m.fatalErr
	}

	return nil
}

func newTestExecutor(maxAttempts int) (*Executor, *recordingSleeper) {
	sleeper := &recordingSleeper{}
	executor := NewExecutor(NewConnectivityClassifier(), NewExponentialBackoff(maxAttempts)).
		WithSleeper(sleeper.sleep)
	return executor, sleeper
}

// execute runs an error-only operation through Do.
func execute(ctx context.Context, e *Executor, operation func(ctx context.Context) error) error {
	_, err := Do(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}

func econnreset() error {
	return os.NewSyscallError("read", syscall.ECONNRESET)
}

func TestExecutor_Do_SuccessOnFirstAttempt(t *testing.T) {
	executor, sleeper := newTestExecutor(3)
	op := &mockOperation{failUntil: 1}

	if err := execute(context.Background(), executor, op.execute); err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if op.invocations != 1 {
		t.Errorf("Expected 1 invocation, got %d", op.invocations)
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("Expected no backoff, got %v", sleeper.delays)
	}
}

func TestDo_SucceedsOnThirdAttemptAfterTransientFailures(t *testing.T) {
	executor, sleeper := newTestExecutor(3)

	calls := 0
	rows, err := Do(context.Background(), executor, func(ctx context.Context) ([]map[string]any, error) {
		calls++
		if calls < 3 {
			return nil, econnreset()
		}
		return []map[string]any{{"id": 1}}, nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	if len(rows) != 1 || rows[0]["id"] != 1 {
		t.Errorf("Expected result of attempt 3, got %v", rows)
	}

	wantDelays := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(sleeper.delays) != len(wantDelays) {
		t.Fatalf("Expected delays %v, got %v", wantDelays, sleeper.delays)
	}
	for i := range wantDelays {
		if sleeper.delays[i] != wantDelays[i] {
			t.Errorf("delay %d = %v, want %v", i, sleeper.delays[i], wantDelays[i])
		}
	}
	if sleeper.total() < 6*time.Second {
		t.Errorf("Expected at least 6s of backoff, got %v", sleeper.total())
	}
}

func TestExecutor_Do_PermanentErrorNoRetry(t *testing.T) {
	for _, ceiling := range []int{1, 3, 10, -1} {
		executor, sleeper := newTestExecutor(ceiling)

		dupErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		op := &mockOperation{failUntil: 2, transientErr: dupErr}

		err := execute(context.Background(), executor, op.execute)

		if err != dupErr {
			t.Errorf("ceiling %d: expected the exact duplicate-key error, got %v", ceiling, err)
		}
		if op.invocations != 1 {
			t.Errorf("ceiling %d: expected 1 invocation, got %d", ceiling, op.invocations)
		}
		if len(sleeper.delays) != 0 {
			t.Errorf("ceiling %d: expected zero backoff, got %v", ceiling, sleeper.delays)
		}
	}
}

func TestExecutor_Do_ExhaustedReturnsLastError(t *testing.T) {
	executor, sleeper := newTestExecutor(3)

	errs := []error{
		econnreset(),
		&pgconn.PgError{Code: "08006", Message: "connection failure"},
		&pgconn.PgError{Code: "57P01", Message: "terminating connection"},
	}
	calls := 0
	err := execute(context.Background(), executor, func(ctx context.Context) error {
		e := errs[calls]
		calls++
		return e
	})

	if calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", calls)
	}
	if err != errs[2] {
		t.Errorf("Expected last underlying error %v, got %v", errs[2], err)
	}
	if len(sleeper.delays) != 2 {
		t.Errorf("Expected 2 backoff waits, got %v", sleeper.delays)
	}
}

func TestExecutor_Do_TransientThenPermanent(t *testing.T) {
	executor, _ := newTestExecutor(5)

	fatalErr := &pgconn.PgError{Code: "42601", Message: "syntax error"}
	op := &mockOperation{failUntil: 3, fatalErr: fatalErr}

	err := execute(context.Background(), executor, op.execute)

	if !errors.Is(err, fatalErr) {
		t.Errorf("Expected fatal error, got %v", err)
	}
	if op.invocations != 3 {
		t.Errorf("Expected 3 invocations (2 transient + 1 fatal), got %d", op.invocations)
	}
}

func TestExecutor_Do_OnRetryCallback(t *testing.T) {
	var attempts []Attempt
	executor, _ := newTestExecutor(4)
	executor = executor.WithOnRetry(func(a Attempt) {
		attempts = append(attempts, a)
	})

	op := &mockOperation{failUntil: 4}
	if err := execute(context.Background(), executor, op.execute); err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}

	if len(attempts) != 3 {
		t.Fatalf("Expected 3 retry callbacks, got %d", len(attempts))
	}
	for i, a := range attempts {
		if a.Number != i+1 {
			t.Errorf("callback %d: Number = %d, want %d", i, a.Number, i+1)
		}
		if a.Max != 4 {
			t.Errorf("callback %d: Max = %d, want 4", i, a.Max)
		}
		if want := time.Duration(2<<i) * time.Second; a.Delay != want {
			t.Errorf("callback %d: Delay = %v, want %v", i, a.Delay, want)
		}
		if a.Err == nil {
			t.Errorf("callback %d: expected error", i)
		}
	}
}

func TestExecutor_WithOnRetry_DoesNotMutateOriginal(t *testing.T) {
	base, _ := newTestExecutor(2)
	called := false
	_ = base.WithOnRetry(func(Attempt) { called = true })

	op := &mockOperation{failUntil: 2}
	if err := execute(context.Background(), base, op.execute); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if called {
		t.Error("original executor should not invoke a callback set on a clone")
	}
}

func TestExecutor_Do_SingleAttemptCeiling(t *testing.T) {
	executor, sleeper := newTestExecutor(1)
	op := &mockOperation{failUntil: 999}

	if err := execute(context.Background(), executor, op.execute); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if op.invocations != 1 {
		t.Errorf("Expected 1 invocation, got %d", op.invocations)
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("Expected no backoff, got %v", sleeper.delays)
	}
}

func TestExecutor_Do_ContextCancellationDuringBackoff(t *testing.T) {
	executor := NewExecutor(NewConnectivityClassifier(), NewExponentialBackoff(10,
		WithInitialDelay(1*time.Second),
	))

	ctx, cancel := context.WithCancel(context.Background())
	op := &mockOperation{failUntil: 999}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := execute(ctx, executor, op.execute)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if op.invocations != 1 {
		t.Errorf("Expected 1 invocation before cancellation, got %d", op.invocations)
	}
}

func TestExecutor_ConcurrentCallsAreIndependent(t *testing.T) {
	executor, _ := newTestExecutor(3)

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			calls := 0
			n, err := Do(context.Background(), executor, func(ctx context.Context) (int, error) {
				calls++
				if i%2 == 0 && calls == 1 {
					return 0, econnreset()
				}
				return calls, nil
			})
			if err != nil {
				t.Errorf("goroutine %d: %v", i, err)
			}
			results[i] = n
		}(i)
	}
	wg.Wait()

	for i, n := range results {
		want := 1
		if i%2 == 0 {
			want = 2
		}
		if n != want {
			t.Errorf("goroutine %d: attempts = %d, want %d", i, n, want)
		}
	}
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil classifier")
		}
	}()
	NewExecutor(nil, NewExponentialBackoff(3))
}
