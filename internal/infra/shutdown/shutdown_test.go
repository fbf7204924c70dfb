package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"syscall"
	"testing"
	"time"
)

func newTestHandler(timeout time.Duration) *Handler {
	return NewHandler(timeout, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func waitResult(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
		return nil
	}
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5 * time.Second)
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.logger == nil {
		t.Error("logger is nil")
	}
	select {
	case <-h.Done():
		t.Error("Done closed before shutdown")
	default:
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	var mu sync.Mutex
	var callOrder []int
	for i := 1; i <= 3; i++ {
		h.OnShutdown("hook", func(context.Context) error {
			mu.Lock()
			callOrder = append(callOrder, i)
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(context.Background())
	}()

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	if err := waitResult(t, errCh); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(callOrder) != 3 || callOrder[0] != 3 || callOrder[1] != 2 || callOrder[2] != 1 {
		t.Errorf("hooks called in wrong order: %v, want [3 2 1]", callOrder)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Wait_ContextCancel(t *testing.T) {
	h := newTestHandler(time.Second)
	called := false
	h.OnShutdown("flag", func(context.Context) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()
	cancel()

	if err := waitResult(t, errCh); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}
	if !called {
		t.Error("hook not called")
	}
}

func TestHandler_Trigger(t *testing.T) {
	h := newTestHandler(time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()

	h.Trigger()
	h.Trigger()

	if err := waitResult(t, errCh); err != nil {
		t.Errorf("Wait() returned error: %v", err)
	}
}

func TestHandler_Wait_HookError(t *testing.T) {
	h := newTestHandler(time.Second)
	errBoom := errors.New("boom")

	laterRan := false
	h.OnShutdown("late", func(context.Context) error {
		laterRan = true
		return nil
	})
	h.OnShutdown("ledger", func(context.Context) error { return errBoom })

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()
	h.Trigger()

	err := waitResult(t, errCh)
	if !errors.Is(err, errBoom) {
		t.Fatalf("Wait() error = %v, want boom", err)
	}
	if got := err.Error(); got != "ledger: boom" {
		t.Errorf("error = %q, want hook name prefix", got)
	}
	if !laterRan {
		t.Error("a failing hook stopped later hooks")
	}
}

func TestHandler_HookTimeout(t *testing.T) {
	h := newTestHandler(50 * time.Millisecond)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()
	h.Trigger()

	if err := waitResult(t, errCh); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := newTestHandler(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 50 {
		t.Errorf("registered %d hooks, want 50", len(h.hooks))
	}
}
