package core

import (
	"context"
	"errors"
	"testing"
)

// TestInvokeTyped tests the generic synchronous helper
// Main test items:
// 1. The typed callback sees a typed state value and returns a typed result
// 2. Engine-level errors pass through unchanged
func TestInvokeTyped(t *testing.T) {
	eng := New(DefaultConfig())
	runResult := startInvoker(t, eng)
	defer func() {
		eng.Shutdown()
		<-runResult
	}()

	n, err := InvokeTyped(eng, func(ctx context.Context, s string) (int, error) {
		return len(s), nil
	}, "hello")
	if err != nil {
		t.Fatalf("InvokeTyped failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Expected 5, got %d", n)
	}

	wantErr := errors.New("typed failure")
	if _, err := InvokeTyped(eng, func(ctx context.Context, s string) (int, error) {
		return 0, wantErr
	}, "x"); !errors.Is(err, wantErr) {
		t.Errorf("Expected callback error, got %v", err)
	}
}

// TestInvokeTyped_NotStarted tests error passthrough before Run
func TestInvokeTyped_NotStarted(t *testing.T) {
	eng := New(DefaultConfig())

	if _, err := InvokeTyped(eng, func(ctx context.Context, s int) (int, error) {
		return s, nil
	}, 1); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Expected ErrNotStarted, got %v", err)
	}
}

// TestInvokeAsyncTyped tests the generic fire-and-forget helper
// Main test items:
// 1. The typed callback executes with its typed state
func TestInvokeAsyncTyped(t *testing.T) {
	eng := New(DefaultConfig())
	runResult := startInvoker(t, eng)
	defer func() {
		eng.Shutdown()
		<-runResult
	}()

	got := make(chan int, 1)
	if err := InvokeAsyncTyped(eng, func(ctx context.Context, v int) error {
		got <- v * 3
		return nil
	}, 14); err != nil {
		t.Fatalf("InvokeAsyncTyped failed: %v", err)
	}

	if v := <-got; v != 42 {
		t.Errorf("Expected 42, got %d", v)
	}
}
