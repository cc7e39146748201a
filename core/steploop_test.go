package core

import (
	"context"
	"errors"
	"testing"
)

// TestStepLoop_RunsUntilDone tests cooperative completion
// Main test items:
// 1. Steps execute back to back until errLoopDone
// 2. errLoopDone is not reported as a failure
func TestStepLoop_RunsUntilDone(t *testing.T) {
	count := 0
	loop := NewStepLoop(func(ctx context.Context) error {
		count++
		if count == 5 {
			return errLoopDone
		}
		return nil
	})

	if err := loop.Run(context.Background()); err != nil {
		t.Errorf("Expected nil on cooperative completion, got %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 steps, got %d", count)
	}
}

// TestStepLoop_StepErrorPropagates tests failure termination
// Main test items:
// 1. A step error ends the loop and is returned as-is
func TestStepLoop_StepErrorPropagates(t *testing.T) {
	wantErr := errors.New("step failed")
	count := 0
	loop := NewStepLoop(func(ctx context.Context) error {
		count++
		if count == 3 {
			return wantErr
		}
		return nil
	})

	if err := loop.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Expected step error, got %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 steps, got %d", count)
	}
}

// TestStepLoop_ContextCancellation tests between-step cancellation
// Main test items:
// 1. A cancelled context ends the loop cleanly before the next step
func TestStepLoop_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	count := 0
	loop := NewStepLoop(func(ctx context.Context) error {
		count++
		if count == 2 {
			cancel()
		}
		return nil
	})

	if err := loop.Run(ctx); err != nil {
		t.Errorf("Expected nil on cancellation, got %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 steps, got %d", count)
	}
}

// TestStepLoop_AlreadyCancelled tests a pre-cancelled context
// Main test items:
// 1. No step executes when the context is cancelled before Run
func TestStepLoop_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	loop := NewStepLoop(func(ctx context.Context) error {
		count++
		return nil
	})

	if err := loop.Run(ctx); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 steps, got %d", count)
	}
}
