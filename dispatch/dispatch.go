// Package dispatch defines a minimal "ambient execution context" boundary: a
// uniform callback-dispatch API that unrelated subsystems can depend on
// without knowing what executes their callbacks. The invoker engine plugs in
// through a thin adapter; tests or other runtimes can substitute their own
// Executor.
package dispatch

import (
	"context"

	"github.com/Swind/go-invoker/core"
)

// Executor dispatches callbacks onto some execution context.
//
// Execute blocks the caller until fn has run and returns its error. Post
// hands fn off and returns immediately; a non-nil error means fn was refused,
// never that it failed.
type Executor interface {
	Execute(fn func(ctx context.Context) error) error
	Post(fn func(ctx context.Context) error) error
}

// InvokerExecutor presents a core.Invoker as an Executor. Execute maps to
// Invoke (including the reentrant fast path when called from the owner
// goroutine) and Post maps to InvokeAsync.
type InvokerExecutor struct {
	engine *core.Invoker
}

func NewInvokerExecutor(engine *core.Invoker) *InvokerExecutor {
	return &InvokerExecutor{engine: engine}
}

func (x *InvokerExecutor) Execute(fn func(ctx context.Context) error) error {
	_, err := x.engine.Invoke(func(ctx context.Context, _ any) (any, error) {
		return nil, fn(ctx)
	}, nil)
	return err
}

func (x *InvokerExecutor) Post(fn func(ctx context.Context) error) error {
	return x.engine.InvokeAsync(func(ctx context.Context, _ any) (any, error) {
		return nil, fn(ctx)
	}, nil)
}

// InlineExecutor runs callbacks synchronously on the calling goroutine. It is
// the degenerate execution context, useful in tests and single-threaded
// tools.
type InlineExecutor struct{}

func (InlineExecutor) Execute(fn func(ctx context.Context) error) error {
	return fn(context.Background())
}

func (InlineExecutor) Post(fn func(ctx context.Context) error) error {
	return fn(context.Background())
}
