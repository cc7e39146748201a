package core

import (
	"context"
	"fmt"
)

// CallbackFor is a typed callback: it receives a state value of type S and
// produces a result of type R.
type CallbackFor[S, R any] func(ctx context.Context, state S) (R, error)

// InvokeTyped is the typed form of Invoker.Invoke. Methods cannot carry type
// parameters, so this is a free function:
//
//	n, err := core.InvokeTyped(inv, func(ctx context.Context, path string) (int, error) {
//	    data, err := os.ReadFile(path)
//	    return len(data), err
//	}, "/etc/hosts")
//
// The engine-level errors (ErrNotStarted, ErrDisposed, ErrStopped, ...) pass
// through unchanged; a mismatch between the callback's declared state type and
// the submitted value is impossible by construction.
func InvokeTyped[S, R any](e *Invoker, callback CallbackFor[S, R], state S) (R, error) {
	var zero R

	result, err := e.Invoke(func(ctx context.Context, raw any) (any, error) {
		return callback(ctx, raw.(S))
	}, state)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("invoker: InvokeTyped: result is %T, want %T", result, zero)
	}
	return typed, nil
}

// InvokeAsyncTyped is the typed form of Invoker.InvokeAsync. The callback's
// result is discarded; its error, if any, terminates the run loop and
// surfaces from Run like any asynchronous callback failure.
func InvokeAsyncTyped[S any](e *Invoker, callback func(ctx context.Context, state S) error, state S) error {
	return e.InvokeAsync(func(ctx context.Context, raw any) (any, error) {
		return nil, callback(ctx, raw.(S))
	}, state)
}
