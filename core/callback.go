package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Callback is the unit of work. It receives the opaque state value it was
// submitted with and returns a result (or an error, which is never swallowed:
// a synchronous caller sees it directly, an asynchronous submission surfaces
// it from Run).
type Callback func(ctx context.Context, state any) (any, error)

// InvocationKind classifies how a callback reached the owner goroutine.
type InvocationKind int

const (
	// KindAsync: submitted via InvokeAsync; executed by the run loop.
	KindAsync InvocationKind = iota

	// KindSync: submitted via cross-thread Invoke; the caller is blocked on
	// the completion signal while the run loop executes it.
	KindSync

	// KindReentrant: same-thread Invoke from within a running callback;
	// executed inline, bypassing the mailbox.
	KindReentrant
)

func (k InvocationKind) String() string {
	switch k {
	case KindAsync:
		return "async"
	case KindSync:
		return "sync"
	case KindReentrant:
		return "reentrant"
	default:
		return "unknown"
	}
}

// invocation is the immutable work item handed from a caller goroutine to the
// owner goroutine: the callback plus the state value it closes over. It is
// created at submission time and consumed exactly once by the run loop.
//
// For synchronous invocations, result/err act as the caller-visible slots and
// done is the per-call completion signal. The run loop (or the discard path)
// writes the slots before closing done, which establishes the happens-before
// edge the blocked caller relies on.
type invocation struct {
	id       uuid.UUID
	seq      uint64
	kind     InvocationKind
	callback Callback
	state    any

	enqueuedAt time.Time

	// Synchronous path only.
	done   chan struct{}
	result any
	err    error
}

// complete stores the outcome and releases the blocked caller, if any.
func (inv *invocation) complete(result any, err error) {
	inv.result = result
	inv.err = err
	if inv.done != nil {
		close(inv.done)
	}
}

// =============================================================================
// Context Helper
// =============================================================================

type invokerKeyType struct{}

var invokerKey invokerKeyType

// GetCurrentInvoker returns the Invoker executing the current callback, or nil
// if ctx did not come from a run loop. Callbacks can use it to submit further
// work or to request shutdown from inside the engine.
func GetCurrentInvoker(ctx context.Context) *Invoker {
	if v := ctx.Value(invokerKey); v != nil {
		return v.(*Invoker)
	}
	return nil
}
