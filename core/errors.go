package core

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrAlreadyRunning is returned by Run when the invoker has already been
	// started (or is stopping/aborting).
	ErrAlreadyRunning = errors.New("invoker: already running")

	// ErrNotRunning is returned by Stop/Abort when the invoker is not in the
	// Running state.
	ErrNotRunning = errors.New("invoker: not running")

	// ErrNotStarted is returned by Invoke/InvokeAsync before Run has assigned
	// an owner goroutine.
	ErrNotStarted = errors.New("invoker: not started")

	// ErrDisposed is returned by submissions after teardown has begun.
	ErrDisposed = errors.New("invoker: disposed")

	// ErrStopped is returned to a caller blocked in Invoke when the invoker
	// shuts down before the callback completes.
	ErrStopped = errors.New("invoker: stopped while waiting for invocation")

	// ErrAborted completes pending synchronous invocations that were discarded
	// during an immediate stop.
	ErrAborted = errors.New("invoker: invocation discarded by abort")

	// ErrRecursionLimit is returned by a reentrant Invoke when the nested call
	// depth reaches Config.MaxRecursionDepth.
	ErrRecursionLimit = errors.New("invoker: recursion limit exceeded")

	// ErrMailboxClosed is returned by Mailbox.Add after Close.
	ErrMailboxClosed = errors.New("invoker: mailbox closed")
)

// invalidStateError wraps a sentinel with the operation attempted and the
// state that was actually observed, so the losing side of a transition race
// can see who won.
func invalidStateError(op string, sentinel error, observed InvokerState) error {
	return fmt.Errorf("%s: %w (state=%s)", op, sentinel, observed)
}
