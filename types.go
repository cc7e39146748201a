package invoker

import "github.com/Swind/go-invoker/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the invoker package for most use cases.

// Invoker is the sequential-callback execution engine.
type Invoker = core.Invoker

// Callback is the unit of work executed on the owner goroutine.
type Callback = core.Callback

// Config carries construction-time settings.
type Config = core.Config

// DrainPolicy selects drain-vs-discard behavior for Stop.
type DrainPolicy = core.DrainPolicy

// InvokerState identifies where an engine is in its lifecycle.
type InvokerState = core.InvokerState

// InvocationKind classifies how a callback reached the owner goroutine.
type InvocationKind = core.InvocationKind

// Observer receives lifecycle notifications.
type Observer = core.Observer

// ObserverFuncs adapts plain functions to the Observer interface.
type ObserverFuncs = core.ObserverFuncs

// InvokerStats is a point-in-time observability snapshot.
type InvokerStats = core.InvokerStats

// InvocationRecord captures a completed invocation.
type InvocationRecord = core.InvocationRecord

// State constants
const (
	StateSuspended  InvokerState = core.StateSuspended
	StatePreparing  InvokerState = core.StatePreparing
	StateRunning    InvokerState = core.StateRunning
	StateStopping   InvokerState = core.StateStopping
	StateAborting   InvokerState = core.StateAborting
	StateTerminated InvokerState = core.StateTerminated
)

// Drain policy constants
const (
	DrainRemaining   DrainPolicy = core.DrainRemaining
	DiscardRemaining DrainPolicy = core.DiscardRemaining
)

// Standard errors
var (
	ErrAlreadyRunning = core.ErrAlreadyRunning
	ErrNotRunning     = core.ErrNotRunning
	ErrNotStarted     = core.ErrNotStarted
	ErrDisposed       = core.ErrDisposed
	ErrStopped        = core.ErrStopped
	ErrAborted        = core.ErrAborted
	ErrRecursionLimit = core.ErrRecursionLimit
)

// New creates an engine in the Suspended state.
func New(cfg Config) *Invoker {
	return core.New(cfg)
}

// DefaultConfig returns the defaults used when Config fields are left zero.
func DefaultConfig() Config {
	return core.DefaultConfig()
}

// ConfigFromEnv loads configuration from INVOKER_* environment variables.
func ConfigFromEnv() (Config, error) {
	return core.ConfigFromEnv()
}

// GetCurrentInvoker returns the engine executing the current callback, if any.
var GetCurrentInvoker = core.GetCurrentInvoker
