package core

import (
	"sync/atomic"
)

// InvokerState identifies where an Invoker is in its lifecycle.
//
// Legal transitions:
//
//	Suspended -> Preparing -> Running -> Stopping -> Terminated
//	                                  -> Aborting -> Terminated
//	Suspended -> Terminated (disposed before ever running)
//
// Terminated is never left.
type InvokerState int32

const (
	// StateSuspended: constructed, Run not yet called.
	StateSuspended InvokerState = iota

	// StatePreparing: Run claimed the invoker but the loop has not entered
	// its steady state yet (starting observers are still being notified).
	StatePreparing

	// StateRunning: the owner goroutine is executing the run loop.
	StateRunning

	// StateStopping: Stop was called; the loop will drain per policy and exit.
	StateStopping

	// StateAborting: Abort was called; the loop will discard and exit.
	StateAborting

	// StateTerminated: Run has returned and resources are released.
	StateTerminated
)

func (s InvokerState) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StatePreparing:
		return "preparing"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateAborting:
		return "aborting"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// lifecycle serializes state transitions with a single atomically updated
// state word plus the owner goroutine id. No locks: every transition is a CAS,
// and the losing side of a race gets the observed state back so it can report
// a precise error.
type lifecycle struct {
	state    atomic.Int32
	ownerGID atomic.Uint64 // 0 = no owner assigned
}

func (l *lifecycle) current() InvokerState {
	return InvokerState(l.state.Load())
}

// advance attempts the from->to transition. On failure it returns the state
// that was observed instead.
func (l *lifecycle) advance(from, to InvokerState) (InvokerState, bool) {
	if l.state.CompareAndSwap(int32(from), int32(to)) {
		return to, true
	}
	return l.current(), false
}

// claimOwner records gid as the owner goroutine. Exactly one claim can
// succeed per run; the id stays fixed until releaseOwner.
func (l *lifecycle) claimOwner(gid uint64) bool {
	return l.ownerGID.CompareAndSwap(0, gid)
}

func (l *lifecycle) releaseOwner() {
	l.ownerGID.Store(0)
}

// owner returns the current owner goroutine id, 0 if none.
func (l *lifecycle) owner() uint64 {
	return l.ownerGID.Load()
}

// isOwner reports whether gid is the goroutine currently running the loop.
func (l *lifecycle) isOwner(gid uint64) bool {
	owner := l.ownerGID.Load()
	return owner != 0 && owner == gid
}
