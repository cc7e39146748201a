package core

import (
	"context"
	"sync"
)

// Observer receives lifecycle notifications from the owner goroutine.
//
// OnStarting runs after the owner goroutine has been claimed but before any
// callback executes; returning an error aborts startup and surfaces from Run.
//
// OnStopped always runs when the loop exits, even if the loop itself failed;
// its error is never swallowed — if both the loop and OnStopped fail, Run
// reports both, joined.
type Observer interface {
	OnStarting(ctx context.Context) error
	OnStopped(runErr error) error
}

// observerList is an explicit, synchronously invoked list of observers.
// Registration is allowed from any goroutine; notification happens only on
// the owner goroutine.
type observerList struct {
	mu        sync.Mutex
	observers []Observer
}

func (ol *observerList) add(o Observer) {
	if o == nil {
		return
	}
	ol.mu.Lock()
	ol.observers = append(ol.observers, o)
	ol.mu.Unlock()
}

func (ol *observerList) snapshot() []Observer {
	ol.mu.Lock()
	defer ol.mu.Unlock()
	out := make([]Observer, len(ol.observers))
	copy(out, ol.observers)
	return out
}

// notifyStarting invokes OnStarting in registration order, stopping at the
// first failure.
func (ol *observerList) notifyStarting(ctx context.Context) error {
	for _, o := range ol.snapshot() {
		if err := o.OnStarting(ctx); err != nil {
			return err
		}
	}
	return nil
}

// notifyStopped invokes OnStopped on every observer regardless of individual
// failures and returns the first error encountered.
func (ol *observerList) notifyStopped(runErr error) error {
	var first error
	for _, o := range ol.snapshot() {
		if err := o.OnStopped(runErr); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// =============================================================================
// Func adapters
// =============================================================================

// ObserverFuncs adapts plain functions to the Observer interface. Either
// field may be nil.
type ObserverFuncs struct {
	Starting func(ctx context.Context) error
	Stopped  func(runErr error) error
}

func (o ObserverFuncs) OnStarting(ctx context.Context) error {
	if o.Starting == nil {
		return nil
	}
	return o.Starting(ctx)
}

func (o ObserverFuncs) OnStopped(runErr error) error {
	if o.Stopped == nil {
		return nil
	}
	return o.Stopped(runErr)
}
