package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Invoker owns a single "owner goroutine" that executes submitted callbacks
// one at a time, in submission order. Any number of caller goroutines may
// submit work; callers either fire-and-forget (InvokeAsync) or block until
// their callback has run and observe its result or error (Invoke).
//
// The Invoker does not spawn its worker internally; it borrows the goroutine
// that calls Run. Run blocks its caller for the engine's entire lifetime, and
// that caller IS the owner goroutine. This keeps thread affinity in the hands
// of the application (main goroutine, a runtime.LockOSThread'ed goroutine for
// CGO/TLS, etc.).
//
// Use cases:
// 1. Serializing access to a resource owned by one goroutine, without locks
// 2. CGO or UI libraries that require all calls on one OS thread
// 3. Actor-style message processing with synchronous call-outs
type Invoker struct {
	cfg Config

	lc      lifecycle
	mailbox *Mailbox
	loop    *StepLoop

	// ctx carries the cancellation signal: cooperative, level-triggered,
	// raised by Stop/Abort/Shutdown (and again, harmlessly, on termination).
	ctx    context.Context
	cancel context.CancelFunc

	// runCtx = ctx + the current-invoker key. Written once by Run on the
	// owner goroutine before the state reaches Running; read only by the
	// owner goroutine afterwards.
	runCtx context.Context

	// terminated is the completion signal: closed exactly once when Run
	// unwinds, releasing Shutdown and any stranded Invoke callers.
	terminated chan struct{}
	disposed   atomic.Bool

	recursionDepth atomic.Int32
	nextSeq        atomic.Uint64

	observers observerList
	history   invocationHistory

	executed          atomic.Int64
	rejected          atomic.Int64
	discarded         atomic.Int64
	lastCallbackNanos atomic.Int64

	logger  Logger
	metrics Metrics
}

// New creates an Invoker in the Suspended state. Zero/invalid Config fields
// are replaced by defaults. Nothing executes until Run is called.
func New(cfg Config) *Invoker {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	e := &Invoker{
		cfg:        cfg,
		mailbox:    NewMailbox(),
		ctx:        ctx,
		cancel:     cancel,
		terminated: make(chan struct{}),
		history:    newInvocationHistory(cfg.HistoryCapacity),
		logger:     NewNoOpLogger(),
	}
	e.loop = NewStepLoop(e.step)
	return e
}

// Name returns the configured invoker name.
func (e *Invoker) Name() string {
	return e.cfg.Name
}

// SetName replaces the configured name used in logs, metrics and history
// records. Call before Run.
func (e *Invoker) SetName(name string) {
	if name != "" {
		e.cfg.Name = name
	}
}

// SetLogger replaces the logger. Call before Run.
func (e *Invoker) SetLogger(logger Logger) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	e.logger = logger
}

// SetMetrics attaches a metrics sink. Call before Run.
func (e *Invoker) SetMetrics(metrics Metrics) {
	e.metrics = metrics
}

// AddObserver registers a lifecycle observer. Observers registered after Run
// has started miss the OnStarting notification.
func (e *Invoker) AddObserver(o Observer) {
	e.observers.add(o)
}

// State returns a point-in-time snapshot of the lifecycle state.
func (e *Invoker) State() InvokerState {
	return e.lc.current()
}

// IsRunning reports whether an owner goroutine is currently assigned.
func (e *Invoker) IsRunning() bool {
	return e.lc.owner() != 0
}

// =============================================================================
// Run Loop
// =============================================================================

// Run executes the engine on the calling goroutine, which becomes the owner
// goroutine for the lifetime of this call. It returns only on termination:
// after Stop (draining residual callbacks per Config.StopPolicy), Abort
// (discarding them), or Shutdown.
//
// Run propagates unrecovered failures to its caller: an error from a starting
// observer, an error returned by an asynchronously submitted callback, or an
// error from a callback executed during drain. If the loop and the stopped
// notification both fail, both errors are reported, joined. Errors from
// synchronously invoked callbacks belong to their blocked caller and never
// surface here.
//
// Callback panics are not recovered; they unwind through Run on the caller's
// own stack. The stopped notification and the termination signal are still
// released on that path.
func (e *Invoker) Run() (err error) {
	gid := currentGID()

	if observed, ok := e.lc.advance(StateSuspended, StatePreparing); !ok {
		if observed == StateTerminated {
			return invalidStateError("invoker: Run", ErrDisposed, observed)
		}
		return invalidStateError("invoker: Run", ErrAlreadyRunning, observed)
	}
	if !e.lc.claimOwner(gid) {
		// Unreachable while the state CAS above is the only gate, but a
		// violated owner invariant must never start a second loop.
		return invalidStateError("invoker: Run", ErrAlreadyRunning, e.lc.current())
	}

	e.runCtx = context.WithValue(e.ctx, invokerKey, e)

	var loopErr error
	defer func() {
		// Guaranteed-finally: even if a callback panicked, raise the
		// cancellation signal, close the mailbox, notify observers, and
		// release the completion signal so no goroutine waits forever.
		e.cancel()
		e.mailbox.Close()

		notifyErr := e.observers.notifyStopped(loopErr)
		if notifyErr != nil {
			notifyErr = fmt.Errorf("invoker: stopped observer: %w", notifyErr)
		}

		e.lc.releaseOwner()
		e.lc.state.Store(int32(StateTerminated))
		close(e.terminated)

		e.logger.Info("invoker terminated", F("invoker", e.cfg.Name))
		err = errors.Join(loopErr, notifyErr)
	}()

	loopErr = e.runLoop()
	return err
}

func (e *Invoker) runLoop() error {
	if err := e.observers.notifyStarting(e.runCtx); err != nil {
		return fmt.Errorf("invoker: starting observer: %w", err)
	}

	if observed, ok := e.lc.advance(StatePreparing, StateRunning); !ok {
		return invalidStateError("invoker: Run", ErrAlreadyRunning, observed)
	}
	e.logger.Info("invoker running", F("invoker", e.cfg.Name))

	loopErr := e.loop.Run(e.ctx)

	// Cancellation observed (or a callback failed). No further submissions.
	e.mailbox.Close()

	if loopErr != nil {
		e.discardRemaining()
		return loopErr
	}
	return e.finishRemaining()
}

// step is the per-iteration body handed to the StepLoop: take the next item,
// execute it. Returning errLoopDone (cancellation) ends the loop cleanly; any
// other error terminates the loop and propagates out of Run.
func (e *Invoker) step(ctx context.Context) error {
	inv, ok := e.mailbox.Take(ctx.Done())
	if !ok {
		return errLoopDone
	}
	return e.execute(inv)
}

// execute runs one invocation on the owner goroutine. For synchronous
// invocations the outcome is routed to the blocked caller; for asynchronous
// ones a callback error is the loop's error.
func (e *Invoker) execute(inv *invocation) error {
	start := time.Now()
	result, cbErr := inv.callback(e.runCtx, inv.state)
	e.record(inv.id, inv.seq, inv.kind, start, cbErr != nil)

	if inv.kind == KindSync {
		inv.complete(result, cbErr)
		return nil
	}
	if cbErr != nil {
		return fmt.Errorf("invoker: async callback failed: %w", cbErr)
	}
	return nil
}

// finishRemaining applies the configured drain policy to items that were
// still queued when cancellation was observed.
func (e *Invoker) finishRemaining() error {
	if e.lc.current() == StateAborting || e.cfg.StopPolicy == DiscardRemaining {
		e.discardRemaining()
		return nil
	}

	// Graceful path: execute every residual item in original order. A
	// failure abandons the rest of the drain and surfaces from Run.
	for _, inv := range e.mailbox.DrainRemaining() {
		if err := e.execute(inv); err != nil {
			e.discardRemaining()
			return err
		}
	}
	return nil
}

// discardRemaining drops residual items, releasing any blocked synchronous
// callers with ErrAborted so nobody hangs on a callback that will never run.
func (e *Invoker) discardRemaining() {
	rest := e.mailbox.DrainRemaining()
	for _, inv := range rest {
		if inv.kind == KindSync {
			inv.complete(nil, ErrAborted)
		}
	}
	if len(rest) > 0 {
		e.discarded.Add(int64(len(rest)))
		e.logger.Debug("discarded residual invocations",
			F("invoker", e.cfg.Name), F("count", len(rest)))
		if e.metrics != nil {
			e.metrics.RecordDrainDiscarded(e.cfg.Name, len(rest))
		}
	}
}

// =============================================================================
// Stop / Abort / Shutdown
// =============================================================================

// Stop requests graceful termination: the run loop finishes the callback in
// flight, then handles residual items per Config.StopPolicy (drain by
// default) and Run returns. Stop itself does not block.
//
// Only the first Stop/Abort while Running wins; any other call fails with an
// error naming the observed state.
func (e *Invoker) Stop() error {
	if observed, ok := e.lc.advance(StateRunning, StateStopping); !ok {
		return invalidStateError("invoker: Stop", ErrNotRunning, observed)
	}
	e.logger.Info("stop requested", F("invoker", e.cfg.Name),
		F("policy", e.cfg.StopPolicy))
	e.cancel()
	return nil
}

// Abort requests immediate termination: residual items are discarded and
// blocked synchronous callers are released with ErrAborted. Abort itself does
// not block.
func (e *Invoker) Abort() error {
	if observed, ok := e.lc.advance(StateRunning, StateAborting); !ok {
		return invalidStateError("invoker: Abort", ErrNotRunning, observed)
	}
	e.logger.Info("abort requested", F("invoker", e.cfg.Name))
	e.cancel()
	return nil
}

// Shutdown converges every teardown path onto one idempotent sequence: close
// the mailbox to new submissions, raise the cancellation signal, and wait for
// the owner goroutine to exit. Only the first call acts; the rest no-op.
//
// Called from a non-owner goroutine, Shutdown blocks until Run has fully
// returned. Called from inside a running callback it returns immediately —
// the loop's own epilogue performs the drain, and any resulting error
// surfaces from Run rather than here.
func (e *Invoker) Shutdown() {
	if !e.disposed.CompareAndSwap(false, true) {
		return
	}

	// Never started: terminate directly, there is no loop to unwind.
	if _, ok := e.lc.advance(StateSuspended, StateTerminated); ok {
		e.mailbox.Close()
		e.cancel()
		close(e.terminated)
		e.logger.Debug("shutdown before start", F("invoker", e.cfg.Name))
		return
	}

	e.mailbox.Close()
	e.cancel()

	if e.lc.isOwner(currentGID()) {
		return
	}
	<-e.terminated
}

// WaitTerminated blocks until the engine has fully terminated, or ctx fires.
func (e *Invoker) WaitTerminated(ctx context.Context) error {
	select {
	case <-e.terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// Cross-Thread Invocation Bridge
// =============================================================================

// Invoke submits callback with state and blocks until it has executed,
// returning its result or its exact error.
//
// Called from the owner goroutine itself (a reentrant call from within a
// running callback), the callback executes immediately and synchronously,
// bypassing the mailbox — enqueueing would deadlock, since the owner cannot
// dequeue while blocked on its own queue. Reentrant nesting is bounded by
// Config.MaxRecursionDepth.
//
// Called from any other goroutine, the callback is enqueued and the caller
// blocks on a per-call completion signal. A shutdown concurrent with the wait
// releases the caller with ErrStopped (or ErrAborted if the item was
// discarded) instead of hanging it.
func (e *Invoker) Invoke(callback Callback, state any) (any, error) {
	if err := e.submittable("invoker: Invoke"); err != nil {
		return nil, err
	}

	if e.lc.isOwner(currentGID()) {
		return e.invokeReentrant(callback, state)
	}

	inv := e.newInvocation(KindSync, callback, state)
	inv.done = make(chan struct{})

	if err := e.mailbox.Add(inv); err != nil {
		e.reject("mailbox_closed")
		return nil, fmt.Errorf("invoker: Invoke: %w", ErrDisposed)
	}
	if e.metrics != nil {
		e.metrics.RecordQueueDepth(e.cfg.Name, e.mailbox.Len())
	}

	select {
	case <-inv.done:
		return inv.result, inv.err
	case <-e.ctx.Done():
		// Shutdown raced with the wait. The item may still execute (drain on
		// graceful stop) or be completed with ErrAborted (discard), so wait
		// for its completion or for full termination, whichever comes first.
		select {
		case <-inv.done:
			return inv.result, inv.err
		case <-e.terminated:
			select {
			case <-inv.done:
				return inv.result, inv.err
			default:
				return nil, ErrStopped
			}
		}
	}
}

// InvokeAsync submits callback with state and returns without waiting. The
// callback always goes through the mailbox, even when called from the owner
// goroutine, so it is ordered with other pending submissions. An error
// returned by the callback terminates the run loop and surfaces from Run.
func (e *Invoker) InvokeAsync(callback Callback, state any) error {
	if err := e.submittable("invoker: InvokeAsync"); err != nil {
		return err
	}

	inv := e.newInvocation(KindAsync, callback, state)
	if err := e.mailbox.Add(inv); err != nil {
		e.reject("mailbox_closed")
		return fmt.Errorf("invoker: InvokeAsync: %w", ErrDisposed)
	}
	if e.metrics != nil {
		e.metrics.RecordQueueDepth(e.cfg.Name, e.mailbox.Len())
	}
	return nil
}

// submittable rejects submissions before Run has assigned an owner goroutine
// and after teardown has begun. Stopping/Aborting still accept submissions;
// the closing mailbox is the final arbiter of that race.
func (e *Invoker) submittable(op string) error {
	if e.disposed.Load() {
		e.reject("disposed")
		return fmt.Errorf("%s: %w", op, ErrDisposed)
	}
	switch observed := e.lc.current(); observed {
	case StateSuspended, StatePreparing:
		e.reject("not_started")
		return invalidStateError(op, ErrNotStarted, observed)
	case StateTerminated:
		e.reject("terminated")
		return invalidStateError(op, ErrDisposed, observed)
	}
	return nil
}

// invokeReentrant is the same-goroutine fast path: execute inline, guarded by
// the recursion counter. The counter is always decremented, so a rejected or
// failed call leaves the engine usable for subsequent independent calls.
func (e *Invoker) invokeReentrant(callback Callback, state any) (any, error) {
	depth := e.recursionDepth.Add(1)
	defer e.recursionDepth.Add(-1)

	if depth >= int32(e.cfg.MaxRecursionDepth) {
		e.reject("recursion_limit")
		return nil, fmt.Errorf("invoker: Invoke: %w (depth=%d, max=%d)",
			ErrRecursionLimit, depth, e.cfg.MaxRecursionDepth)
	}

	id := uuid.New()
	seq := e.nextSeq.Add(1)
	start := time.Now()
	result, err := callback(e.runCtx, state)
	e.record(id, seq, KindReentrant, start, err != nil)
	return result, err
}

func (e *Invoker) newInvocation(kind InvocationKind, callback Callback, state any) *invocation {
	return &invocation{
		id:         uuid.New(),
		seq:        e.nextSeq.Add(1),
		kind:       kind,
		callback:   callback,
		state:      state,
		enqueuedAt: time.Now(),
	}
}

// =============================================================================
// Observability
// =============================================================================

func (e *Invoker) record(id uuid.UUID, seq uint64, kind InvocationKind, start time.Time, failed bool) {
	now := time.Now()
	e.executed.Add(1)
	e.lastCallbackNanos.Store(now.UnixNano())
	e.history.Add(InvocationRecord{
		ID:          id,
		Seq:         seq,
		Kind:        kind,
		InvokerName: e.cfg.Name,
		StartedAt:   start,
		FinishedAt:  now,
		Duration:    now.Sub(start),
		Failed:      failed,
	})
	if e.metrics != nil {
		e.metrics.RecordInvocationDuration(e.cfg.Name, kind, now.Sub(start))
		e.metrics.RecordQueueDepth(e.cfg.Name, e.mailbox.Len())
	}
}

func (e *Invoker) reject(reason string) {
	e.rejected.Add(1)
	if e.metrics != nil {
		e.metrics.RecordInvocationRejected(e.cfg.Name, reason)
	}
}

// Stats returns a point-in-time observability snapshot.
func (e *Invoker) Stats() InvokerStats {
	var last time.Time
	if nanos := e.lastCallbackNanos.Load(); nanos != 0 {
		last = time.Unix(0, nanos)
	}
	return InvokerStats{
		Name:         e.cfg.Name,
		State:        e.lc.current().String(),
		Pending:      e.mailbox.Len(),
		Executed:     e.executed.Load(),
		Rejected:     e.rejected.Load(),
		Discarded:    e.discarded.Load(),
		LastCallback: last,
	}
}

// RecentInvocations returns up to limit recent invocation records, newest
// first. limit <= 0 returns everything retained.
func (e *Invoker) RecentInvocations(limit int) []InvocationRecord {
	return e.history.Recent(limit)
}
