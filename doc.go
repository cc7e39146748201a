// Package invoker provides a sequential-callback execution engine: many
// caller goroutines schedule work onto one logical owner goroutine, which
// runs the callbacks one at a time, in submission order. Callers either
// fire-and-forget or block until their callback has completed and observe its
// result or error.
//
// # Quick Start
//
// The goroutine that calls Run becomes the owner goroutine and blocks there
// for the engine's lifetime:
//
//	eng := invoker.New(invoker.DefaultConfig())
//
//	go func() {
//		if err := eng.Run(); err != nil {
//			log.Printf("invoker: %v", err)
//		}
//	}()
//
//	// From any goroutine: block until the callback has run on the owner.
//	result, err := eng.Invoke(func(ctx context.Context, state any) (any, error) {
//		return doWork(state)
//	}, payload)
//
//	// Or fire-and-forget, still strictly ordered.
//	_ = eng.InvokeAsync(logRequest, payload)
//
//	_ = eng.Stop() // drain residual callbacks, then Run returns
//
// # Key Concepts
//
// Owner goroutine: the single goroutine, fixed for one Run call, that
// executes every queued callback. Reentrant Invoke calls from within a
// running callback execute inline, bounded by Config.MaxRecursionDepth.
//
// Mailbox: the unbounded, ordered hand-off queue between caller goroutines
// and the owner. FIFO order is preserved regardless of which goroutine
// submitted.
//
// Stop vs Abort: Stop is graceful and by default drains every callback still
// queued before Run returns; Abort discards them and releases blocked callers
// with an error. Shutdown converges both plus disposal-from-anywhere onto one
// idempotent teardown.
//
// # Observability
//
// The engine exposes a Stats snapshot, a recent-invocation history, and a
// Metrics seam; observability/prometheus adapts both to Prometheus
// collectors.
package invoker
