package core

import "time"

// InvokerStats represents runtime observability state for an invoker.
type InvokerStats struct {
	Name         string
	State        string
	Pending      int
	Executed     int64
	Rejected     int64
	Discarded    int64
	LastCallback time.Time
}

// Metrics defines the interface for collecting invocation metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD,
// etc.).
//
// Methods should be non-blocking and fast: they are called from the owner
// goroutine's hot path.
type Metrics interface {
	// RecordInvocationDuration records how long a callback took to execute.
	RecordInvocationDuration(invokerName string, kind InvocationKind, duration time.Duration)

	// RecordInvocationRejected records a submission refused by the engine
	// (not started, disposed, recursion limit).
	RecordInvocationRejected(invokerName string, reason string)

	// RecordQueueDepth records the current mailbox depth. Called after every
	// enqueue and dequeue.
	RecordQueueDepth(invokerName string, depth int)

	// RecordDrainDiscarded records items dropped by an immediate stop.
	RecordDrainDiscarded(invokerName string, count int)
}
