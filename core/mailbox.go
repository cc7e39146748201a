package core

import (
	"sync"
)

const (
	defaultMailboxCap   = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// Mailbox is the ordered hand-off between arbitrary producer goroutines and
// the single consumer (owner) goroutine. It is unbounded: Add never blocks
// and only fails once the mailbox has been closed.
//
// Take blocks until an item is available or the supplied cancellation channel
// fires; cancellation is a normal exit condition for the run loop, not an
// error. After Close, residual items remain retrievable exactly once via
// DrainRemaining so the shutdown protocol can execute or discard them.
type Mailbox struct {
	mu     sync.Mutex
	items  []*invocation
	closed bool
	// notify wakes the single consumer; capacity 1 so producers never block
	// on it and redundant wakeups collapse.
	notify chan struct{}
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		items:  make([]*invocation, 0, defaultMailboxCap),
		notify: make(chan struct{}, 1),
	}
}

// Add appends inv in FIFO position. Returns ErrMailboxClosed after Close.
func (m *Mailbox) Add(inv *invocation) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMailboxClosed
	}
	m.items = append(m.items, inv)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
		// Consumer already has a pending wakeup.
	}
	return nil
}

// Take returns the next item in FIFO order, blocking until one is available.
// It returns (nil, false) when cancel fires; items already in the mailbox at
// that point are left for DrainRemaining.
func (m *Mailbox) Take(cancel <-chan struct{}) (*invocation, bool) {
	for {
		// Fast path: never block while the cancellation signal is already
		// raised, even if items are pending. Residuals belong to the drain.
		select {
		case <-cancel:
			return nil, false
		default:
		}

		if inv, ok := m.pop(); ok {
			return inv, true
		}

		select {
		case <-m.notify:
		case <-cancel:
			return nil, false
		}
	}
}

func (m *Mailbox) pop() (*invocation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) == 0 {
		return nil, false
	}

	inv := m.items[0]
	// Zero out the element in the underlying array to prevent memory leak
	m.items[0] = nil
	m.items = m.items[1:]
	m.maybeCompactLocked()

	return inv, true
}

// maybeCompactLocked reallocates the backing array once the live window has
// shrunk well below capacity, so a long-lived mailbox does not pin the high
// water mark forever.
func (m *Mailbox) maybeCompactLocked() {
	n := len(m.items)
	c := cap(m.items)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		m.items = make([]*invocation, 0, defaultMailboxCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultMailboxCap), n)

	newSlice := make([]*invocation, n, newCap)
	copy(newSlice, m.items)
	m.items = newSlice
}

// Close marks the mailbox as accepting no further additions. Items already
// enqueued stay retrievable via DrainRemaining. Idempotent.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// IsClosed reports whether Close has been called.
func (m *Mailbox) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// DrainRemaining removes and returns every residual item in original order.
// Intended to be called once, after Close, by the shutdown protocol.
func (m *Mailbox) DrainRemaining() []*invocation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) == 0 {
		return nil
	}
	rest := m.items
	m.items = make([]*invocation, 0, defaultMailboxCap)
	return rest
}

// Len returns a snapshot of the number of pending items.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// IsEmpty reports whether the mailbox currently has no pending items.
func (m *Mailbox) IsEmpty() bool {
	return m.Len() == 0
}
