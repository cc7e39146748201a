package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-invoker/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SnapshotProvider provides current invoker stats snapshots.
type SnapshotProvider interface {
	Stats() core.InvokerStats
}

// SnapshotPoller periodically exports invoker Stats() snapshots into
// Prometheus gauges. Counters that only tick while callbacks execute (e.g.
// mailbox depth during a quiet period) stay current this way.
type SnapshotPoller struct {
	interval time.Duration

	providersMu sync.RWMutex
	providers   map[string]SnapshotProvider

	invokerPending   *prom.GaugeVec
	invokerExecuted  *prom.GaugeVec
	invokerRejected  *prom.GaugeVec
	invokerDiscarded *prom.GaugeVec
	invokerRunning   *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	pending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "invoker",
		Name:      "pending",
		Help:      "Number of pending invocations per invoker.",
	}, []string{"invoker", "state"})
	executed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "invoker",
		Name:      "executed_total",
		Help:      "Executed invocation count snapshot.",
	}, []string{"invoker", "state"})
	rejected := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "invoker",
		Name:      "rejected_total",
		Help:      "Rejected submission count snapshot.",
	}, []string{"invoker", "state"})
	discarded := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "invoker",
		Name:      "discarded_total",
		Help:      "Discarded invocation count snapshot.",
	}, []string{"invoker", "state"})
	running := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "invoker",
		Name:      "running",
		Help:      "Whether an owner goroutine is assigned (1=running, 0=not).",
	}, []string{"invoker", "state"})

	var err error
	if pending, err = registerCollector(reg, pending); err != nil {
		return nil, err
	}
	if executed, err = registerCollector(reg, executed); err != nil {
		return nil, err
	}
	if rejected, err = registerCollector(reg, rejected); err != nil {
		return nil, err
	}
	if discarded, err = registerCollector(reg, discarded); err != nil {
		return nil, err
	}
	if running, err = registerCollector(reg, running); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:         interval,
		providers:        make(map[string]SnapshotProvider),
		invokerPending:   pending,
		invokerExecuted:  executed,
		invokerRejected:  rejected,
		invokerDiscarded: discarded,
		invokerRunning:   running,
	}, nil
}

// AddInvoker adds or replaces a snapshot provider by name.
func (p *SnapshotPoller) AddInvoker(name string, provider SnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "invoker")
	p.providersMu.Lock()
	p.providers[name] = provider
	p.providersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.providersMu.RLock()
	defer p.providersMu.RUnlock()

	for name, provider := range p.providers {
		stats := provider.Stats()
		stateLabel := normalizeLabel(stats.State, "unknown")
		p.invokerPending.WithLabelValues(name, stateLabel).Set(float64(stats.Pending))
		p.invokerExecuted.WithLabelValues(name, stateLabel).Set(float64(stats.Executed))
		p.invokerRejected.WithLabelValues(name, stateLabel).Set(float64(stats.Rejected))
		p.invokerDiscarded.WithLabelValues(name, stateLabel).Set(float64(stats.Discarded))
		if stats.State == core.StateRunning.String() || stats.State == core.StateStopping.String() || stats.State == core.StateAborting.String() {
			p.invokerRunning.WithLabelValues(name, stateLabel).Set(1)
		} else {
			p.invokerRunning.WithLabelValues(name, stateLabel).Set(0)
		}
	}
}
