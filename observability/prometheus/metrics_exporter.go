package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-invoker/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	invocationDurationSeconds *prom.HistogramVec
	invocationRejectedTotal   *prom.CounterVec
	drainDiscardedTotal       *prom.CounterVec
	mailboxDepth              *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "invoker"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "invocation_duration_seconds",
		Help:      "Callback execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"invoker", "kind"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "invocation_rejected_total",
		Help:      "Total number of refused submissions.",
	}, []string{"invoker", "reason"})
	discardedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "drain_discarded_total",
		Help:      "Total number of queued invocations discarded during immediate stop.",
	}, []string{"invoker"})
	mailboxDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "mailbox_depth",
		Help:      "Current mailbox depth.",
	}, []string{"invoker"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if discardedVec, err = registerCollector(reg, discardedVec); err != nil {
		return nil, err
	}
	if mailboxDepthVec, err = registerCollector(reg, mailboxDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		invocationDurationSeconds: durationVec,
		invocationRejectedTotal:   rejectedVec,
		drainDiscardedTotal:       discardedVec,
		mailboxDepth:              mailboxDepthVec,
	}, nil
}

// RecordInvocationDuration records callback execution duration.
func (m *MetricsExporter) RecordInvocationDuration(invokerName string, kind core.InvocationKind, duration time.Duration) {
	if m == nil {
		return
	}
	m.invocationDurationSeconds.WithLabelValues(normalizeLabel(invokerName, "unknown"), kindLabel(kind)).Observe(duration.Seconds())
}

// RecordInvocationRejected records refused submissions.
func (m *MetricsExporter) RecordInvocationRejected(invokerName string, reason string) {
	if m == nil {
		return
	}
	m.invocationRejectedTotal.WithLabelValues(normalizeLabel(invokerName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordQueueDepth records mailbox depth.
func (m *MetricsExporter) RecordQueueDepth(invokerName string, depth int) {
	if m == nil {
		return
	}
	m.mailboxDepth.WithLabelValues(normalizeLabel(invokerName, "unknown")).Set(float64(depth))
}

// RecordDrainDiscarded records invocations dropped by an immediate stop.
func (m *MetricsExporter) RecordDrainDiscarded(invokerName string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.drainDiscardedTotal.WithLabelValues(normalizeLabel(invokerName, "unknown")).Add(float64(count))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func kindLabel(kind core.InvocationKind) string {
	switch kind {
	case core.KindSync:
		return "sync"
	case core.KindAsync:
		return "async"
	case core.KindReentrant:
		return "reentrant"
	default:
		return "unknown"
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
