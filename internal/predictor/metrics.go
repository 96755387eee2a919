package predictor

// metrics.go is a thin Prometheus abstraction mirroring pkg/metrics.go's
// sink/noop/prom split, so the predictor can be used with or without a
// registry and the compute hot path never pays for metric updates when
// metrics are disabled.
//
// ┌───────────────────────────────────┐
// │ Metric                  │ Type   │
// ├──────────────────────────┼────────┤
// │ associations_found_total │ Ctr    │
// │ mining_pass_seconds       │ Hist   │
// │ mining_queue_depth        │ Gge    │
// └───────────────────────────────────┘
//
// © 2025 dbsp authors. MIT License.

import "github.com/prometheus/client_golang/prometheus"

type metricsSink interface {
    incAssociationsFound(n int)
    observeMiningPass(seconds float64)
    setMiningQueueDepth(n int)
}

type noopMetrics struct{}

func (noopMetrics) incAssociationsFound(int)    {}
func (noopMetrics) observeMiningPass(float64)   {}
func (noopMetrics) setMiningQueueDepth(int)     {}

type promMetrics struct {
    associationsFound prometheus.Counter
    miningPassSeconds prometheus.Histogram
    miningQueueDepth  prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
    pm := &promMetrics{
        associationsFound: prometheus.NewCounter(prometheus.CounterOpts{
            Namespace: "dbsp",
            Name:      "associations_found_total",
            Help:      "Number of (source, follow-up) associations emitted by mining passes.",
        }),
        miningPassSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
            Namespace: "dbsp",
            Name:      "mining_pass_seconds",
            Help:      "Wall time of the Process step of a single mining pass (notify and merge excluded).",
        }),
        miningQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
            Namespace: "dbsp",
            Name:      "mining_queue_depth",
            Help:      "Entries currently in the mining ring, awaiting a pass.",
        }),
    }
    reg.MustRegister(pm.associationsFound, pm.miningPassSeconds, pm.miningQueueDepth)
    return pm
}

func (m *promMetrics) incAssociationsFound(n int)  { m.associationsFound.Add(float64(n)) }
func (m *promMetrics) observeMiningPass(s float64) { m.miningPassSeconds.Observe(s) }
func (m *promMetrics) setMiningQueueDepth(n int)   { m.miningQueueDepth.Set(float64(n)) }
