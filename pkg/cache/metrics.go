package cache

// metrics.go mirrors the teacher's pkg/metrics.go sink/noop/prom split,
// per-shard labeled the same way arena-cache labels every metric by shard.
//
// ┌───────────────────────────────────┐
// │ Metric                  │ Labels │
// ├──────────────────────────┼────────┤
// │ dbsp_cache_hits_total     │ shard  │
// │ dbsp_cache_misses_total   │ shard  │
// │ dbsp_cache_prefetched_total│ shard │
// │ dbsp_cache_evicted_unused_total │ shard │
// │ dbsp_cache_predictions_issued_total │ shard │
// │ dbsp_cache_latency_micros  │ shard (histogram) │
// └───────────────────────────────────┘
//
// © 2025 dbsp authors. MIT License.

import (
    "strconv"

    "github.com/prometheus/client_golang/prometheus"
)

type metricsSink interface {
    incHits(shard int, n uint32)
    incMisses(shard int, n uint32)
    incPrefetched(shard int, n uint32)
    incEvictedUnused(shard int, n uint32)
    incPredictionsIssued(shard int)
    observeLatency(shard int, micros uint32)
}

type noopMetrics struct{}

func (noopMetrics) incHits(int, uint32)           {}
func (noopMetrics) incMisses(int, uint32)         {}
func (noopMetrics) incPrefetched(int, uint32)     {}
func (noopMetrics) incEvictedUnused(int, uint32)  {}
func (noopMetrics) incPredictionsIssued(int)      {}
func (noopMetrics) observeLatency(int, uint32)    {}

type promMetrics struct {
    hits               *prometheus.CounterVec
    misses             *prometheus.CounterVec
    prefetched         *prometheus.CounterVec
    evictedUnused      *prometheus.CounterVec
    predictionsIssued  *prometheus.CounterVec
    latency            *prometheus.HistogramVec
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
    label := []string{"shard"}
    pm := &promMetrics{
        hits: prometheus.NewCounterVec(prometheus.CounterOpts{
            Namespace: "dbsp", Subsystem: "cache", Name: "hits_total", Help: "Block-level cache hits.",
        }, label),
        misses: prometheus.NewCounterVec(prometheus.CounterOpts{
            Namespace: "dbsp", Subsystem: "cache", Name: "misses_total", Help: "Block-level cache misses.",
        }, label),
        prefetched: prometheus.NewCounterVec(prometheus.CounterOpts{
            Namespace: "dbsp", Subsystem: "cache", Name: "prefetched_total", Help: "Blocks inserted by Prefetch.",
        }, label),
        evictedUnused: prometheus.NewCounterVec(prometheus.CounterOpts{
            Namespace: "dbsp", Subsystem: "cache", Name: "evicted_unused_total", Help: "Prefetched blocks evicted before being read.",
        }, label),
        predictionsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
            Namespace: "dbsp", Subsystem: "cache", Name: "predictions_issued_total", Help: "Associations surfaced to on_prediction.",
        }, label),
        latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
            Namespace: "dbsp", Subsystem: "cache", Name: "latency_micros", Help: "Read/Write/Prefetch latency in microseconds.",
        }, label),
    }
    register := func(c prometheus.Collector) prometheus.Collector {
        if err := reg.Register(c); err != nil {
            if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
                return are.ExistingCollector
            }
            panic(err)
        }
        return c
    }
    pm.hits = register(pm.hits).(*prometheus.CounterVec)
    pm.misses = register(pm.misses).(*prometheus.CounterVec)
    pm.prefetched = register(pm.prefetched).(*prometheus.CounterVec)
    pm.evictedUnused = register(pm.evictedUnused).(*prometheus.CounterVec)
    pm.predictionsIssued = register(pm.predictionsIssued).(*prometheus.CounterVec)
    pm.latency = register(pm.latency).(*prometheus.HistogramVec)
    return pm
}

func (m *promMetrics) incHits(shard int, n uint32) {
    m.hits.WithLabelValues(strconv.Itoa(shard)).Add(float64(n))
}
func (m *promMetrics) incMisses(shard int, n uint32) {
    m.misses.WithLabelValues(strconv.Itoa(shard)).Add(float64(n))
}
func (m *promMetrics) incPrefetched(shard int, n uint32) {
    m.prefetched.WithLabelValues(strconv.Itoa(shard)).Add(float64(n))
}
func (m *promMetrics) incEvictedUnused(shard int, n uint32) {
    m.evictedUnused.WithLabelValues(strconv.Itoa(shard)).Add(float64(n))
}
func (m *promMetrics) incPredictionsIssued(shard int) {
    m.predictionsIssued.WithLabelValues(strconv.Itoa(shard)).Inc()
}
func (m *promMetrics) observeLatency(shard int, micros uint32) {
    m.latency.WithLabelValues(strconv.Itoa(shard)).Observe(float64(micros))
}
