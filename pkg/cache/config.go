// Package cache wraps internal/pagelru with the predictor integration
// described in spec §4.6/§6: a PrefetchPolicy decides whether and when a
// Read consults a predictor.Link and issues prefetch hints through an
// on_prediction callback.
//
// config.go follows pkg/config.go's Option/applyOptions/defaultConfig idiom
// from the teacher, generalized to this package's single concrete type (no
// K/V type parameters are needed here).
//
// © 2025 dbsp authors. MIT License.
package cache

import (
    "github.com/prometheus/client_golang/prometheus"
    "go.uber.org/zap"

    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

// Option configures a Cache at construction time.
type Option func(*config)

type config struct {
    policy  dbsptypes.PrefetchPolicy
    logger  *zap.Logger
    metrics metricsSink
    shardID int
}

func defaultConfig() *config {
    return &config{
        policy:  dbsptypes.PolicyOnMiss,
        logger:  zap.NewNop(),
        metrics: noopMetrics{},
    }
}

// WithPolicy overrides the default (OnMiss) prefetch policy.
func WithPolicy(p dbsptypes.PrefetchPolicy) Option {
    return func(c *config) { c.policy = p }
}

// WithLogger plugs an external zap.Logger. The cache never logs on the hot
// path; only Init validation failures are emitted.
func WithLogger(l *zap.Logger) Option {
    return func(c *config) {
        if l != nil {
            c.logger = l
        }
    }
}

// WithMetrics enables Prometheus metrics collection for this cache instance,
// labeled with shardID (0 for an unsharded cache).
func WithMetrics(reg *prometheus.Registry, shardID int) Option {
    return func(c *config) {
        c.shardID = shardID
        if reg != nil {
            c.metrics = newPromMetrics(reg)
        }
    }
}

func applyOptions(cfg *config, opts []Option) {
    for _, opt := range opts {
        opt(cfg)
    }
}
