// Package sharded partitions byte-range requests across a fixed number of
// independent pkg/cache.Cache shards, the Go equivalent of the original's
// ShardedCache (examples/include/sharded_cache.h): each shard owns its own
// LRU instance and dispatches sub-requests to a dedicated worker so that
// shards never block each other.
//
// config.go follows the same Option/applyOptions/defaultConfig shape as
// pkg/cache/config.go and pkg/config.go.
//
// © 2025 dbsp authors. MIT License.
package sharded

import (
    "github.com/prometheus/client_golang/prometheus"
    "go.uber.org/zap"

    "github.com/ValikVad/dbsp/internal/predictor"
    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

// Option configures a ShardedCache at construction time.
type Option func(*config)

type config struct {
    policy   dbsptypes.PrefetchPolicy
    logger   *zap.Logger
    registry *prometheus.Registry
    threaded bool

    // sharedPredictor, if set, is registered once and the resulting Link is
    // shared by every shard — one mining pass serves the whole cache.
    sharedPredictor *predictor.Predictor

    // perShardPredictorFactory, if set, is invoked once per shard to build
    // an independent Predictor (and therefore an independent association
    // table) for that shard. Mutually exclusive with sharedPredictor; the
    // later Option wins.
    perShardPredictorFactory func() (*predictor.Predictor, error)
}

func defaultConfig() *config {
    return &config{
        policy: dbsptypes.PolicyOnMiss,
        logger: zap.NewNop(),
    }
}

// WithPolicy overrides the default (OnMiss) prefetch policy applied to
// every shard's cache.
func WithPolicy(p dbsptypes.PrefetchPolicy) Option {
    return func(c *config) { c.policy = p }
}

// WithLogger plugs an external zap.Logger, propagated to every shard.
func WithLogger(l *zap.Logger) Option {
    return func(c *config) {
        if l != nil {
            c.logger = l
        }
    }
}

// WithMetrics enables per-shard Prometheus metrics on the registry.
func WithMetrics(reg *prometheus.Registry) Option {
    return func(c *config) { c.registry = reg }
}

// WithThreading selects threaded dispatch: each shard's worker runs on its
// own goroutine and AddTask returns before the task completes. Without it,
// dispatch runs every sub-request inline on the calling goroutine.
func WithThreading(enabled bool) Option {
    return func(c *config) { c.threaded = enabled }
}

// WithSharedPredictor registers one Link against p and hands that same
// Link to every shard, so all shards feed and read one association table.
func WithSharedPredictor(p *predictor.Predictor) Option {
    return func(c *config) {
        c.sharedPredictor = p
        c.perShardPredictorFactory = nil
    }
}

// WithPerShardPredictors calls factory once per shard to give each shard
// its own independent Predictor instance and association table.
func WithPerShardPredictors(factory func() (*predictor.Predictor, error)) Option {
    return func(c *config) {
        c.perShardPredictorFactory = factory
        c.sharedPredictor = nil
    }
}

func applyOptions(cfg *config, opts []Option) {
    for _, opt := range opts {
        opt(cfg)
    }
}
