package cache

import (
    "fmt"
    "time"

    "go.uber.org/zap"

    "github.com/ValikVad/dbsp/internal/pagelru"
    "github.com/ValikVad/dbsp/internal/predictor"
    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

// Cache glues an internal/pagelru.LruCache to an optional predictor.Link,
// applying the PrefetchPolicy contract of spec §6: Never never consults the
// predictor; Always computes and surfaces predictions on every Read; OnMiss
// only surfaces predictions when the Read missed at least one block.
//
// Grounded on original_source/impl/include/cache.h's Cache<T> : ICache.
type Cache struct {
    cfg  *config
    lru  *pagelru.LruCache
    link *predictor.Link
}

// New constructs a Cache over params, wired to link for predictions. A nil
// link forces PrefetchPolicy::Never regardless of WithPolicy.
func New(params dbsptypes.CacheParams, link *predictor.Link, opts ...Option) (*Cache, error) {
    cfg := defaultConfig()
    applyOptions(cfg, opts)
    if link == nil {
        cfg.policy = dbsptypes.PolicyNever
    }

    lru := pagelru.New()
    if err := lru.Init(params); err != nil {
        cfg.logger.Error("cache: init failed", zap.Error(err))
        return nil, err
    }

    return &Cache{cfg: cfg, lru: lru, link: link}, nil
}

// OnPrediction is invoked once per predicted follow-up Request surfaced by a
// Read under the active PrefetchPolicy.
type OnPrediction func(req dbsptypes.Request)

// Read performs the block-level read, then — depending on policy — consults
// the predictor and invokes onPrediction for each surfaced association.
func (c *Cache) Read(req dbsptypes.Request, onPrediction OnPrediction) (dbsptypes.Response, error) {
    start := time.Now()

    resp, err := c.lru.Read(req)
    if err != nil {
        return resp, err
    }
    c.cfg.metrics.incHits(c.cfg.shardID, resp.Hits)
    c.cfg.metrics.incMisses(c.cfg.shardID, resp.Misses)
    c.cfg.metrics.incEvictedUnused(c.cfg.shardID, resp.EvictedUnused)

    if c.cfg.policy != dbsptypes.PolicyNever && c.link != nil {
        if rc := c.link.Compute(req); rc != 0 {
            return resp, fmt.Errorf("cache: predictor compute failed (rc=%d)", rc)
        }

        shouldPredict := c.cfg.policy == dbsptypes.PolicyAlways ||
            (c.cfg.policy == dbsptypes.PolicyOnMiss && resp.Misses != 0)

        if shouldPredict {
            for _, assoc := range c.link.GetAssociatedRequests(req, 0) {
                c.cfg.metrics.incPredictionsIssued(c.cfg.shardID)
                resp.InternalNumRequests++
                if onPrediction != nil {
                    onPrediction(assoc)
                }
            }
        }
    }

    resp.LatencyMicros = uint32(time.Since(start).Microseconds())
    c.cfg.metrics.observeLatency(c.cfg.shardID, resp.LatencyMicros)
    return resp, nil
}

// Write inserts any missing blocks of req; it never consults the predictor.
func (c *Cache) Write(req dbsptypes.Request) (dbsptypes.Response, error) {
    start := time.Now()
    resp, err := c.lru.Write(req)
    if err != nil {
        return resp, err
    }
    c.cfg.metrics.incEvictedUnused(c.cfg.shardID, resp.EvictedUnused)
    resp.LatencyMicros = uint32(time.Since(start).Microseconds())
    c.cfg.metrics.observeLatency(c.cfg.shardID, resp.LatencyMicros)
    return resp, nil
}

// Prefetch inserts any missing blocks of req, marked from-predictor; it is a
// pass-through to the LRU layer, not to the predictor.
func (c *Cache) Prefetch(req dbsptypes.Request) (dbsptypes.Response, error) {
    start := time.Now()
    resp, err := c.lru.Prefetch(req)
    if err != nil {
        return resp, err
    }
    c.cfg.metrics.incPrefetched(c.cfg.shardID, resp.Prefetched)
    c.cfg.metrics.incEvictedUnused(c.cfg.shardID, resp.EvictedUnused)
    resp.LatencyMicros = uint32(time.Since(start).Microseconds())
    c.cfg.metrics.observeLatency(c.cfg.shardID, resp.LatencyMicros)
    return resp, nil
}
