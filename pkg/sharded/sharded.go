package sharded

import (
    "fmt"
    "sync"

    "github.com/ValikVad/dbsp/internal/predictor"
    "github.com/ValikVad/dbsp/pkg/cache"
    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

// ShardedCache partitions a byte-addressed request across NumShards
// independent cache.Cache instances, each owning its own page LRU and
// worker. Grounded on the original's ShardedCache::DispatchToShard
// (examples/src/sharded_cache.cpp): a request spanning a shard boundary is
// split into one sub-request per shard it touches, each sub-request is
// submitted to that shard's worker, and the futures are returned to the
// caller to wait on.
type ShardedCache struct {
    cfg *config

    blockSize      uint64
    shardSize      uint64
    blocksPerShard uint64
    numShards      int

    caches  []*cache.Cache
    workers []*worker

    ownedPredictors []*predictor.Predictor

    prefetch prefetchGroup

    mu             sync.Mutex
    spilloverFuture []*Future
}

// New builds a ShardedCache over numShards caches, each sized
// cacheParams.CacheSize/numShards, covering shardSize contiguous bytes per
// shard. numShards == 0 is the degenerate unsharded case: one cache covers
// the whole address space and dispatch never splits a request.
func New(cacheParams dbsptypes.CacheParams, shardSize uint64, numShards int, opts ...Option) (*ShardedCache, error) {
    cfg := defaultConfig()
    applyOptions(cfg, opts)

    n := numShards
    if n <= 0 {
        n = 1
    }

    perShard := cacheParams
    if numShards > 0 {
        perShard.CacheSize = cacheParams.CacheSize / uint64(numShards)
    }

    links, owned, err := buildLinks(cfg, n)
    if err != nil {
        return nil, err
    }

    sc := &ShardedCache{
        cfg:             cfg,
        blockSize:       cacheParams.BlockSize,
        shardSize:       shardSize,
        blocksPerShard:  shardSize / cacheParams.BlockSize,
        numShards:       numShards,
        caches:          make([]*cache.Cache, n),
        workers:         make([]*worker, n),
        ownedPredictors: owned,
    }

    for i := 0; i < n; i++ {
        cacheOpts := []cache.Option{
            cache.WithPolicy(cfg.policy),
            cache.WithLogger(cfg.logger),
        }
        if cfg.registry != nil {
            cacheOpts = append(cacheOpts, cache.WithMetrics(cfg.registry, i))
        }

        c, err := cache.New(perShard, links[i], cacheOpts...)
        if err != nil {
            return nil, fmt.Errorf("sharded: shard %d: %w", i, err)
        }
        sc.caches[i] = c

        w := newWorker(cfg.threaded)
        w.start()
        sc.workers[i] = w
    }

    return sc, nil
}

// buildLinks returns one Link per shard plus the set of Predictor instances
// this call itself created (empty when cfg.sharedPredictor is used, since
// the caller owns that one's lifetime).
func buildLinks(cfg *config, n int) ([]*predictor.Link, []*predictor.Predictor, error) {
    links := make([]*predictor.Link, n)
    switch {
    case cfg.perShardPredictorFactory != nil:
        owned := make([]*predictor.Predictor, 0, n)
        for i := range links {
            p, err := cfg.perShardPredictorFactory()
            if err != nil {
                for _, o := range owned {
                    o.Close()
                }
                return nil, nil, fmt.Errorf("sharded: predictor factory for shard %d: %w", i, err)
            }
            links[i] = p.RegisterLink()
            owned = append(owned, p)
        }
        return links, owned, nil
    case cfg.sharedPredictor != nil:
        link := cfg.sharedPredictor.RegisterLink()
        for i := range links {
            links[i] = link
        }
    }
    return links, nil, nil
}

// Close stops every shard's worker and any predictor this ShardedCache
// itself created (per-shard predictors). A predictor passed in via
// WithSharedPredictor is owned by the caller and left running.
func (sc *ShardedCache) Close() {
    for _, w := range sc.workers {
        w.stop()
    }
    for _, p := range sc.ownedPredictors {
        p.Close()
    }
}

type shardAction func(req dbsptypes.Request, shardIdx int) (dbsptypes.Response, error)

// Process is the top-level read entry point: it walks req across however
// many shards it spans, and any prediction surfaced by a shard's Read is
// itself dispatched as a prefetch whose futures are folded into the
// returned set (mirroring the original's cached_response spillover buffer).
func (sc *ShardedCache) Process(req dbsptypes.Request) []*Future {
    read := func(r dbsptypes.Request, idx int) (dbsptypes.Response, error) {
        onPrediction := func(predicted dbsptypes.Request) {
            futs := sc.Prefetch(predicted)
            sc.mu.Lock()
            sc.spilloverFuture = append(sc.spilloverFuture, futs...)
            sc.mu.Unlock()
        }
        return sc.caches[idx].Read(r, onPrediction)
    }
    return sc.dispatch(req, read, false)
}

// Write dispatches req as a write across whichever shards it spans.
func (sc *ShardedCache) Write(req dbsptypes.Request) []*Future {
    write := func(r dbsptypes.Request, idx int) (dbsptypes.Response, error) {
        return sc.caches[idx].Write(r)
    }
    return sc.dispatch(req, write, false)
}

// Prefetch dispatches req as a predictor-originated prefetch, deduplicated
// against any other in-flight Prefetch targeting the same range, and with
// worker priority over ordinary reads/writes.
func (sc *ShardedCache) Prefetch(req dbsptypes.Request) []*Future {
    return sc.prefetch.do(req, func() []*Future {
        action := func(r dbsptypes.Request, idx int) (dbsptypes.Response, error) {
            return sc.caches[idx].Prefetch(r)
        }
        return sc.dispatch(req, action, true)
    })
}

// dispatch splits req at shard boundaries and submits one sub-request per
// shard it touches to that shard's worker, returning one Future per
// sub-request plus any futures accumulated in the prefetch spillover buffer
// since the last call.
func (sc *ShardedCache) dispatch(req dbsptypes.Request, action shardAction, pushToFront bool) []*Future {
    var futures []*Future

    if sc.numShards <= 0 {
        f := newFuture()
        f.resolve(action(req, 0))
        futures = append(futures, f)
    } else {
        startBlock := req.StartAddr / sc.blockSize
        endBlock := startBlock + req.SizeBytes/sc.blockSize

        for startBlock < endBlock {
            shardIdx := startBlock / sc.blocksPerShard
            shardStart := shardIdx * sc.blocksPerShard
            shardEnd := shardStart + sc.blocksPerShard

            blockEnd := endBlock
            if shardEnd < blockEnd {
                blockEnd = shardEnd
            }
            blockCount := blockEnd - startBlock

            idx := int(shardIdx % uint64(sc.numShards))
            subReq := dbsptypes.Request{
                StartAddr: startBlock * sc.blockSize,
                SizeBytes: blockCount * sc.blockSize,
                Time:      req.Time,
                Op:        req.Op,
            }

            shard := idx
            futures = append(futures, sc.workers[shard].addTask(pushToFront, func() (dbsptypes.Response, error) {
                return action(subReq, shard)
            }))

            startBlock = blockEnd
        }
    }

    sc.mu.Lock()
    if len(sc.spilloverFuture) > 0 {
        futures = append(futures, sc.spilloverFuture...)
        sc.spilloverFuture = nil
    }
    sc.mu.Unlock()

    return futures
}

// Wait collects every future's Response, merging their counters into one,
// and returns the first error encountered (subsequent futures still drain,
// matching the original's wait-on-all-futures semantics).
func Wait(futures []*Future) (dbsptypes.Response, error) {
    var total dbsptypes.Response
    var firstErr error
    for _, f := range futures {
        resp, err := f.Wait()
        if err != nil && firstErr == nil {
            firstErr = err
        }
        total.Merge(resp)
    }
    return total, firstErr
}
