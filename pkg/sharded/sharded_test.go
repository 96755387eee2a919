package sharded

import (
    "testing"

    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

func cacheParams() dbsptypes.CacheParams {
    return dbsptypes.CacheParams{CacheSize: 4096, PageSize: 256, BlockSize: 64}
}

func TestDispatchUnsharded(t *testing.T) {
    sc, err := New(cacheParams(), 0, 0)
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    defer sc.Close()

    futures := sc.Write(dbsptypes.Request{StartAddr: 0, SizeBytes: 256, Op: dbsptypes.Write})
    if len(futures) != 1 {
        t.Fatalf("expected a single future for an unsharded cache, got %d", len(futures))
    }
    if _, err := futures[0].Wait(); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
}

func TestDispatchSplitsAcrossShards(t *testing.T) {
    const shardSize = 1024
    sc, err := New(cacheParams(), shardSize, 4)
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    defer sc.Close()

    // Spans shard 0 (bytes 960..1024) and shard 1 (bytes 1024..1152).
    req := dbsptypes.Request{StartAddr: 960, SizeBytes: 192, Op: dbsptypes.Write}
    futures := sc.Write(req)
    if len(futures) != 2 {
        t.Fatalf("expected 2 sub-requests across the shard boundary, got %d", len(futures))
    }

    resp, err := Wait(futures)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if resp.Hits+resp.Misses != 0 {
        t.Fatalf("write should not record hits/misses, got %+v", resp)
    }
}

func TestDispatchSingleShardNoSplit(t *testing.T) {
    const shardSize = 4096
    sc, err := New(cacheParams(), shardSize, 4)
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    defer sc.Close()

    req := dbsptypes.Request{StartAddr: 128, SizeBytes: 64, Op: dbsptypes.Read}
    futures := sc.Process(req)
    if len(futures) != 1 {
        t.Fatalf("request entirely inside one shard should not split, got %d futures", len(futures))
    }
    resp, err := futures[0].Wait()
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if resp.Misses != 1 {
        t.Fatalf("expected a single cold miss, got %+v", resp)
    }
}

// TestDispatchSubRequestsTileOriginalRangeExactly asserts that however many
// shards a request is split across, the sub-requests' address ranges union
// back to exactly the original range with no overlap and no gap.
func TestDispatchSubRequestsTileOriginalRangeExactly(t *testing.T) {
    const shardSize = 1024
    sc, err := New(cacheParams(), shardSize, 4)
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    defer sc.Close()

    req := dbsptypes.Request{StartAddr: 960, SizeBytes: 320, Op: dbsptypes.Write}
    var subReqs []dbsptypes.Request
    sc.dispatch(req, func(r dbsptypes.Request, shardIdx int) (dbsptypes.Response, error) {
        subReqs = append(subReqs, r)
        return dbsptypes.Response{}, nil
    }, false)

    if len(subReqs) < 2 {
        t.Fatalf("expected the request to split across multiple shards, got %d sub-requests", len(subReqs))
    }

    wantStart := req.StartAddr
    for i, sr := range subReqs {
        if sr.StartAddr != wantStart {
            t.Fatalf("sub-request %d starts at %d, want %d (no gap/overlap)", i, sr.StartAddr, wantStart)
        }
        wantStart += sr.SizeBytes
    }
    if wantStart != req.StartAddr+req.SizeBytes {
        t.Fatalf("sub-requests cover up to %d, want %d", wantStart, req.StartAddr+req.SizeBytes)
    }
}

func TestPrefetchDeduplicatesConcurrentSameRange(t *testing.T) {
    sc, err := New(cacheParams(), 4096, 2, WithThreading(true))
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    defer sc.Close()

    req := dbsptypes.Request{StartAddr: 0, SizeBytes: 64, Op: dbsptypes.Read}

    done := make(chan []*Future, 2)
    go func() { done <- sc.Prefetch(req) }()
    go func() { done <- sc.Prefetch(req) }()

    f1 := <-done
    f2 := <-done
    if len(f1) != len(f2) {
        t.Fatalf("expected both concurrent prefetches to share results, got %d vs %d", len(f1), len(f2))
    }
}
