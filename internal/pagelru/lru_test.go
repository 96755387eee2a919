package pagelru

import (
    "testing"

    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

func newCache(t *testing.T, params dbsptypes.CacheParams) *LruCache {
    t.Helper()
    c := New()
    if err := c.Init(params); err != nil {
        t.Fatalf("Init: %v", err)
    }
    return c
}

func TestReadMissThenHitNoEviction(t *testing.T) {
    params := dbsptypes.CacheParams{CacheSize: 4096, PageSize: 1024, BlockSize: 512}
    c := newCache(t, params)

    resp, err := c.Read(dbsptypes.Request{StartAddr: 0, SizeBytes: 1024, Op: dbsptypes.Read})
    if err != nil {
        t.Fatal(err)
    }
    if resp.Hits != 0 || resp.Misses != 2 {
        t.Fatalf("first read = %+v, want Hits=0 Misses=2", resp)
    }

    resp, err = c.Read(dbsptypes.Request{StartAddr: 1024, SizeBytes: 1024, Op: dbsptypes.Read})
    if err != nil {
        t.Fatal(err)
    }
    if resp.Hits != 0 || resp.Misses != 2 {
        t.Fatalf("second read = %+v, want Hits=0 Misses=2", resp)
    }

    resp, err = c.Read(dbsptypes.Request{StartAddr: 0, SizeBytes: 1024, Op: dbsptypes.Read})
    if err != nil {
        t.Fatal(err)
    }
    if resp.Hits != 2 || resp.Misses != 0 {
        t.Fatalf("repeat read = %+v, want Hits=2 Misses=0", resp)
    }
    if resp.EvictedUnused != 0 || resp.Prefetched != 0 {
        t.Fatalf("no eviction or prefetch expected, got %+v", resp)
    }
}

func TestPrefetchedPageEvictedUnusedCountsItsBlocks(t *testing.T) {
    params := dbsptypes.CacheParams{CacheSize: 1024, PageSize: 1024, BlockSize: 512}
    c := newCache(t, params)

    resp, err := c.Prefetch(dbsptypes.Request{StartAddr: 0, SizeBytes: 1024, Op: dbsptypes.Read})
    if err != nil {
        t.Fatal(err)
    }
    if resp.Prefetched != 2 {
        t.Fatalf("prefetch = %+v, want Prefetched=2", resp)
    }

    resp, err = c.Read(dbsptypes.Request{StartAddr: 1024, SizeBytes: 1024, Op: dbsptypes.Read})
    if err != nil {
        t.Fatal(err)
    }
    if resp.EvictedUnused != 2 {
        t.Fatalf("read = %+v, want EvictedUnused=2 (the prefetched page's 2 blocks, never read)", resp)
    }
    if resp.Misses != 2 {
        t.Fatalf("read = %+v, want Misses=2", resp)
    }
}

func TestReadAfterPrefetchDoesNotCountAsEvictedUnused(t *testing.T) {
    params := dbsptypes.CacheParams{CacheSize: 1024, PageSize: 1024, BlockSize: 512}
    c := newCache(t, params)

    if _, err := c.Prefetch(dbsptypes.Request{StartAddr: 0, SizeBytes: 512, Op: dbsptypes.Read}); err != nil {
        t.Fatal(err)
    }
    if _, err := c.Read(dbsptypes.Request{StartAddr: 0, SizeBytes: 512, Op: dbsptypes.Read}); err != nil {
        t.Fatal(err)
    }

    resp, err := c.Read(dbsptypes.Request{StartAddr: 1024, SizeBytes: 1024, Op: dbsptypes.Read})
    if err != nil {
        t.Fatal(err)
    }
    if resp.EvictedUnused != 0 {
        t.Fatalf("EvictedUnused = %d, want 0 since the prefetched block was read before eviction", resp.EvictedUnused)
    }
}

func TestWriteInsertsWithoutHitMissAccounting(t *testing.T) {
    params := dbsptypes.CacheParams{CacheSize: 4096, PageSize: 1024, BlockSize: 512}
    c := newCache(t, params)

    resp, err := c.Write(dbsptypes.Request{StartAddr: 0, SizeBytes: 1024, Op: dbsptypes.Write})
    if err != nil {
        t.Fatal(err)
    }
    if resp.Hits != 0 || resp.Misses != 0 {
        t.Fatalf("write = %+v, want no hit/miss accounting", resp)
    }

    resp, err = c.Read(dbsptypes.Request{StartAddr: 0, SizeBytes: 1024, Op: dbsptypes.Read})
    if err != nil {
        t.Fatal(err)
    }
    if resp.Hits != 2 || resp.Misses != 0 {
        t.Fatalf("read after write = %+v, want Hits=2 Misses=0", resp)
    }
}

func TestVerifyParamsRejectsMisalignedSizes(t *testing.T) {
    c := New()
    if err := c.Init(dbsptypes.CacheParams{CacheSize: 1000, PageSize: 1024, BlockSize: 512}); err == nil {
        t.Fatal("expected error for cache_size not a multiple of page_size")
    }
}

func TestVerifyRequestRejectsUnalignedOffset(t *testing.T) {
    params := dbsptypes.CacheParams{CacheSize: 4096, PageSize: 1024, BlockSize: 512}
    c := newCache(t, params)

    if _, err := c.Read(dbsptypes.Request{StartAddr: 100, SizeBytes: 512, Op: dbsptypes.Read}); err == nil {
        t.Fatal("expected error for start_addr not aligned to block_size")
    }
}

func TestPagesForRequestSpansMultiplePages(t *testing.T) {
    params := dbsptypes.CacheParams{CacheSize: 4096, PageSize: 1024, BlockSize: 512}
    pages := pagesForRequest(params, dbsptypes.Request{StartAddr: 512, SizeBytes: 1536, Op: dbsptypes.Read})

    if len(pages) != 2 {
        t.Fatalf("got %d pages, want 2", len(pages))
    }
    if pages[0].ID != 0 || pages[0].BlockID != 1 || pages[0].NumBlocks != 1 {
        t.Fatalf("pages[0] = %+v, want {ID:0 BlockID:1 NumBlocks:1}", pages[0])
    }
    if pages[1].ID != 1 || pages[1].BlockID != 0 || pages[1].NumBlocks != 2 {
        t.Fatalf("pages[1] = %+v, want {ID:1 BlockID:0 NumBlocks:2}", pages[1])
    }
}
