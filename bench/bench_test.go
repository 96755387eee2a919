// Package bench provides reproducible micro-benchmarks for dbsp.
// Run via:  go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// We measure:
//   1. Write         – cold insert workload against an unsharded cache.
//   2. ReadHit        — warm reads with no predictor attached.
//   3. ReadWithPredictor — warm reads through a Predictor-backed Link,
//      exercising Compute + GetAssociatedRequests on every hit.
//   4. ShardedProcess — the same warm-read workload dispatched through a
//      4-shard ShardedCache.
//
// © 2025 dbsp authors. MIT License.
package bench

import (
    "math/rand"
    "testing"

    "github.com/ValikVad/dbsp/internal/predictor"
    "github.com/ValikVad/dbsp/pkg/cache"
    "github.com/ValikVad/dbsp/pkg/dbsptypes"
    "github.com/ValikVad/dbsp/pkg/sharded"
)

const (
    blockSize = 512
    numBlocks = 1 << 16
)

var addrs = func() []uint64 {
    rnd := rand.New(rand.NewSource(42))
    arr := make([]uint64, numBlocks)
    for i := range arr {
        arr[i] = uint64(rnd.Intn(numBlocks)) * blockSize
    }
    return arr
}()

func newTestCacheParams() dbsptypes.CacheParams {
    return dbsptypes.CacheParams{CacheSize: 32 << 20, PageSize: 4096, BlockSize: blockSize}
}

func BenchmarkWrite(b *testing.B) {
    c, err := cache.New(newTestCacheParams(), nil)
    if err != nil {
        b.Fatal(err)
    }
    b.ReportAllocs()
    b.ResetTimer()
    for i := 0; i < b.N; i++ {
        addr := addrs[i&(numBlocks-1)]
        if _, err := c.Write(dbsptypes.Request{StartAddr: addr, SizeBytes: blockSize, Op: dbsptypes.Write}); err != nil {
            b.Fatal(err)
        }
    }
}

func BenchmarkReadHit(b *testing.B) {
    c, err := cache.New(newTestCacheParams(), nil)
    if err != nil {
        b.Fatal(err)
    }
    for _, addr := range addrs {
        c.Write(dbsptypes.Request{StartAddr: addr, SizeBytes: blockSize, Op: dbsptypes.Write})
    }

    b.ReportAllocs()
    b.ResetTimer()
    for i := 0; i < b.N; i++ {
        addr := addrs[i&(numBlocks-1)]
        if _, err := c.Read(dbsptypes.Request{StartAddr: addr, SizeBytes: blockSize, Op: dbsptypes.Read}, nil); err != nil {
            b.Fatal(err)
        }
    }
}

func BenchmarkReadWithPredictor(b *testing.B) {
    pred, err := predictor.New(predictor.WithParams(predictor.UnitTestDefaults()))
    if err != nil {
        b.Fatal(err)
    }
    defer pred.Close()

    c, err := cache.New(newTestCacheParams(), pred.RegisterLink(), cache.WithPolicy(dbsptypes.PolicyAlways))
    if err != nil {
        b.Fatal(err)
    }
    for _, addr := range addrs {
        c.Write(dbsptypes.Request{StartAddr: addr, SizeBytes: blockSize, Op: dbsptypes.Write})
    }

    b.ReportAllocs()
    b.ResetTimer()
    for i := 0; i < b.N; i++ {
        addr := addrs[i&(numBlocks-1)]
        if _, err := c.Read(dbsptypes.Request{StartAddr: addr, SizeBytes: blockSize, Op: dbsptypes.Read}, nil); err != nil {
            b.Fatal(err)
        }
    }
}

func BenchmarkShardedProcess(b *testing.B) {
    sc, err := sharded.New(newTestCacheParams(), 1<<20, 4)
    if err != nil {
        b.Fatal(err)
    }
    defer sc.Close()

    for _, addr := range addrs {
        sharded.Wait(sc.Write(dbsptypes.Request{StartAddr: addr, SizeBytes: blockSize, Op: dbsptypes.Write}))
    }

    b.ReportAllocs()
    b.ResetTimer()
    for i := 0; i < b.N; i++ {
        addr := addrs[i&(numBlocks-1)]
        futures := sc.Process(dbsptypes.Request{StartAddr: addr, SizeBytes: blockSize, Op: dbsptypes.Read})
        if _, err := sharded.Wait(futures); err != nil {
            b.Fatal(err)
        }
    }
}
