package main

import (
    "flag"
    "os"
)

type options struct {
    tracePath string
    cacheSize uint64
    pageSize  uint64
    blockSize uint64
    shardSize uint64
    numShards int
    policy    string
    threaded  bool
    listen    string
    json      bool
}

func parseFlags() *options {
    opts := &options{}
    fs := flag.NewFlagSet("dbsp-sim", flag.ExitOnError)
    fs.StringVar(&opts.tracePath, "trace", "", "path to a trace CSV file (required)")
    fs.Uint64Var(&opts.cacheSize, "cache-size", 64<<20, "total cache capacity in bytes, split evenly across shards")
    fs.Uint64Var(&opts.pageSize, "page-size", 4096, "page size in bytes")
    fs.Uint64Var(&opts.blockSize, "block-size", 512, "block size in bytes")
    fs.Uint64Var(&opts.shardSize, "shard-size", 1<<20, "contiguous address range per shard in bytes")
    fs.IntVar(&opts.numShards, "num-shards", 4, "number of shards (0 disables sharding)")
    fs.StringVar(&opts.policy, "policy", "onmiss", "prefetch policy: never, always, onmiss")
    fs.BoolVar(&opts.threaded, "threaded", false, "dispatch sub-requests on per-shard goroutines")
    fs.StringVar(&opts.listen, "listen", "", "if set, serve /debug/dbsp/snapshot and /metrics on this address after the trace finishes")
    fs.BoolVar(&opts.json, "json", false, "print the final summary as JSON instead of plain text")
    fs.Parse(os.Args[1:])
    return opts
}
