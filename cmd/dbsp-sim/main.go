package main

// main.go wires a trace file, a predictor.Predictor and a sharded.ShardedCache
// together into a standalone simulator: it replays every request from the
// trace, accumulates aggregate statistics, prints a summary, and optionally
// stays resident to serve that summary to cmd/dbsp-inspect and Prometheus.
//
// Run:
//   go run ./cmd/dbsp-sim -trace testdata/trace.csv -num-shards 4
//
// © 2025 dbsp authors. MIT License.

import (
    "encoding/json"
    "fmt"
    "io"
    "log"
    "net/http"
    "os"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "go.uber.org/zap"

    "github.com/ValikVad/dbsp/internal/predictor"
    "github.com/ValikVad/dbsp/internal/tracefmt"
    "github.com/ValikVad/dbsp/pkg/dbsptypes"
    "github.com/ValikVad/dbsp/pkg/sharded"
)

func main() {
    opts := parseFlags()
    if opts.tracePath == "" {
        fmt.Fprintln(os.Stderr, "dbsp-sim: -trace is required")
        os.Exit(1)
    }

    logger, _ := zap.NewProduction()
    defer logger.Sync()

    reg := prometheus.NewRegistry()

    pred, err := predictor.New(
        predictor.WithParams(predictor.Defaults()),
        predictor.WithLogger(logger),
        predictor.WithMetrics(reg),
    )
    if err != nil {
        log.Fatalf("predictor init: %v", err)
    }
    defer pred.Close()

    policy, err := parsePolicy(opts.policy)
    if err != nil {
        log.Fatalf("policy: %v", err)
    }

    cacheParams := dbsptypes.CacheParams{
        CacheSize: opts.cacheSize,
        PageSize:  opts.pageSize,
        BlockSize: opts.blockSize,
    }

    sc, err := sharded.New(cacheParams, opts.shardSize, opts.numShards,
        sharded.WithSharedPredictor(pred),
        sharded.WithPolicy(policy),
        sharded.WithLogger(logger),
        sharded.WithMetrics(reg),
        sharded.WithThreading(opts.threaded),
    )
    if err != nil {
        log.Fatalf("sharded cache init: %v", err)
    }
    defer sc.Close()

    summary, err := replay(opts.tracePath, sc)
    if err != nil {
        log.Fatalf("replay: %v", err)
    }

    if opts.json {
        enc := json.NewEncoder(os.Stdout)
        enc.SetIndent("", "  ")
        enc.Encode(summary.toMap())
    } else {
        summary.print(os.Stdout)
    }

    if opts.listen != "" {
        serve(opts.listen, reg, summary)
    }
}

func parsePolicy(s string) (dbsptypes.PrefetchPolicy, error) {
    switch s {
    case "never":
        return dbsptypes.PolicyNever, nil
    case "always":
        return dbsptypes.PolicyAlways, nil
    case "onmiss", "":
        return dbsptypes.PolicyOnMiss, nil
    default:
        return 0, fmt.Errorf("unrecognized policy %q", s)
    }
}

type runSummary struct {
    totals   dbsptypes.Response
    requests int
}

func (s runSummary) hitRatio() float64 {
    total := s.totals.Hits + s.totals.Misses
    if total == 0 {
        return 0
    }
    return float64(s.totals.Hits) / float64(total)
}

func (s runSummary) toMap() map[string]any {
    return map[string]any{
        "requests":                  s.requests,
        "hits_total":                s.totals.Hits,
        "misses_total":              s.totals.Misses,
        "prefetched_total":          s.totals.Prefetched,
        "evicted_unused_total":      s.totals.EvictedUnused,
        "predictions_issued_total":  s.totals.InternalNumRequests,
        "hit_ratio":                 s.hitRatio(),
    }
}

func (s runSummary) print(w io.Writer) {
    fmt.Fprintf(w, "requests:          %d\n", s.requests)
    fmt.Fprintf(w, "hits:              %d\n", s.totals.Hits)
    fmt.Fprintf(w, "misses:            %d\n", s.totals.Misses)
    fmt.Fprintf(w, "prefetched:        %d\n", s.totals.Prefetched)
    fmt.Fprintf(w, "evicted unused:    %d\n", s.totals.EvictedUnused)
    fmt.Fprintf(w, "hit ratio:         %.4f\n", s.hitRatio())
}

func replay(path string, sc *sharded.ShardedCache) (runSummary, error) {
    f, err := os.Open(path)
    if err != nil {
        return runSummary{}, err
    }
    defer f.Close()

    r := tracefmt.NewReader(f)
    var summary runSummary

    for {
        req, err := r.Next()
        if err == io.EOF {
            break
        }
        if err != nil {
            return summary, err
        }

        var futures []*sharded.Future
        switch req.Op {
        case dbsptypes.Write:
            futures = sc.Write(req)
        default:
            futures = sc.Process(req)
        }

        resp, err := sharded.Wait(futures)
        if err != nil {
            return summary, err
        }
        summary.totals.Merge(resp)
        summary.requests++
    }
    return summary, nil
}

func serve(addr string, reg *prometheus.Registry, summary runSummary) {
    mux := http.NewServeMux()
    mux.HandleFunc("/debug/dbsp/snapshot", func(w http.ResponseWriter, r *http.Request) {
        json.NewEncoder(w).Encode(summary.toMap())
    })
    mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

    srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
    log.Printf("serving snapshot on http://%s ...", addr)
    log.Fatal(srv.ListenAndServe())
}
