package main

// tracegen.go is a tiny helper utility to generate deterministic access
// traces for standalone simulation of dbsp (outside `go test`). It emits
// the internal/tracefmt CSV shape consumed by cmd/dbsp-sim.
//
// Usage:
//   go run ./tools/tracegen -n 100000 -dist=zipf -seed=42 -out trace.csv
//
// Flags:
//   -n          number of requests to generate (default 100000)
//   -dist       address distribution: "uniform" or "zipf" (default uniform)
//   -zipfs      Zipf s parameter (>1)  (default 1.2)
//   -zipfv      Zipf v parameter (>=1) (default 1.0)
//   -addr-space size of the simulated address space in bytes (default 1<<30)
//   -block-size size of one request in bytes (default 512)
//   -write-pct  percentage of requests that are writes (default 5)
//   -seed       RNG seed (default current time)
//   -out        output file (default stdout)
//
// © 2025 dbsp authors. MIT License.

import (
    "flag"
    "fmt"
    "math/rand"
    "os"
    "time"

    "github.com/ValikVad/dbsp/internal/tracefmt"
    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

func main() {
    var (
        n         = flag.Int("n", 100_000, "number of requests to generate")
        dist      = flag.String("dist", "uniform", "address distribution: uniform or zipf")
        zipfS     = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
        zipfV     = flag.Float64("zipfv", 1.0, "zipf v parameter (>=1)")
        addrSpace = flag.Uint64("addr-space", 1<<30, "size of the simulated address space in bytes")
        blockSize = flag.Uint64("block-size", 512, "size of one request in bytes")
        writePct  = flag.Int("write-pct", 5, "percentage of requests that are writes")
        seedVal   = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
        outPath   = flag.String("out", "", "output file (default stdout)")
    )
    flag.Parse()

    rnd := rand.New(rand.NewSource(*seedVal))
    numBlocks := *addrSpace / *blockSize
    if numBlocks == 0 {
        fmt.Fprintln(os.Stderr, "addr-space must be >= block-size")
        os.Exit(1)
    }

    var gen func() uint64
    switch *dist {
    case "uniform":
        gen = func() uint64 { return uint64(rnd.Int63n(int64(numBlocks))) }
    case "zipf":
        if *zipfS <= 1.0 || *zipfV < 1.0 {
            fmt.Fprintln(os.Stderr, "zipfs must be >1 and zipfv >=1")
            os.Exit(1)
        }
        z := rand.NewZipf(rnd, *zipfS, *zipfV, numBlocks-1)
        gen = z.Uint64
    default:
        fmt.Fprintln(os.Stderr, "unknown dist:", *dist)
        os.Exit(1)
    }

    var out *os.File
    var err error
    if *outPath == "" {
        out = os.Stdout
    } else {
        out, err = os.Create(*outPath)
        if err != nil {
            fmt.Fprintln(os.Stderr, "cannot create file:", err)
            os.Exit(1)
        }
        defer out.Close()
    }

    w := tracefmt.NewWriter(out)
    defer w.Flush()

    for i := 0; i < *n; i++ {
        op := dbsptypes.Read
        if rnd.Intn(100) < *writePct {
            op = dbsptypes.Write
        }
        req := dbsptypes.Request{
            StartAddr: gen() * *blockSize,
            SizeBytes: *blockSize,
            Op:        op,
        }
        if err := w.Write(req); err != nil {
            fmt.Fprintln(os.Stderr, "write:", err)
            os.Exit(1)
        }
    }
}
