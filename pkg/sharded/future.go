package sharded

import "github.com/ValikVad/dbsp/pkg/dbsptypes"

// Future is a single-result promise, the Go stand-in for the original's
// std::packaged_task/std::future pair (the teacher has no future type of
// its own; golang.org/x/sync is already a required dependency via
// singleflight, so a channel-based one-shot result is the idiomatic fit).
type Future struct {
    ch chan futureResult
}

type futureResult struct {
    resp dbsptypes.Response
    err  error
}

func newFuture() *Future {
    return &Future{ch: make(chan futureResult, 1)}
}

func (f *Future) resolve(resp dbsptypes.Response, err error) {
    f.ch <- futureResult{resp: resp, err: err}
}

// Wait blocks until the future resolves.
func (f *Future) Wait() (dbsptypes.Response, error) {
    r := <-f.ch
    return r.resp, r.err
}
